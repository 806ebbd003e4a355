// mockdocs serves the canned AWS documentation and git test servers
// over stdio so the CLI can be exercised without the hosted uvx
// distributions. Point a [servers.*] command at this binary:
//
//	[servers.awsdocs]
//	command = "mockdocs"
//
//	[servers.git]
//	command = "mockdocs"
//	args = ["-server", "git"]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsrelay/aws-docs-agent/internal/mcptest"
)

func main() {
	serverKind := flag.String("server", "docs", "Which fixture to serve: docs or git")
	flag.Parse()

	var cfg *mcptest.ServerConfig
	switch *serverKind {
	case "docs":
		cfg = mcptest.DocsServerConfig()
	case "git":
		cfg = mcptest.GitServerConfig()
	default:
		fmt.Fprintf(os.Stderr, "unknown server kind %q (want docs or git)\n", *serverKind)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcptest.NewServer(cfg).RunStdio(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
