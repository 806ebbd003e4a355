package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// stopGracePeriod is how long Stop waits for the server process to exit
// after SIGTERM before killing it.
const stopGracePeriod = 3 * time.Second

// maxLineBytes bounds a single newline-delimited message. Documentation
// pages can be large, so this is generous.
const maxLineBytes = 16 * 1024 * 1024

// StdioTransport spawns an external MCP server process and exchanges
// newline-delimited JSON messages over its standard streams.
//
// A transport is owned by exactly one Client. It is not safe for
// concurrent use; callers serialize Send/Receive pairs.
type StdioTransport struct {
	command string
	args    []string
	env     map[string]string
	dir     string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	stderr *tailBuffer
	log    zerolog.Logger

	stopped bool
}

// NewStdioTransport returns an unstarted transport for the given server
// command. env entries are appended to the inherited environment.
func NewStdioTransport(command string, args []string, env map[string]string, log zerolog.Logger) *StdioTransport {
	return &StdioTransport{
		command: command,
		args:    args,
		env:     env,
		stderr:  &tailBuffer{limit: 8 * 1024},
		log:     log.With().Str("component", "transport").Str("command", command).Logger(),
	}
}

// SetWorkingDirectory sets the working directory the server process is
// spawned in. Must be called before Start.
func (t *StdioTransport) SetWorkingDirectory(dir string) { t.dir = dir }

// Start spawns the server process with stdin/stdout pipes. A missing or
// unspawnable executable yields *StartupError.
func (t *StdioTransport) Start(ctx context.Context) error {
	if t.cmd != nil {
		return &StartupError{Command: t.command, Err: errors.New("transport already started")}
	}

	cmd := exec.CommandContext(ctx, t.command, t.args...)
	cmd.Dir = t.dir
	cmd.Env = os.Environ()
	for k, v := range t.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stderr = t.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &StartupError{Command: t.command, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &StartupError{Command: t.command, Err: err}
	}

	t.log.Debug().Strs("args", t.args).Msg("starting MCP server process")
	if err := cmd.Start(); err != nil {
		return &StartupError{Command: t.command, Err: err}
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReaderSize(stdout, 64*1024)
	t.stopped = false
	t.log.Info().Int("pid", cmd.Process.Pid).Msg("MCP server process started")
	return nil
}

// Send serializes one JSON message and writes it, newline-terminated,
// to the server's stdin.
func (t *StdioTransport) Send(msg any) error {
	if t.cmd == nil || t.stopped {
		return errors.New("transport not started")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	t.log.Trace().RawJSON("msg", data).Msg("send")
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to MCP server: %w%s", err, t.stderrHint())
	}
	return nil
}

// Receive blocks until one newline-terminated JSON object is available
// and parses it. Malformed JSON or stream closure yields *ProtocolError;
// expiry of the context deadline yields *TimeoutError.
//
// On timeout the blocked read is abandoned; the owning client stops the
// transport, which unblocks the reader goroutine via process teardown.
func (t *StdioTransport) Receive(ctx context.Context) (*Response, error) {
	if t.cmd == nil || t.stopped {
		return nil, &ProtocolError{Reason: "transport not started"}
	}

	type readResult struct {
		resp *Response
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		resp, err := t.readMessage()
		ch <- readResult{resp, err}
	}()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, &TimeoutError{Op: "receive", Err: ctx.Err()}
	}
}

func (t *StdioTransport) readMessage() (*Response, error) {
	for {
		line, err := t.reader.ReadBytes('\n')
		if err != nil {
			if len(bytes.TrimSpace(line)) > 0 {
				return nil, &ProtocolError{Reason: "stream closed mid-message" + t.stderrHint(), Err: err}
			}
			return nil, &ProtocolError{Reason: "stream closed" + t.stderrHint(), Err: err}
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if len(line) > maxLineBytes {
			return nil, &ProtocolError{Reason: fmt.Sprintf("message exceeds %d bytes", maxLineBytes)}
		}
		t.log.Trace().RawJSON("msg", line).Msg("receive")
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, &ProtocolError{Reason: "malformed JSON message" + t.stderrHint(), Err: err}
		}
		return &resp, nil
	}
}

// Stop terminates the server process and releases the stream handles.
// Idempotent: stopping a stopped or never-started transport is a no-op.
func (t *StdioTransport) Stop() {
	if t.cmd == nil || t.stopped {
		return
	}
	t.stopped = true

	// Closing stdin first gives well-behaved servers a chance to exit
	// on their own.
	if t.stdin != nil {
		_ = t.stdin.Close()
	}

	done := make(chan struct{})
	go func() {
		_ = t.cmd.Wait()
		close(done)
	}()

	_ = t.cmd.Process.Signal(os.Interrupt)
	select {
	case <-done:
		t.log.Debug().Msg("MCP server process exited")
	case <-time.After(stopGracePeriod):
		t.log.Warn().Msg("MCP server process did not exit, killing")
		_ = t.cmd.Process.Kill()
		<-done
	}
	t.cmd = nil
}

// Running reports whether the transport has a live process.
func (t *StdioTransport) Running() bool {
	return t.cmd != nil && !t.stopped
}

func (t *StdioTransport) stderrHint() string {
	s := strings.TrimSpace(t.stderr.String())
	if s == "" {
		return ""
	}
	// Keep only the last line; server stacks can be long.
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return " (server stderr: " + s + ")"
}

// tailBuffer keeps the trailing limit bytes written to it. Used to
// retain recent server stderr for error messages without unbounded
// growth. The process writes stderr from its own goroutine, so access
// is locked.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
