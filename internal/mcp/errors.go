package mcp

import "fmt"

// StartupError reports that the server process could not be located or
// spawned.
type StartupError struct {
	Command string
	Err     error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to start MCP server %q: %v", e.Command, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected message on the wire,
// including stream closure before a full message arrived.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ToolError reports that a tool ran but the server declared it failed.
// Code and Data carry the server-reported detail when present.
type ToolError struct {
	Tool    string
	Code    int
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// TimeoutError reports that no response arrived within the caller's
// deadline. The session is considered poisoned: the owning client tears
// the process down and reconnects fresh on the next call.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
