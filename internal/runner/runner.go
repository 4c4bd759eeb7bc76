// Package runner executes external OS configuration utilities (netsh, net,
// ipconfig, powershell) and classifies their exit status into success,
// benign "already done" failures, and fatal errors.
package runner

import (
	"context"
	"fmt"
	"strings"
)

// Encoding names the text encoding a tool writes its console output in.
type Encoding string

const (
	// EncodingOEM866 is IBM Code Page 866, the OEM console code page used
	// by localized netsh, net and ipconfig output.
	EncodingOEM866 Encoding = "oem866"
	// EncodingUTF8 is used for the PowerShell scripting host.
	EncodingUTF8 Encoding = "utf8"
	// EncodingUTF16LE is used by tools started with /U or -OutputEncoding Unicode.
	EncodingUTF16LE Encoding = "utf16le"
)

// Command is one external invocation. Args are passed verbatim; no shell
// is involved.
type Command struct {
	Name     string
	Args     []string
	Encoding Encoding
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return commandLine(c)
}

// Result is the captured outcome of a command. It is never persisted.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands.
type Runner interface {
	// Run starts cmd, waits for it to exit and returns its output. A
	// non-zero exit that is not benign returns *ExternalCommandError.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExternalCommandError reports a command that exited non-zero without
// matching a benign pattern, or that could not be started at all
// (ExitCode -1).
type ExternalCommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Stdout   string
	Err      error
}

func (e *ExternalCommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command failed (exit code %d): %s", e.ExitCode, e.Command)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "; stderr: %s", s)
	}
	if s := strings.TrimSpace(e.Stdout); s != "" {
		fmt.Fprintf(&b, "; stdout: %s", s)
	}
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// commandLine joins the executable and its arguments the way Windows
// expects them on a raw command line. Arguments that already carry their
// own quotes (name="Ethernet 2") are left untouched.
func commandLine(c Command) string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	switch {
	case s == "":
		return `""`
	case strings.ContainsRune(s, '"'):
		return s
	case strings.ContainsAny(s, " \t"):
		return `"` + s + `"`
	default:
		return s
	}
}
