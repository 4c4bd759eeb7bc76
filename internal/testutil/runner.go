package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Compile-time interface check.
var _ runner.Runner = (*FakeRunner)(nil)

type fakeRule struct {
	substr string
	res    *runner.Result
	err    error
}

// FakeRunner records every command and answers from scripted rules. The
// first rule whose substring appears in the command line wins; unmatched
// commands succeed with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	calls []runner.Command
	rules []fakeRule
}

// NewFakeRunner returns a FakeRunner with no rules.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On answers commands containing substr with res and err.
func (f *FakeRunner) On(substr string, res *runner.Result, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substr: substr, res: res, err: err})
	return f
}

// FailOn makes commands containing substr fail the way ExecRunner reports a
// fatal exit.
func (f *FakeRunner) FailOn(substr string, exitCode int, stderr string) *FakeRunner {
	return f.On(substr, &runner.Result{Stderr: stderr, ExitCode: exitCode}, &runner.ExternalCommandError{
		Command:  substr,
		ExitCode: exitCode,
		Stderr:   stderr,
	})
}

// Run records cmd and returns the scripted answer. A done ctx fails the
// command the way exec.CommandContext kills it.
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	line := cmd.String()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", line, err)
	}
	for _, r := range f.rules {
		if strings.Contains(line, r.substr) {
			res := r.res
			if res == nil {
				res = &runner.Result{}
			}
			return res, r.err
		}
	}
	return &runner.Result{}, nil
}

// Commands returns a copy of all recorded commands.
func (f *FakeRunner) Commands() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runner.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Lines returns the recorded commands rendered as command lines.
func (f *FakeRunner) Lines() []string {
	cmds := f.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

// Count returns how many recorded command lines contain substr.
func (f *FakeRunner) Count(substr string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// Reset clears recorded commands but keeps the rules.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
