package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/metrics"
)

// Execution modes accepted by New.
const (
	ModeBlocking = "blocking"
	ModeAwait    = "await"
)

// waitDelay bounds how long output pipes are drained after a cancelled
// command is killed.
const waitDelay = 2 * time.Second

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithBenignPatterns replaces the default benign stderr patterns.
func WithBenignPatterns(patterns []string) Option {
	return func(r *ExecRunner) { r.benign = patterns }
}

// WithTimeout bounds each invocation. Zero leaves commands unbounded.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) { r.timeout = d }
}

// WithMetrics counts invocations by executable and outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *ExecRunner) { r.metrics = m }
}

// Compile-time interface guard.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs commands synchronously with os/exec.
type ExecRunner struct {
	logger  *zap.Logger
	benign  []string
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewExecRunner creates a blocking runner.
func NewExecRunner(logger *zap.Logger, opts ...Option) *ExecRunner {
	r := &ExecRunner{
		logger: logger,
		benign: DefaultBenignPatterns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New returns a Runner for the configured execution mode.
func New(mode string, logger *zap.Logger, opts ...Option) (Runner, error) {
	base := NewExecRunner(logger, opts...)
	switch mode {
	case "", ModeBlocking:
		return base, nil
	case ModeAwait:
		return NewAsyncRunner(base), nil
	default:
		return nil, fmt.Errorf("unknown execution mode %q", mode)
	}
}

// Run executes cmd and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	line := cmd.String()
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	configureCmd(c, line)
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	runErr := c.Run()

	res := &Result{}
	var decErr error
	if res.Stdout, decErr = Decode(cmd.Encoding, stdout.Bytes()); decErr != nil {
		r.logger.Warn("stdout decode failed", zap.String("command", line), zap.Error(decErr))
		res.Stdout = stdout.String()
	}
	if res.Stderr, decErr = Decode(cmd.Encoding, stderr.Bytes()); decErr != nil {
		r.logger.Warn("stderr decode failed", zap.String("command", line), zap.Error(decErr))
		res.Stderr = stderr.String()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			r.metrics.ObserveCommand(cmd.Name, "start_failed")
			r.logger.Warn("command did not start", zap.String("command", line), zap.Error(runErr))
			return nil, &ExternalCommandError{Command: line, ExitCode: -1, Err: runErr}
		}
		res.ExitCode = exitErr.ExitCode()
	}

	outcome := Classify(res.ExitCode, res.Stderr, r.benign)
	r.metrics.ObserveCommand(cmd.Name, outcome.String())
	r.logger.Debug("command finished",
		zap.String("command", line),
		zap.Int("exit_code", res.ExitCode),
		zap.Stringer("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	)

	if outcome == OutcomeFatal {
		return res, &ExternalCommandError{
			Command:  line,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Stdout:   res.Stdout,
			Err:      runErr,
		}
	}
	return res, nil
}
