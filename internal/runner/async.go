package runner

import "context"

// Compile-time interface guard.
var _ Runner = (*AsyncRunner)(nil)

// AsyncRunner starts each command on its own goroutine and lets the caller
// await the result. The process itself is never killed by an abandoned
// wait; it runs until it exits on its own.
type AsyncRunner struct {
	inner Runner
}

// NewAsyncRunner wraps inner.
func NewAsyncRunner(inner Runner) *AsyncRunner {
	return &AsyncRunner{inner: inner}
}

// Pending is an in-flight command.
type Pending struct {
	done chan struct{}
	res  *Result
	err  error
}

// Start launches cmd and returns immediately.
func (a *AsyncRunner) Start(ctx context.Context, cmd Command) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.res, p.err = a.inner.Run(context.WithoutCancel(ctx), cmd)
	}()
	return p
}

// Done is closed once the command has exited.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the command exits or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts cmd and awaits it.
func (a *AsyncRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	return a.Start(ctx, cmd).Wait(ctx)
}
