package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Compile-time interface guard.
var _ runner.Runner = (*printRunner)(nil)

// printRunner prints commands instead of running them.
type printRunner struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[dry-run] %s\n", cmd)
	return &runner.Result{}, nil
}
