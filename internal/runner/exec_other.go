//go:build !windows

package runner

import "os/exec"

func configureCmd(_ *exec.Cmd, _ string) {}
