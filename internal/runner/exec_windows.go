//go:build windows

package runner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureCmd hides the console window and hands the pre-quoted command
// line to CreateProcess so netsh sees name="..." exactly as written.
func configureCmd(c *exec.Cmd, line string) {
	c.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
		CmdLine:       line,
	}
}
