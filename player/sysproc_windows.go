//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// sysProcAttr returns nil, Windows has no process groups to detach into.
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

// terminateProcess kills the player; Windows offers no polite signal for GUI processes.
func terminateProcess(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
