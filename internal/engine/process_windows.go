//go:build windows

package engine

import (
	"errors"
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows; there are no process groups to join.
func setSysProcAttr(cmd *exec.Cmd) {}

// killProcessGroup kills the engine process directly on Windows.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
