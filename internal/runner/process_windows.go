//go:build windows

package runner

import (
	"errors"
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no SIGTERM; terminate and kill are the same.
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}

func isGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}
