//go:build !windows

package cmd

import (
	"os"
	"os/exec"
	"syscall"
)

// detachProcess starts the background server in its own session so it
// outlives the terminal that launched it.
func detachProcess(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// shutdownSignals are the signals that stop a foreground server.
func shutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

func terminateSignal() syscall.Signal { return syscall.SIGTERM }

func killSignal() syscall.Signal { return syscall.SIGKILL }
