//go:build windows

package cmd

import (
	"os"
	"os/exec"
	"syscall"
)

// detachProcess is a no-op on Windows.
func detachProcess(_ *exec.Cmd) {}

// shutdownSignals are the signals that stop a foreground server.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func terminateSignal() syscall.Signal { return syscall.SIGTERM }

func killSignal() syscall.Signal { return syscall.SIGKILL }
