//go:build linux

// Package procattr configures wrapped agent CLI subprocesses so they can
// be terminated as a group and never outlive the wrapper.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set places the child in its own process group and arranges a parent-death
// signal. Agent CLIs fork helpers (shells, formatters); the group lets an
// interrupt reach all of them, and Pdeathsig cleans up if the wrapper itself
// dies uncleanly (OOM kill, SIGKILL).
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
