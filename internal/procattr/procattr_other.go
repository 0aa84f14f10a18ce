//go:build !linux

// Package procattr configures wrapped agent CLI subprocesses so they can
// be terminated as a group and never outlive the wrapper.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set places the child in its own process group. Pdeathsig is Linux-only;
// elsewhere the group alone is what lets an interrupt reach the CLI and
// every helper it forked.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
