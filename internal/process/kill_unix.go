//go:build !windows

// Package process terminates browser process trees left behind by the PDF
// renderer.
package process

import "syscall"

// KillTree sends SIGKILL to the process group led by pid.
// Non-positive pids are ignored; -0 would target the caller's own group.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
