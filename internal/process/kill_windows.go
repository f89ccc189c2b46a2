//go:build windows

// Package process terminates browser process trees left behind by the PDF
// renderer.
package process

import (
	"os/exec"
	"strconv"
)

// KillTree force-kills pid and its children with taskkill /F /T.
// Non-positive pids are ignored.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- numeric pid
}
