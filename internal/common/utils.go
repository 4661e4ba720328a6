// Package common holds small helpers shared by the commands.
package common

import (
	"os/exec"
	"runtime"
	"strings"
)

// Platform returns the platform identifier recorded in reports.
func Platform() string {
	return runtime.GOOS
}

// GitCommit returns the short commit hash of the working tree, or
// "unknown" when not in a git checkout.
func GitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
