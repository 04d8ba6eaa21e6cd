//go:build !unix

package executor

import "os/exec"

// without process groups only the direct child is killed; WaitDelay still bounds the wait
func killProcessGroupOnCancel(_ *exec.Cmd) {}
