//go:build !linux

package jsworker

import "syscall"

// Pdeathsig is Linux-only, so elsewhere we fall back to a default
// SysProcAttr; the child sees EOF on its stdin once this process exits
// and the pipe closes.
func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
