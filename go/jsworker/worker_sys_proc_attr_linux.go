//go:build linux

package jsworker

import "syscall"

// workerSysProcAttr delivers a SIGTERM to the worker process if this
// process dies uncleanly, so an interpreter child never outlives its pool.
func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
