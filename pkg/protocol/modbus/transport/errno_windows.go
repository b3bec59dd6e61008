//go:build windows

package transport

import "syscall"

var fatalErrnos = []error{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.EINPROGRESS, syscall.WSAECONNRESET}
