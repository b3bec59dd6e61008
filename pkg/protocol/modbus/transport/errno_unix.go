//go:build unix

package transport

import "golang.org/x/sys/unix"

var fatalErrnos = []error{unix.ECONNRESET, unix.ECONNREFUSED, unix.EINPROGRESS}
