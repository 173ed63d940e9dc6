//go:build linux || darwin

package resource

import "golang.org/x/sys/unix"

func osVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return placeholder
	}
	return unix.ByteSliceToString(u.Release[:])
}
