//go:build linux

package driver

import "golang.org/x/sys/unix"

func getNoFileLimit(out *unixRlimit) error {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return err
	}
	out.Cur = rlim.Cur
	out.Max = rlim.Max
	return nil
}
