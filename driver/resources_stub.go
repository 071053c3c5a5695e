//go:build !linux

package driver

import "errors"

func getNoFileLimit(out *unixRlimit) error {
	return errors.New("driver: fd limit probe not supported on this platform")
}
