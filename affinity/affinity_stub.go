//go:build !linux

package affinity

import "errors"

// pinPlatform is a stub for platforms without CPU-affinity support.
func pinPlatform(cpuID int) error {
	return errors.New("affinity: not supported on this platform")
}
