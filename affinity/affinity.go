// Package affinity provides a platform-neutral API for pinning the
// calling OS thread to a specific logical CPU. Platform-specific
// implementations live in build-tagged files, mirroring the
// affinity/affinity_linux.go, affinity_stub.go split this pattern uses
// elsewhere in the ecosystem.
package affinity

// Pin pins the calling OS thread to the given logical CPU index. Callers
// must have already called runtime.LockOSThread, since affinity is a
// property of the OS thread, not the goroutine. On platforms without
// support, it returns an error and the caller should proceed unpinned
// (§4.3: pinning is an optional scheduler feature).
func Pin(cpuID int) error {
	return pinPlatform(cpuID)
}
