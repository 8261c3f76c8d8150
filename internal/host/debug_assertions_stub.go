//go:build !debug

package host

// AssertUIThread is a no-op in release builds. The debug build (-tags
// debug) replaces it with a goroutine-id check that panics on off-thread
// access.
func (h *Host) AssertUIThread(string) {}
