//go:build windows

package discovery

// processAlive always reports true on windows, stale runtime files are caught by the session probe.
func processAlive(int) bool {
	return true
}
