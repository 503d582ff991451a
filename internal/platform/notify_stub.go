//go:build !linux && !darwin && !windows

package platform

// Notify drops the notification; this platform has no supported service.
func Notify(title, body string, opts Options) error {
	return nil
}
