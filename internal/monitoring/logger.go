// Package monitoring carries the shared diagnostic logger used by the
// beamlab subsystems.
package monitoring

import "log"

// Logf is the diagnostic logger shared by the beamlab subsystems. It
// defaults to log.Printf but may be replaced by SetLogger; the CLI's
// quiet mode and tests use that to mute or redirect it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
