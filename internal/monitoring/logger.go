package monitoring

import (
	"log"
	"os"
	"strings"
)

// LogLevelEnv names the environment variable that enables debug output when
// set to "debug".
const LogLevelEnv = "EDGE_LINES_LOG_LEVEL"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug = strings.EqualFold(os.Getenv(LogLevelEnv), "debug")

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug turns debug output on or off, overriding the environment.
func SetDebug(on bool) {
	debug = on
}

// DebugEnabled reports whether Debugf writes anything.
func DebugEnabled() bool {
	return debug
}

// Debugf logs through Logf with a DEBUG prefix when debug output is enabled.
func Debugf(format string, v ...interface{}) {
	if !debug {
		return
	}
	Logf("DEBUG: "+format, v...)
}
