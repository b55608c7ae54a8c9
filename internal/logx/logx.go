// Package logx is the analyzer's logging surface: a thin wrapper
// around the standard library's log.Logger with a debug gate, in the
// style of the teacher's internal/debug package. No structured
// logging library appears in any example's go.mod, so stdlib log is
// the grounded choice rather than an invented dependency.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu          sync.Mutex
	logger      = log.New(os.Stderr, "", log.LstdFlags)
	debugOn     = os.Getenv("CPG_DEBUG") == "1" || os.Getenv("CPG_DEBUG") == "true"
	debugOutput io.Writer
)

// SetOutput redirects all logging output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetDebug toggles debug-level logging at runtime (e.g. a CLI flag).
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugOn = enabled
}

func isDebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugOn
}

// Debugf logs a debug-level message. Per §7, unresolved calls and
// other recoverable misses are logged here rather than at info level.
func Debugf(format string, args ...any) {
	if !isDebugEnabled() {
		return
	}
	logger.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
}

// Infof logs a progress message (pass boundaries, counts, duration).
func Infof(format string, args ...any) {
	logger.Output(2, "[INFO] "+fmt.Sprintf(format, args...))
}

// Warnf logs a degraded-output condition (§7: estimator fallback,
// missing language config treated as generic file).
func Warnf(format string, args ...any) {
	logger.Output(2, "[WARN] "+fmt.Sprintf(format, args...))
}
