//go:build cgo_enabled

package framewriter

import (
	"strings"
	"sync"

	"github.com/asticode/go-astiav"
)

var runtimeOnce sync.Once

// InitializeRuntime performs the process-wide FFmpeg setup: log level and
// routing of the native log stream through the package logger. It is
// idempotent and safe to call from multiple writers; the first call wins.
func InitializeRuntime(debug bool) {
	runtimeOnce.Do(func() {
		if debug {
			astiav.SetLogLevel(astiav.LogLevelDebug)
			logger.SetLevel("debug")
		} else {
			astiav.SetLogLevel(astiav.LogLevelError)
		}

		astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, format, msg string) {
			msg = strings.TrimSpace(msg)
			if msg == "" {
				return
			}
			switch level {
			case astiav.LogLevelDebug, astiav.LogLevelVerbose:
				logger.Debugf("ffmpeg: %s", msg)
			case astiav.LogLevelInfo:
				logger.Infof("ffmpeg: %s", msg)
			case astiav.LogLevelWarning:
				logger.Warnf("ffmpeg: %s", msg)
			default:
				logger.Errorf("ffmpeg: %s", msg)
			}
		})
	})
}
