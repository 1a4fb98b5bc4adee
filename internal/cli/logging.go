package cli

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a console logger writing to w. verbose lowers the level
// to debug, which shows the per-request V(1) lines.
func newLogger(w io.Writer, level string, verbose bool) (logr.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("log_level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	zl := zap.New(core)
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
