//go:build !windows && !darwin

package pad

import (
	"log/slog"
	"runtime"
)

func newPlatformAdapter(_ *slog.Logger) (Adapter, error) {
	return nil, &UnsupportedPlatformError{
		Platform: runtime.GOOS,
		Feature:  "virtual gamepad backend",
	}
}
