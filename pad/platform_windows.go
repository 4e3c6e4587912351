//go:build windows

package pad

import "log/slog"

func newPlatformAdapter(logger *slog.Logger) (Adapter, error) {
	return newVigemAdapter(logger)
}
