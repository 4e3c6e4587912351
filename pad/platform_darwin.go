//go:build darwin

package pad

import "log/slog"

func newPlatformAdapter(logger *slog.Logger) (Adapter, error) {
	return newIOKitAdapter(MethodSimulation, logger)
}
