package pad

import "log/slog"

// Client owns a backend adapter and the controllers attached through it.
type Client struct {
	adapter     Adapter
	controllers []*Controller
	logger      *slog.Logger
	closed      bool
}

// NewClient opens the native backend for the current platform. When no native
// backend exists (or its driver is missing) the client falls back to the
// in-process simulation adapter with a warning so callers still get a working
// handle.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	adapter, err := newPlatformAdapter(logger)
	if err != nil {
		logger.Warn("virtual gamepad backend unavailable, using simulation",
			slog.String("error", err.Error()))
		adapter = NewSimAdapter()
	}
	logger.Debug("gamepad client ready", slog.String("backend", adapter.Name()))
	return &Client{adapter: adapter, logger: logger}, nil
}

// NewSimClient returns a client bound to the simulation adapter regardless of
// platform. Useful for tests and for dry runs of input mappings.
func NewSimClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{adapter: NewSimAdapter(), logger: logger}
}

// Backend reports the name of the active adapter.
func (c *Client) Backend() string { return c.adapter.Name() }

// CreateDualShock4 attaches a new virtual DualShock 4 and pushes its neutral
// report so the host sees a centered pad immediately.
func (c *Client) CreateDualShock4() (*Controller, error) {
	if c.closed {
		return nil, ErrControllerDisconnected
	}
	handle, err := c.adapter.Attach()
	if err != nil {
		return nil, err
	}
	ctrl := &Controller{
		client: c,
		handle: handle,
		state:  neutralState(),
		logger: c.logger,
	}
	if err := ctrl.submit(); err != nil {
		_ = c.adapter.Detach(handle)
		return nil, err
	}
	c.controllers = append(c.controllers, ctrl)
	c.logger.Info("virtual DualShock 4 attached",
		slog.String("backend", c.adapter.Name()),
		slog.Int("controllers", len(c.controllers)))
	return ctrl, nil
}

// Close detaches every controller in reverse creation order, then releases
// the adapter. The client is unusable afterwards.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var firstErr error
	for i := len(c.controllers) - 1; i >= 0; i-- {
		ctrl := c.controllers[i]
		ctrl.closed = true
		if err := c.adapter.Detach(ctrl.handle); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.controllers = nil
	if err := c.adapter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
