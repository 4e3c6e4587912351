package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/simrig-tools/gtlink/pad"
)

// Drive turns the terminal into a DualShock 4: WASD steers and accelerates,
// extra keys cover the face buttons. Useful for menu navigation and for
// verifying the virtual pad end to end.
type Drive struct {
	Sim bool `help:"Force the simulation backend even when a native driver is present"`
}

// Run is called by Kong when the drive command is executed.
func (d *Drive) Run(logger *slog.Logger) error {
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var client *pad.Client
	if d.Sim {
		client = pad.NewSimClient(logger)
	} else {
		var err error
		client, err = pad.NewClient(logger)
		if err != nil {
			return fmt.Errorf("failed to open gamepad backend: %w", err)
		}
	}
	defer client.Close()

	ctrl, err := client.CreateDualShock4()
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("drive requires an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("w/s throttle+brake, a/d steer, space handbrake, x cross, c circle, r reset, q quit\r\n")
	logger.Info("drive mode active", "backend", client.Backend())

	keys := make(chan byte)
	// The reader leaks on quit: a blocking os.Stdin.Read has no cancellation
	// path, and the process exits right after Run returns anyway.
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctrl.Reset()
		case k, ok := <-keys:
			if !ok {
				return ctrl.Reset()
			}
			if k == 'q' || k == 3 { // ctrl-c arrives as a byte in raw mode
				_ = ctrl.Reset()
				return nil
			}
			if err := applyKey(ctrl, k); err != nil {
				logger.Warn("input rejected", "key", string(k), "error", err)
			}
		}
	}
}

func applyKey(ctrl *pad.Controller, k byte) error {
	switch k {
	case 'w':
		return ctrl.SetRightTrigger(1.0)
	case 's':
		return ctrl.SetLeftTrigger(1.0)
	case 'a':
		return ctrl.SetLeftStick(-1.0, 0)
	case 'd':
		return ctrl.SetLeftStick(1.0, 0)
	case ' ':
		return pressRelease(ctrl, pad.ButtonSquare)
	case 'x':
		return pressRelease(ctrl, pad.ButtonCross)
	case 'c':
		return pressRelease(ctrl, pad.ButtonCircle)
	case 'r':
		return ctrl.Reset()
	default:
		// Any unmapped key recenters the inputs so taps behave like
		// momentary presses.
		if err := ctrl.SetLeftStick(0, 0); err != nil {
			return err
		}
		if err := ctrl.SetRightTrigger(0); err != nil {
			return err
		}
		return ctrl.SetLeftTrigger(0)
	}
}

func pressRelease(ctrl *pad.Controller, b pad.Button) error {
	if err := ctrl.Press(b); err != nil {
		return err
	}
	return ctrl.Release(b)
}
