package pad

import (
	"fmt"
	"log/slog"
)

// State is a controller snapshot: the HID report plus the feedback values the
// host would render (light bar color and rumble motors).
type State struct {
	Report      Report
	LedRed      uint8
	LedGreen    uint8
	LedBlue     uint8
	RumbleLeft  uint8
	RumbleRight uint8
}

func neutralState() State {
	return State{
		Report:   NewReport(),
		LedRed:   DefaultLedRed,
		LedGreen: DefaultLedGreen,
		LedBlue:  DefaultLedBlue,
	}
}

// Controller is one virtual DualShock 4 bound to a client's adapter. Every
// successful mutation submits the updated report synchronously. Callers must
// serialize mutations; a controller is not safe for concurrent use.
type Controller struct {
	client *Client
	handle TargetHandle
	state  State
	logger *slog.Logger
	closed bool
}

// Press sets a button bit and submits.
func (c *Controller) Press(b Button) error {
	c.state.Report.Buttons |= uint16(b)
	return c.submit()
}

// Release clears a button bit and submits.
func (c *Controller) Release(b Button) error {
	c.state.Report.Buttons &^= uint16(b)
	return c.submit()
}

// SetDPad sets the hat switch code and submits.
func (c *Controller) SetDPad(d DPad) error {
	if d > DPadNone {
		return &InvalidInputError{
			Field:    "dpad",
			Expected: "0..8",
			Actual:   fmt.Sprintf("%d", d),
		}
	}
	c.state.Report.DPad = uint8(d)
	return c.submit()
}

// SetLeftStick maps x and y from [-1,1] to the report's byte axes and
// submits. The mapping truncates (v+1)*127.5, so a centered stick encodes as
// 127 even though the neutral report uses 128; both land on the same physical
// center once the OS dead zone applies.
func (c *Controller) SetLeftStick(x, y float32) error {
	if err := checkStick("left_stick", x, y); err != nil {
		return err
	}
	c.state.Report.LeftThumbX = stickByte(x)
	c.state.Report.LeftThumbY = stickByte(y)
	return c.submit()
}

// SetRightStick is SetLeftStick for the right stick.
func (c *Controller) SetRightStick(x, y float32) error {
	if err := checkStick("right_stick", x, y); err != nil {
		return err
	}
	c.state.Report.RightThumbX = stickByte(x)
	c.state.Report.RightThumbY = stickByte(y)
	return c.submit()
}

// SetLeftTrigger maps v from [0,1] to the trigger byte and submits.
func (c *Controller) SetLeftTrigger(v float32) error {
	if err := checkTrigger("left_trigger", v); err != nil {
		return err
	}
	c.state.Report.LeftTrigger = triggerByte(v)
	return c.submit()
}

// SetRightTrigger is SetLeftTrigger for the right trigger.
func (c *Controller) SetRightTrigger(v float32) error {
	if err := checkTrigger("right_trigger", v); err != nil {
		return err
	}
	c.state.Report.RightTrigger = triggerByte(v)
	return c.submit()
}

// SetLED updates the light bar color and submits.
func (c *Controller) SetLED(r, g, b uint8) error {
	c.state.LedRed, c.state.LedGreen, c.state.LedBlue = r, g, b
	return c.submit()
}

// Reset returns the controller to the neutral state (sticks 128, no buttons,
// hat switch released, triggers 0, blue LED, no rumble) and submits.
func (c *Controller) Reset() error {
	c.state = neutralState()
	return c.submit()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State { return c.state }

func (c *Controller) submit() error {
	if c.closed {
		return ErrControllerDisconnected
	}
	data, err := c.state.Report.MarshalBinary()
	if err != nil {
		return &UpdateError{Reason: "report serialization failed", Err: err}
	}
	return c.client.adapter.Submit(c.handle, data)
}

func checkStick(field string, x, y float32) error {
	if x < -1 || x > 1 || y < -1 || y > 1 {
		return &InvalidInputError{
			Field:    field,
			Expected: "-1.0 to 1.0",
			Actual:   fmt.Sprintf("(%g, %g)", x, y),
		}
	}
	return nil
}

func checkTrigger(field string, v float32) error {
	if v < 0 || v > 1 {
		return &InvalidInputError{
			Field:    field,
			Expected: "0.0 to 1.0",
			Actual:   fmt.Sprintf("%g", v),
		}
	}
	return nil
}

func stickByte(v float32) uint8 {
	return uint8((v + 1) * 127.5)
}

func triggerByte(v float32) uint8 {
	return uint8(v * 255)
}
