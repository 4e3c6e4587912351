// Package pad implements a virtual DualShock 4: a typed controller state
// model plus platform adapters that deliver the 64-byte HID input report to
// the operating system (ViGEm bus driver on Windows, user-space HID on macOS,
// an in-memory adapter everywhere for tests).
package pad

// Button is a DS4 button bit in the report's 16-bit mask.
type Button uint16

const (
	ButtonL1          Button = 0x0001
	ButtonR1          Button = 0x0002
	ButtonL2          Button = 0x0004
	ButtonR2          Button = 0x0008
	ButtonCross       Button = 0x0010
	ButtonCircle      Button = 0x0020
	ButtonSquare      Button = 0x0040
	ButtonTriangle    Button = 0x0080
	ButtonPlayStation Button = 0x0100
	ButtonTouchPad    Button = 0x0200
	ButtonThumbLeft   Button = 0x0400
	ButtonThumbRight  Button = 0x0800
	ButtonShare       Button = 0x1000
	ButtonOptions     Button = 0x2000
)

func (b Button) String() string {
	switch b {
	case ButtonL1:
		return "L1"
	case ButtonR1:
		return "R1"
	case ButtonL2:
		return "L2"
	case ButtonR2:
		return "R2"
	case ButtonCross:
		return "Cross"
	case ButtonCircle:
		return "Circle"
	case ButtonSquare:
		return "Square"
	case ButtonTriangle:
		return "Triangle"
	case ButtonPlayStation:
		return "PlayStation"
	case ButtonTouchPad:
		return "TouchPad"
	case ButtonThumbLeft:
		return "ThumbLeft"
	case ButtonThumbRight:
		return "ThumbRight"
	case ButtonShare:
		return "Share"
	case ButtonOptions:
		return "Options"
	default:
		return "Unknown"
	}
}

// DPad is the 4-bit hat switch code in the report.
type DPad uint8

const (
	DPadNorth     DPad = 0
	DPadNorthEast DPad = 1
	DPadEast      DPad = 2
	DPadSouthEast DPad = 3
	DPadSouth     DPad = 4
	DPadSouthWest DPad = 5
	DPadWest      DPad = 6
	DPadNorthWest DPad = 7
	DPadNone      DPad = 8
)

const (
	// ReportID is the DS4 input report identifier.
	ReportID uint8 = 0x01

	// ReportSize is the exact serialized report length. Go structs carry no
	// layout guarantee, so the report is serialized field-by-field into a
	// buffer of this size.
	ReportSize = 64

	// StickCenter is the neutral byte value of every stick axis.
	StickCenter uint8 = 128
)

// Default LED color: blue, matching the console's player-one light bar.
const (
	DefaultLedRed   uint8 = 0
	DefaultLedGreen uint8 = 0
	DefaultLedBlue  uint8 = 255
)
