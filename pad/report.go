package pad

import "encoding/binary"

// Report is the DS4 HID input payload. It is the canonical source of truth
// for a controller; adapters only ever see its serialized form.
type Report struct {
	ReportID     uint8
	LeftThumbX   uint8
	LeftThumbY   uint8
	RightThumbX  uint8
	RightThumbY  uint8
	Buttons      uint16
	DPad         uint8
	LeftTrigger  uint8
	RightTrigger uint8
	Timestamp    uint16
	Battery      uint8
	GyroX        int16
	GyroY        int16
	GyroZ        int16
	AccelX       int16
	AccelY       int16
	AccelZ       int16
	Reserved     [5]uint8
	Extension    [12]uint8
}

// NewReport returns the neutral report: sticks centered, no buttons, hat
// switch released, triggers up.
func NewReport() Report {
	return Report{
		ReportID:    ReportID,
		LeftThumbX:  StickCenter,
		LeftThumbY:  StickCenter,
		RightThumbX: StickCenter,
		RightThumbY: StickCenter,
		DPad:        uint8(DPadNone),
	}
}

// Serialized byte offsets. The trailing bytes up to ReportSize stay zero.
const (
	repOffID        = 0
	repOffSticks    = 1
	repOffButtons   = 5
	repOffDPad      = 7
	repOffTriggers  = 8
	repOffTimestamp = 10
	repOffBattery   = 12
	repOffGyro      = 13
	repOffAccel     = 19
	repOffReserved  = 25
	repOffExtension = 30
)

// MarshalBinary packs the report into exactly ReportSize bytes with no
// inter-field padding, little-endian throughout.
func (r *Report) MarshalBinary() ([]byte, error) {
	b := make([]byte, ReportSize)

	b[repOffID] = r.ReportID
	b[repOffSticks] = r.LeftThumbX
	b[repOffSticks+1] = r.LeftThumbY
	b[repOffSticks+2] = r.RightThumbX
	b[repOffSticks+3] = r.RightThumbY
	binary.LittleEndian.PutUint16(b[repOffButtons:], r.Buttons)
	b[repOffDPad] = r.DPad
	b[repOffTriggers] = r.LeftTrigger
	b[repOffTriggers+1] = r.RightTrigger
	binary.LittleEndian.PutUint16(b[repOffTimestamp:], r.Timestamp)
	b[repOffBattery] = r.Battery

	binary.LittleEndian.PutUint16(b[repOffGyro:], uint16(r.GyroX))
	binary.LittleEndian.PutUint16(b[repOffGyro+2:], uint16(r.GyroY))
	binary.LittleEndian.PutUint16(b[repOffGyro+4:], uint16(r.GyroZ))
	binary.LittleEndian.PutUint16(b[repOffAccel:], uint16(r.AccelX))
	binary.LittleEndian.PutUint16(b[repOffAccel+2:], uint16(r.AccelY))
	binary.LittleEndian.PutUint16(b[repOffAccel+4:], uint16(r.AccelZ))

	copy(b[repOffReserved:], r.Reserved[:])
	copy(b[repOffExtension:], r.Extension[:])

	return b, nil
}
