package pad_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simrig-tools/gtlink/pad"
)

func TestNeutralReportBytes(t *testing.T) {
	r := pad.NewReport()
	data, err := r.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, pad.ReportSize)

	assert.Equal(t, uint8(0x01), data[0])
	assert.Equal(t, []byte{128, 128, 128, 128}, data[1:5], "sticks centered")
	assert.Zero(t, binary.LittleEndian.Uint16(data[5:7]), "no buttons")
	assert.Equal(t, uint8(pad.DPadNone), data[7], "hat switch released")
	assert.Equal(t, []byte{0, 0}, data[8:10], "triggers up")
	for i := 10; i < pad.ReportSize; i++ {
		assert.Zero(t, data[i], "byte %d", i)
	}
}

func TestReportFieldPlacement(t *testing.T) {
	r := pad.NewReport()
	r.Buttons = uint16(pad.ButtonTriangle | pad.ButtonL1)
	r.DPad = uint8(pad.DPadSouthWest)
	r.LeftTrigger = 10
	r.RightTrigger = 255
	r.Timestamp = 0x1234
	r.Battery = 0x0B
	r.GyroX = -2
	r.AccelZ = 300

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0081), binary.LittleEndian.Uint16(data[5:7]))
	assert.Equal(t, uint8(5), data[7])
	assert.Equal(t, uint8(10), data[8])
	assert.Equal(t, uint8(255), data[9])
	assert.Equal(t, uint16(0x1234), binary.LittleEndian.Uint16(data[10:12]))
	assert.Equal(t, uint8(0x0B), data[12])
	assert.Equal(t, int16(-2), int16(binary.LittleEndian.Uint16(data[13:15])))
	assert.Equal(t, int16(300), int16(binary.LittleEndian.Uint16(data[23:25])))
}

func TestButtonString(t *testing.T) {
	assert.Equal(t, "Cross", pad.ButtonCross.String())
	assert.Equal(t, "Options", pad.ButtonOptions.String())
	assert.Equal(t, "Unknown", pad.Button(0x4000).String())
}

func TestReportDescriptor(t *testing.T) {
	d := pad.ReportDescriptor

	// Generic desktop gamepad collection with report ID 1.
	assert.Equal(t, []byte{0x05, 0x01, 0x09, 0x05, 0xA1, 0x01, 0x85, 0x01}, d[:8])
	// Final input item and end of collection.
	assert.Equal(t, []byte{0x81, 0x02, 0xC0}, d[len(d)-3:])
}
