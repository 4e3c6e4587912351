package pad

import (
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simFixture(t *testing.T) (*Client, *Controller, *SimAdapter) {
	t.Helper()
	client := NewSimClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = client.Close() })

	ctrl, err := client.CreateDualShock4()
	require.NoError(t, err)
	return client, ctrl, client.adapter.(*SimAdapter)
}

func TestCreateSubmitsNeutralReport(t *testing.T) {
	_, ctrl, sim := simFixture(t)

	report := sim.LastReport(ctrl.handle)
	require.Len(t, report, ReportSize)
	assert.Equal(t, []byte{128, 128, 128, 128}, report[1:5])
	assert.Equal(t, uint64(1), sim.SubmitCount(ctrl.handle))
}

func TestStickMapping(t *testing.T) {
	cases := []struct {
		name string
		x, y float32
		bx   uint8
		by   uint8
	}{
		{"center", 0, 0, 127, 127},
		{"full left up", -1, -1, 0, 0},
		{"full right down", 1, 1, 255, 255},
		{"half right", 0.5, 0, 191, 127},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ctrl, sim := simFixture(t)
			require.NoError(t, ctrl.SetLeftStick(tc.x, tc.y))

			report := sim.LastReport(ctrl.handle)
			assert.Equal(t, tc.bx, report[1])
			assert.Equal(t, tc.by, report[2])
		})
	}
}

func TestTriggerMapping(t *testing.T) {
	_, ctrl, sim := simFixture(t)

	require.NoError(t, ctrl.SetRightTrigger(1.0))
	assert.Equal(t, uint8(255), sim.LastReport(ctrl.handle)[9])

	require.NoError(t, ctrl.SetRightTrigger(0.5))
	assert.Equal(t, uint8(127), sim.LastReport(ctrl.handle)[9])

	require.NoError(t, ctrl.SetLeftTrigger(0))
	assert.Equal(t, uint8(0), sim.LastReport(ctrl.handle)[8])
}

func TestPressRelease(t *testing.T) {
	_, ctrl, sim := simFixture(t)

	require.NoError(t, ctrl.Press(ButtonTriangle))
	require.NoError(t, ctrl.Press(ButtonR2))
	buttons := binary.LittleEndian.Uint16(sim.LastReport(ctrl.handle)[5:7])
	assert.Equal(t, uint16(ButtonTriangle|ButtonR2), buttons)

	require.NoError(t, ctrl.Release(ButtonTriangle))
	buttons = binary.LittleEndian.Uint16(sim.LastReport(ctrl.handle)[5:7])
	assert.Equal(t, uint16(ButtonR2), buttons)

	// Releasing an unpressed button is harmless.
	require.NoError(t, ctrl.Release(ButtonShare))
	buttons = binary.LittleEndian.Uint16(sim.LastReport(ctrl.handle)[5:7])
	assert.Equal(t, uint16(ButtonR2), buttons)
}

func TestDPad(t *testing.T) {
	_, ctrl, sim := simFixture(t)

	require.NoError(t, ctrl.SetDPad(DPadWest))
	assert.Equal(t, uint8(6), sim.LastReport(ctrl.handle)[7])

	err := ctrl.SetDPad(DPad(9))
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "dpad", invalid.Field)
	// Rejected input must not mutate or submit.
	assert.Equal(t, uint8(6), sim.LastReport(ctrl.handle)[7])
}

func TestOutOfRangeInputDoesNotMutate(t *testing.T) {
	_, ctrl, sim := simFixture(t)
	before := sim.SubmitCount(ctrl.handle)

	var invalid *InvalidInputError
	require.ErrorAs(t, ctrl.SetLeftStick(2.0, 0), &invalid)
	require.ErrorAs(t, ctrl.SetRightStick(0, -1.5), &invalid)
	require.ErrorAs(t, ctrl.SetLeftTrigger(-0.1), &invalid)
	require.ErrorAs(t, ctrl.SetRightTrigger(1.1), &invalid)

	assert.Equal(t, before, sim.SubmitCount(ctrl.handle))
	assert.Equal(t, StickCenter, ctrl.Snapshot().Report.LeftThumbX)
}

func TestReset(t *testing.T) {
	_, ctrl, sim := simFixture(t)

	require.NoError(t, ctrl.Press(ButtonCross))
	require.NoError(t, ctrl.SetLeftStick(1, 1))
	require.NoError(t, ctrl.SetRightTrigger(1))
	require.NoError(t, ctrl.SetLED(255, 0, 0))
	require.NoError(t, ctrl.Reset())

	state := ctrl.Snapshot()
	assert.Equal(t, NewReport(), state.Report)
	assert.Equal(t, uint8(0), state.LedRed)
	assert.Equal(t, DefaultLedBlue, state.LedBlue)

	report := sim.LastReport(ctrl.handle)
	assert.Equal(t, []byte{128, 128, 128, 128}, report[1:5])
	assert.Equal(t, []byte{0, 0}, report[8:10])
}

func TestClientCloseDisconnectsControllers(t *testing.T) {
	client := NewSimClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctrl, err := client.CreateDualShock4()
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, ctrl.Press(ButtonCross), ErrControllerDisconnected)

	_, err = client.CreateDualShock4()
	assert.ErrorIs(t, err, ErrControllerDisconnected)

	// Closing twice is a no-op.
	require.NoError(t, client.Close())
}

func TestClientCloseDetachesInReverseOrder(t *testing.T) {
	client := NewSimClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sim := client.adapter.(*SimAdapter)

	first, err := client.CreateDualShock4()
	require.NoError(t, err)
	second, err := client.CreateDualShock4()
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.Nil(t, sim.LastReport(first.handle))
	assert.Nil(t, sim.LastReport(second.handle))
}

func TestSimAdapterLifecycle(t *testing.T) {
	sim := NewSimAdapter()
	h, err := sim.Attach()
	require.NoError(t, err)

	require.NoError(t, sim.Submit(h, make([]byte, ReportSize)))
	assert.Error(t, sim.Submit(h, make([]byte, 10)), "short report rejected")

	require.NoError(t, sim.Detach(h))
	assert.Error(t, sim.Submit(h, make([]byte, ReportSize)), "detached target rejects submits")
	assert.Error(t, sim.Detach(h), "double detach is an error")

	require.NoError(t, sim.Close())
	_, err = sim.Attach()
	assert.Error(t, err, "closed adapter rejects attach")
}
