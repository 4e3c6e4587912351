package telemetry

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	// FrameSize is the exact length of a telemetry datagram.
	FrameSize = 296

	// FrameMagic is the little-endian u32 at offset 0 ("SP7G" on the wire).
	FrameMagic uint32 = 0x47375053

	// FrameVersion is the only wire version this codec accepts.
	FrameVersion uint16 = 1
)

// Fixed section offsets. The codec addresses sections independently rather
// than chaining one stream read, so each section is testable (and fuzzable)
// on its own. The car section runs sequentially from offsetCar and its engine
// tail reaches past offsetTrack; the track section is authoritative over the
// overlapping bytes, matching the console's writer.
const (
	offsetMagic     = 0
	offsetVersion   = 4
	offsetPacketID  = 6
	offsetGameState = 10
	offsetRaceInfo  = 17
	offsetCar       = 50
	offsetTrack     = 200
	offsetTimestamp = 280
)

// DecodeFrame parses a 296-byte telemetry datagram. It is pure and
// deterministic; all multi-byte fields are little-endian.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) != FrameSize {
		return nil, &IncompleteDataError{Expected: FrameSize, Actual: len(data)}
	}

	if magic := binary.LittleEndian.Uint32(data[offsetMagic:]); magic != FrameMagic {
		return nil, &FormatError{Field: "magic"}
	}

	version := binary.LittleEndian.Uint16(data[offsetVersion:])
	if version != FrameVersion {
		return nil, &VersionMismatchError{Expected: FrameVersion, Actual: version}
	}

	f := &Frame{
		Version:   version,
		PacketID:  binary.LittleEndian.Uint32(data[offsetPacketID:]),
		Timestamp: binary.LittleEndian.Uint64(data[offsetTimestamp:]),
	}

	decodeGameState(data, &f.GameState)
	decodeCar(data[offsetCar:], &f.Car)
	decodeTrack(data[offsetTrack:], &f.Track)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler via DecodeFrame.
func (f *Frame) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// Validate applies the post-decode range checks. Gear values outside a
// sensible range are deliberately not rejected; display logic maps them.
func (f *Frame) Validate() error {
	if f.Version != FrameVersion {
		return &VersionMismatchError{Expected: FrameVersion, Actual: f.Version}
	}
	if !inUnitRange(f.Car.Engine.Throttle) {
		return &FormatError{Field: "throttle"}
	}
	if !inUnitRange(f.Car.Engine.Brake) {
		return &FormatError{Field: "brake"}
	}
	if !inUnitRange(f.Track.Wetness) {
		return &FormatError{Field: "wetness"}
	}
	return nil
}

func inUnitRange(v float32) bool { return v >= 0 && v <= 1 }

func decodeGameState(data []byte, gs *GameState) {
	gs.State = GameStateFromByte(data[offsetGameState])
	gs.IsPaused = data[offsetGameState+1] != 0
	gs.IsReplay = data[offsetGameState+2] != 0
	gs.MenuID = binary.LittleEndian.Uint32(data[offsetGameState+3:])

	if gs.State == StateInRace {
		gs.Race = decodeRaceInfo(data[offsetRaceInfo:])
	} else {
		gs.Race = nil
	}
}

func decodeRaceInfo(b []byte) *RaceInfo {
	r := &RaceInfo{
		CurrentLap:   binary.LittleEndian.Uint16(b[0:]),
		TotalLaps:    binary.LittleEndian.Uint16(b[2:]),
		Position:     b[4],
		Participants: b[5],
	}
	// Lap times of zero mean "not set yet".
	if v := binary.LittleEndian.Uint32(b[6:]); v > 0 {
		r.BestLapMS = &v
	}
	if v := binary.LittleEndian.Uint32(b[10:]); v > 0 {
		r.LastLapMS = &v
	}
	r.CurrentLapMS = binary.LittleEndian.Uint32(b[14:])
	r.TrackProgress = readF32(b[18:])
	return r
}

func decodeCar(b []byte, c *CarInfo) {
	c.Position.World = readVec3(b[0:])
	c.Position.Velocity = readVec3(b[12:])
	c.Position.Rotation = readVec3(b[24:])
	c.Position.AngularVelocity = readVec3(b[36:])

	c.Tires.FrontLeft = readTire(b[48:])
	c.Tires.FrontRight = readTire(b[68:])
	c.Tires.RearLeft = readTire(b[88:])
	c.Tires.RearRight = readTire(b[108:])

	e := &c.Engine
	e.FuelRemaining = readF32(b[128:])
	e.FuelCapacity = readF32(b[132:])
	e.RPM = readF32(b[136:])
	e.MaxRPM = readF32(b[140:])
	e.Throttle = readF32(b[144:])
	e.Brake = readF32(b[148:])
	e.Clutch = readF32(b[152:])
	e.Gear = int8(b[156])
	e.SuggestedGear = int8(b[157])
	e.FuelConsumption = readF32(b[158:])
	if e.FuelCapacity > 0 {
		e.FuelLevel = e.FuelRemaining / e.FuelCapacity
	} else {
		e.FuelLevel = 0
	}
}

func decodeTrack(b []byte, t *TrackInfo) {
	t.ID = binary.LittleEndian.Uint32(b[0:])
	t.Length = readF32(b[4:])
	t.Altitude = readF32(b[8:])
	t.Weather = WeatherFromByte(b[12])
	t.RoadTemperature = readF32(b[13:])
	t.AirTemperature = readF32(b[17:])
	t.CurrentSector = b[21]
	t.Wetness = readF32(b[22:])

	name := b[26 : 26+32]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	t.Name = string(name)
}

// MarshalBinary renders the frame back into its 296-byte wire form. Sections
// are written in ascending offset order, so the track section owns the bytes
// it shares with the car engine tail, exactly as on decode.
func (f *Frame) MarshalBinary() ([]byte, error) {
	b := make([]byte, FrameSize)

	binary.LittleEndian.PutUint32(b[offsetMagic:], FrameMagic)
	binary.LittleEndian.PutUint16(b[offsetVersion:], f.Version)
	binary.LittleEndian.PutUint32(b[offsetPacketID:], f.PacketID)

	b[offsetGameState] = uint8(f.GameState.State)
	b[offsetGameState+1] = boolByte(f.GameState.IsPaused)
	b[offsetGameState+2] = boolByte(f.GameState.IsReplay)
	binary.LittleEndian.PutUint32(b[offsetGameState+3:], f.GameState.MenuID)

	if f.GameState.State == StateInRace && f.GameState.Race != nil {
		encodeRaceInfo(b[offsetRaceInfo:], f.GameState.Race)
	}

	encodeCar(b[offsetCar:], &f.Car)
	encodeTrack(b[offsetTrack:], &f.Track)

	binary.LittleEndian.PutUint64(b[offsetTimestamp:], f.Timestamp)
	return b, nil
}

func encodeRaceInfo(b []byte, r *RaceInfo) {
	binary.LittleEndian.PutUint16(b[0:], r.CurrentLap)
	binary.LittleEndian.PutUint16(b[2:], r.TotalLaps)
	b[4] = r.Position
	b[5] = r.Participants
	if r.BestLapMS != nil {
		binary.LittleEndian.PutUint32(b[6:], *r.BestLapMS)
	}
	if r.LastLapMS != nil {
		binary.LittleEndian.PutUint32(b[10:], *r.LastLapMS)
	}
	binary.LittleEndian.PutUint32(b[14:], r.CurrentLapMS)
	putF32(b[18:], r.TrackProgress)
}

func encodeCar(b []byte, c *CarInfo) {
	putVec3(b[0:], c.Position.World)
	putVec3(b[12:], c.Position.Velocity)
	putVec3(b[24:], c.Position.Rotation)
	putVec3(b[36:], c.Position.AngularVelocity)

	putTire(b[48:], c.Tires.FrontLeft)
	putTire(b[68:], c.Tires.FrontRight)
	putTire(b[88:], c.Tires.RearLeft)
	putTire(b[108:], c.Tires.RearRight)

	e := &c.Engine
	putF32(b[128:], e.FuelRemaining)
	putF32(b[132:], e.FuelCapacity)
	putF32(b[136:], e.RPM)
	putF32(b[140:], e.MaxRPM)
	putF32(b[144:], e.Throttle)
	putF32(b[148:], e.Brake)
	putF32(b[152:], e.Clutch)
	b[156] = uint8(e.Gear)
	b[157] = uint8(e.SuggestedGear)
	putF32(b[158:], e.FuelConsumption)
}

func encodeTrack(b []byte, t *TrackInfo) {
	binary.LittleEndian.PutUint32(b[0:], t.ID)
	putF32(b[4:], t.Length)
	putF32(b[8:], t.Altitude)
	b[12] = uint8(t.Weather)
	putF32(b[13:], t.RoadTemperature)
	putF32(b[17:], t.AirTemperature)
	b[21] = t.CurrentSector
	putF32(b[22:], t.Wetness)

	name := b[26 : 26+32]
	for i := range name {
		name[i] = 0
	}
	copy(name, t.Name)
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func readVec3(b []byte) Vector3 {
	return Vector3{X: readF32(b[0:]), Y: readF32(b[4:]), Z: readF32(b[8:])}
}

func putVec3(b []byte, v Vector3) {
	putF32(b[0:], v.X)
	putF32(b[4:], v.Y)
	putF32(b[8:], v.Z)
}

func readTire(b []byte) TireData {
	return TireData{
		Temperature:      readF32(b[0:]),
		Wear:             readF32(b[4:]),
		SuspensionTravel: readF32(b[8:]),
		WheelSpeed:       readF32(b[12:]),
		Radius:           readF32(b[16:]),
	}
}

func putTire(b []byte, t TireData) {
	putF32(b[0:], t.Temperature)
	putF32(b[4:], t.Wear)
	putF32(b[8:], t.SuspensionTravel)
	putF32(b[12:], t.WheelSpeed)
	putF32(b[16:], t.Radius)
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
