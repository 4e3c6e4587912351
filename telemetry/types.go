// Package telemetry defines the Gran Turismo 7 telemetry frame model and its
// binary codec. A frame is one 296-byte little-endian UDP datagram; DecodeFrame
// and Frame.MarshalBinary are exact inverses for every field that is not
// governed by the optional-zero lap time rule.
package telemetry

import (
	"math"
	"strconv"
	"time"
)

// TelemetryPort is the console port frames are requested from.
const TelemetryPort uint16 = 33740

// Heartbeat is the single keepalive byte sent to the console to provoke the
// next frame.
var Heartbeat = []byte{'A'}

// Vector3 is a 3-component float32 vector as carried on the wire.
type Vector3 struct {
	X, Y, Z float32
}

// Magnitude returns the euclidean length of the vector.
func (v Vector3) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// GameStateType enumerates the console's reported game state.
type GameStateType uint8

const (
	StateInMenu  GameStateType = 0
	StateInRace  GameStateType = 1
	StatePaused  GameStateType = 2
	StateReplay  GameStateType = 3
	StateGarage  GameStateType = 4
	StateLoading GameStateType = 5
	StateUnknown GameStateType = 255
)

// GameStateFromByte maps a wire discriminant to a GameStateType. Unknown
// discriminants collapse to StateUnknown so newer consoles do not break older
// clients.
func GameStateFromByte(b uint8) GameStateType {
	switch GameStateType(b) {
	case StateInMenu, StateInRace, StatePaused, StateReplay, StateGarage, StateLoading:
		return GameStateType(b)
	default:
		return StateUnknown
	}
}

func (s GameStateType) String() string {
	switch s {
	case StateInMenu:
		return "in_menu"
	case StateInRace:
		return "in_race"
	case StatePaused:
		return "paused"
	case StateReplay:
		return "replay"
	case StateGarage:
		return "garage"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// WeatherCondition enumerates track weather.
type WeatherCondition uint8

const (
	WeatherClear     WeatherCondition = 0
	WeatherCloudy    WeatherCondition = 1
	WeatherLightRain WeatherCondition = 2
	WeatherHeavyRain WeatherCondition = 3
	WeatherFog       WeatherCondition = 4
	WeatherSnow      WeatherCondition = 5
	WeatherUnknown   WeatherCondition = 255
)

// WeatherFromByte maps a wire discriminant to a WeatherCondition, collapsing
// unknown values to WeatherUnknown.
func WeatherFromByte(b uint8) WeatherCondition {
	switch WeatherCondition(b) {
	case WeatherClear, WeatherCloudy, WeatherLightRain, WeatherHeavyRain, WeatherFog, WeatherSnow:
		return WeatherCondition(b)
	default:
		return WeatherUnknown
	}
}

func (w WeatherCondition) String() string {
	switch w {
	case WeatherClear:
		return "clear"
	case WeatherCloudy:
		return "cloudy"
	case WeatherLightRain:
		return "light_rain"
	case WeatherHeavyRain:
		return "heavy_rain"
	case WeatherFog:
		return "fog"
	case WeatherSnow:
		return "snow"
	default:
		return "unknown"
	}
}

// RaceInfo is present iff the game state is StateInRace. Lap times of zero on
// the wire decode to nil (absent).
type RaceInfo struct {
	CurrentLap    uint16
	TotalLaps     uint16
	Position      uint8
	Participants  uint8
	BestLapMS     *uint32
	LastLapMS     *uint32
	CurrentLapMS  uint32
	TrackProgress float32
}

// GameState carries the console's session state for a frame.
type GameState struct {
	State    GameStateType
	IsPaused bool
	IsReplay bool
	MenuID   uint32
	Race     *RaceInfo
}

// CarPosition groups the world-space vectors of the car.
type CarPosition struct {
	World           Vector3
	Velocity        Vector3
	AngularVelocity Vector3
	Rotation        Vector3
}

// TireData describes a single tire.
type TireData struct {
	Temperature      float32
	Wear             float32
	SuspensionTravel float32
	WheelSpeed       float32
	Radius           float32
}

// Tires holds the four corners in wire order.
type Tires struct {
	FrontLeft  TireData
	FrontRight TireData
	RearLeft   TireData
	RearRight  TireData
}

// EngineInfo describes drivetrain state. FuelLevel is computed at decode time
// as FuelRemaining/FuelCapacity, or 0 when capacity is 0.
type EngineInfo struct {
	RPM             float32
	MaxRPM          float32
	Throttle        float32
	Brake           float32
	Clutch          float32
	Gear            int8
	SuggestedGear   int8
	FuelRemaining   float32
	FuelConsumption float32
	FuelCapacity    float32
	FuelLevel       float32
}

// CarInfo groups position, tires and engine state.
type CarInfo struct {
	Position CarPosition
	Tires    Tires
	Engine   EngineInfo
}

// TrackInfo describes the circuit the frame was captured on. Name is UTF-8
// with the trailing NUL padding trimmed, at most 32 bytes on the wire.
type TrackInfo struct {
	ID              uint32
	Name            string
	Length          float32
	Altitude        float32
	Weather         WeatherCondition
	RoadTemperature float32
	AirTemperature  float32
	CurrentSector   uint8
	Wetness         float32
}

// Frame is one decoded telemetry snapshot. Frames are immutable once decoded
// and are shared by value on the fan-out channel.
type Frame struct {
	Version   uint16
	PacketID  uint32
	GameState GameState
	Car       CarInfo
	Track     TrackInfo
	Timestamp uint64
}

// SpeedKMH returns the car speed derived from the velocity vector.
func (f *Frame) SpeedKMH() float32 {
	return f.Car.Position.Velocity.Magnitude() * 3.6
}

// IsInRace reports whether the frame was captured during a race.
func (f *Frame) IsInRace() bool { return f.GameState.State == StateInRace }

// IsInMenu reports whether the frame was captured in a menu.
func (f *Frame) IsInMenu() bool { return f.GameState.State == StateInMenu }

// GearDisplay renders the gear the way the in-game HUD does: 0 is reverse,
// positive gears are decimal, anything else is neutral.
func (f *Frame) GearDisplay() string {
	switch g := f.Car.Engine.Gear; {
	case g == 0:
		return "R"
	case g > 0:
		return strconv.Itoa(int(g))
	default:
		return "N"
	}
}

// BestLapTime returns the best lap time, if one has been set this session.
func (f *Frame) BestLapTime() (time.Duration, bool) {
	r := f.GameState.Race
	if r == nil || r.BestLapMS == nil {
		return 0, false
	}
	return time.Duration(*r.BestLapMS) * time.Millisecond, true
}

// LastLapTime returns the previous lap time, if a lap has been completed.
func (f *Frame) LastLapTime() (time.Duration, bool) {
	r := f.GameState.Race
	if r == nil || r.LastLapMS == nil {
		return 0, false
	}
	return time.Duration(*r.LastLapMS) * time.Millisecond, true
}
