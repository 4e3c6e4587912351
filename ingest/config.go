// Package ingest maintains heartbeated UDP connections to one or more
// consoles, decodes incoming telemetry frames and fans them out to
// subscribers. One engine serves any number of peers; per peer, frames are
// published in receive order.
package ingest

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/simrig-tools/gtlink/telemetry"
)

// Config enumerates the engine settings. The struct tags let a kong CLI embed
// it directly; library callers can start from DefaultConfig.
type Config struct {
	ConsoleIP         string        `help:"Primary console IP address" default:"192.168.1.30" env:"GTLINK_CONSOLE_IP"`
	Port              uint16        `help:"Console telemetry port" default:"33740" env:"GTLINK_PORT"`
	Timeout           time.Duration `help:"Silence window after which a peer is considered stale" default:"5s" env:"GTLINK_TIMEOUT"`
	HeartbeatInterval time.Duration `help:"Keepalive cadence per peer" default:"100ms" env:"GTLINK_HEARTBEAT_INTERVAL"`
	EnableLogging     bool          `help:"Hex-dump every raw frame through the frame tap" default:"false" env:"GTLINK_ENABLE_LOGGING"`
	LogFilePath       string        `help:"Frame tap destination file (stdout when empty)" env:"GTLINK_LOG_FILE"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ConsoleIP:         "192.168.1.30",
		Port:              telemetry.TelemetryPort,
		Timeout:           5 * time.Second,
		HeartbeatInterval: 100 * time.Millisecond,
	}
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Port == 0 {
		return &telemetry.InvalidPortError{Port: c.Port}
	}
	if c.Timeout <= 0 {
		return &telemetry.ConfigError{Field: "timeout", Value: c.Timeout.String(), Reason: "must be positive"}
	}
	if c.HeartbeatInterval <= 0 {
		return &telemetry.ConfigError{Field: "heartbeat_interval", Value: c.HeartbeatInterval.String(), Reason: "must be positive"}
	}
	return nil
}

// ValidConsoleIP reports whether ip is a parseable IPv4 address inside the
// LAN ranges consoles live on. The telemetry protocol is LAN-only; anything
// routable is rejected up front.
func ValidConsoleIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return false
	}
	return strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "172.") ||
		ip == "127.0.0.1"
}

func peerAddr(ip string, port uint16) string {
	return net.JoinHostPort(ip, strconv.Itoa(int(port)))
}
