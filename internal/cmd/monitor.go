package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simrig-tools/gtlink/ingest"
	"github.com/simrig-tools/gtlink/telemetry"
)

// Monitor connects to a console and prints a rolling summary of the
// telemetry stream.
type Monitor struct {
	Telemetry ingest.Config `embed:"" prefix:"telemetry."`

	Raw      bool          `help:"Print one line per frame instead of the rolling summary"`
	Interval time.Duration `help:"Summary refresh cadence" default:"500ms"`
}

// Run is called by Kong when the monitor command is executed.
func (m *Monitor) Run(logger *slog.Logger) error {
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	engine, sub := ingest.New(m.Telemetry, logger)
	defer engine.Close()

	if err := engine.AddPeer(m.Telemetry.ConsoleIP, m.Telemetry.Port); err != nil {
		return fmt.Errorf("failed to register console: %w", err)
	}
	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start ingest: %w", err)
	}

	logger.Info("waiting for telemetry",
		"console", m.Telemetry.ConsoleIP,
		"port", m.Telemetry.Port)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	var last *telemetry.Frame
	var frames uint64
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", "frames", frames)
			return nil
		case tagged, ok := <-sub.C():
			if !ok {
				return nil
			}
			frames++
			last = &tagged.Frame
			if m.Raw {
				printFrame(tagged.Peer, &tagged.Frame)
			}
		case <-ticker.C:
			if m.Raw || last == nil {
				continue
			}
			printSummary(last, frames, sub.Dropped())
		}
	}
}

func printFrame(peer string, f *telemetry.Frame) {
	fmt.Printf("[%s] #%d %s %.1f km/h rpm=%.0f gear=%s fuel=%.1f%%\n",
		peer, f.PacketID, f.GameState.State,
		f.SpeedKMH(), f.Car.Engine.RPM,
		f.GearDisplay(), f.Car.Engine.FuelLevel*100)
}

func printSummary(f *telemetry.Frame, frames uint64, dropped uint64) {
	lap := "--:--.---"
	if d, ok := f.LastLapTime(); ok {
		lap = formatLap(d)
	}
	fmt.Printf("\r%-10s %7.1f km/h  rpm %5.0f  gear %-2s  fuel %5.1f%%  lap %s  %s %.1f°C  frames %d  dropped %d   ",
		f.GameState.State,
		f.SpeedKMH(), f.Car.Engine.RPM, f.GearDisplay(),
		f.Car.Engine.FuelLevel*100, lap,
		f.Track.Weather, f.Track.RoadTemperature,
		frames, dropped)
}

func formatLap(d time.Duration) string {
	mins := int(d.Minutes())
	secs := d - time.Duration(mins)*time.Minute
	return fmt.Sprintf("%d:%06.3f", mins, secs.Seconds())
}
