package ingest_test

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simrig-tools/gtlink/ingest"
	"github.com/simrig-tools/gtlink/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() ingest.Config {
	cfg := ingest.DefaultConfig()
	cfg.ConsoleIP = "127.0.0.1"
	cfg.HeartbeatInterval = 20 * time.Millisecond
	cfg.Timeout = 200 * time.Millisecond
	return cfg
}

// sinkSocket plays the console: it receives heartbeats and can answer with
// telemetry frames.
func sinkSocket(t *testing.T) *net.UDPConn {
	t.Helper()
	sock, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	return sock
}

func validFrameBytes(t *testing.T, id uint32) []byte {
	t.Helper()
	f := telemetry.Frame{Version: telemetry.FrameVersion, PacketID: id}
	data, err := f.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ingest.Config)
		ok     bool
	}{
		{"defaults", func(c *ingest.Config) {}, true},
		{"zero port", func(c *ingest.Config) { c.Port = 0 }, false},
		{"zero timeout", func(c *ingest.Config) { c.Timeout = 0 }, false},
		{"negative heartbeat", func(c *ingest.Config) { c.HeartbeatInterval = -time.Second }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ingest.DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidConsoleIP(t *testing.T) {
	cases := []struct {
		ip string
		ok bool
	}{
		{"192.168.1.30", true},
		{"10.0.0.5", true},
		{"172.16.0.1", true},
		{"127.0.0.1", true},
		{"8.8.8.8", false},
		{"257.0.0.1", false},
		{"not-an-ip", false},
		{"::1", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ingest.ValidConsoleIP(tc.ip), "ip %q", tc.ip)
	}
}

func TestAddPeerRejectsInvalidIP(t *testing.T) {
	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	for _, ip := range []string{"8.8.8.8", "257.0.0.1", "garbage"} {
		err := engine.AddPeer(ip, 33740)
		var ipErr *telemetry.InvalidIPError
		assert.ErrorAs(t, err, &ipErr, "ip %q", ip)
	}
	assert.Empty(t, engine.Status())
}

func TestRemoveUnknownPeer(t *testing.T) {
	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	err := engine.RemovePeer("192.168.1.99")
	var netErr *telemetry.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestDoubleStart(t *testing.T) {
	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.Start())
	err := engine.Start()
	var cfgErr *telemetry.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	engine.Stop()
	// Stop leaves peers registered, so the engine is restartable.
	require.NoError(t, engine.Start())
}

func TestHeartbeatReachesPeer(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", port))
	require.NoError(t, engine.Start())

	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, telemetry.Heartbeat, buf[:n])
}

func TestFrameFlowsToSubscriber(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", port))
	require.NoError(t, engine.Start())

	// Wait for a heartbeat to learn the engine's source address, then answer
	// with a frame the way the console would.
	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, engineAddr, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)

	_, err = sink.WriteToUDP(validFrameBytes(t, 99), engineAddr)
	require.NoError(t, err)

	select {
	case tagged := <-sub.C():
		assert.Equal(t, "127.0.0.1", tagged.Peer)
		assert.Equal(t, uint32(99), tagged.Frame.PacketID)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never reached the subscriber")
	}

	assert.Equal(t, ingest.LivenessLive, engine.Status()["127.0.0.1"])
	assert.Equal(t, uint64(1), engine.PacketCount("127.0.0.1"))
}

func TestMalformedDatagramIsDiscarded(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	engine, sub := ingest.New(testConfig(), testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", port))
	require.NoError(t, engine.Start())

	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, engineAddr, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)

	// Too short, then bad magic: neither must surface on the bus.
	_, err = sink.WriteToUDP([]byte{1, 2, 3}, engineAddr)
	require.NoError(t, err)
	bad := validFrameBytes(t, 1)
	bad[0] ^= 0xFF
	_, err = sink.WriteToUDP(bad, engineAddr)
	require.NoError(t, err)

	select {
	case tagged := <-sub.C():
		t.Fatalf("unexpected frame published: %+v", tagged)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Zero(t, engine.PacketCount("127.0.0.1"))
}

func TestLivenessCycle(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	cfg := testConfig()
	cfg.Timeout = 300 * time.Millisecond
	engine, sub := ingest.New(cfg, testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", port))
	require.NoError(t, engine.Start())

	assert.Equal(t, ingest.LivenessUnknown, engine.Status()["127.0.0.1"])

	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, engineAddr, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)

	_, err = sink.WriteToUDP(validFrameBytes(t, 1), engineAddr)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return engine.Status()["127.0.0.1"] == ingest.LivenessLive
	}, 2*time.Second, 10*time.Millisecond, "first valid frame marks the peer live")

	// Stay silent past the timeout; the monitor's next 1 s tick flips the
	// peer to stale.
	require.Eventually(t, func() bool {
		return engine.Status()["127.0.0.1"] == ingest.LivenessStale
	}, 3*time.Second, 20*time.Millisecond, "silence past the timeout marks the peer stale")

	_, err = sink.WriteToUDP(validFrameBytes(t, 2), engineAddr)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return engine.Status()["127.0.0.1"] == ingest.LivenessLive
	}, 2*time.Second, 10*time.Millisecond, "a frame after staleness recovers the peer")
}

func TestHeartbeatCadence(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	cfg := testConfig()
	cfg.HeartbeatInterval = 50 * time.Millisecond
	engine, sub := ingest.New(cfg, testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", port))
	require.NoError(t, engine.Start())

	// Let the first heartbeat open the measurement window.
	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)

	const window = 1500 * time.Millisecond
	deadline := time.Now().Add(window)
	count := 0
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		require.NoError(t, sink.SetReadDeadline(time.Now().Add(remaining)))
		if _, _, err := sink.ReadFromUDP(buf); err != nil {
			break
		}
		count++
	}

	// 30 expected over 1.5 s at 50 ms. The due-check caps the rate at one
	// per interval, so overshoot is bounded; allow generous undershoot for
	// scheduler jitter.
	assert.GreaterOrEqual(t, count, 20, "heartbeats fell far below the configured cadence")
	assert.LessOrEqual(t, count, 32, "heartbeats exceeded the configured cadence")
}

func TestAddPeerZeroPortUsesConfigured(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	cfg := testConfig()
	cfg.Port = port
	engine, sub := ingest.New(cfg, testLogger())
	defer engine.Close()
	defer sub.Cancel()

	require.NoError(t, engine.AddPeer("127.0.0.1", 0))
	require.NoError(t, engine.Start())

	// The heartbeat must arrive on the configured port.
	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, telemetry.Heartbeat, buf[:n])
}

func TestSingleFacade(t *testing.T) {
	sink := sinkSocket(t)
	port := uint16(sink.LocalAddr().(*net.UDPAddr).Port)

	single, sub, err := ingest.NewSingle("127.0.0.1", port, testLogger())
	require.NoError(t, err)
	defer single.Close()
	defer sub.Cancel()

	assert.False(t, single.IsConnected())
	require.NoError(t, single.Start())

	buf := make([]byte, 16)
	require.NoError(t, sink.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, engineAddr, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	_, err = sink.WriteToUDP(validFrameBytes(t, 1), engineAddr)
	require.NoError(t, err)

	select {
	case <-sub.C():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	assert.True(t, single.IsConnected())
}

func TestSingleRejectsBadIP(t *testing.T) {
	_, _, err := ingest.NewSingle("8.8.8.8", 0, testLogger())
	var ipErr *telemetry.InvalidIPError
	require.ErrorAs(t, err, &ipErr)
}
