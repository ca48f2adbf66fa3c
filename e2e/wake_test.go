//go:build e2e

package e2e

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// startListener opens a loopback UDP socket standing in for the broadcast
// domain and returns it with the port it listens on.
func startListener(t *testing.T) (net.PacketConn, int) {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func receivePacket(t *testing.T, conn net.PacketConn) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	buf := make([]byte, 256)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	return buf[:n]
}

func assertNoPacket(t *testing.T, conn net.PacketConn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))

	buf := make([]byte, 256)
	_, _, err := conn.ReadFrom(buf)
	require.Error(t, err)
}

func assertMagicPacket(t *testing.T, payload []byte, mac net.HardwareAddr) {
	t.Helper()

	require.Len(t, payload, wol.MagicPacketSize)
	for i := 0; i < 6; i++ {
		assert.Equal(t, byte(0xFF), payload[i])
	}
	for rep := 0; rep < 16; rep++ {
		offset := 6 + rep*6
		assert.Equal(t, []byte(mac), payload[offset:offset+6])
	}
}

func testConfig(t *testing.T, port int) models.WakeConfig {
	t.Helper()

	return models.WakeConfig{
		BroadcastIP: "127.0.0.1",
		Port:        port,
		AliasFile:   filepath.Join(t.TempDir(), "aliases.json"),
	}
}

func TestWake_SingleTarget_E2E(t *testing.T) {
	conn, port := startListener(t)
	cfg := testConfig(t, port)

	summary, err := runner.New(testLogger()).Run(cfg, []string{"00-1F-D0-98-CD-44"})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 0, summary.Skipped)

	payload := receivePacket(t, conn)
	assertMagicPacket(t, payload, net.HardwareAddr{0x00, 0x1F, 0xD0, 0x98, 0xCD, 0x44})
}

func TestWake_MultipleTargets_InOrder_E2E(t *testing.T) {
	conn, port := startListener(t)
	cfg := testConfig(t, port)

	summary, err := runner.New(testLogger()).Run(cfg, []string{
		"00-1F-D0-98-CD-44",
		"00-1D-92-3B-C2-C8",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)

	first := receivePacket(t, conn)
	assertMagicPacket(t, first, net.HardwareAddr{0x00, 0x1F, 0xD0, 0x98, 0xCD, 0x44})

	second := receivePacket(t, conn)
	assertMagicPacket(t, second, net.HardwareAddr{0x00, 0x1D, 0x92, 0x3B, 0xC2, 0xC8})
}

func TestWake_AliasTarget_E2E(t *testing.T) {
	conn, port := startListener(t)
	cfg := testConfig(t, port)

	require.NoError(t, os.WriteFile(cfg.AliasFile, []byte(`{"Server3": "00-1D-92-3B-C2-C8"}`), 0o644))

	summary, err := runner.New(testLogger()).Run(cfg, []string{"Server3"})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "Server3", summary.Results[0].Target)

	payload := receivePacket(t, conn)
	assertMagicPacket(t, payload, net.HardwareAddr{0x00, 0x1D, 0x92, 0x3B, 0xC2, 0xC8})
}

func TestWake_UnresolvableToken_NoPacket_E2E(t *testing.T) {
	conn, port := startListener(t)
	cfg := testConfig(t, port)

	summary, err := runner.New(testLogger()).Run(cfg, []string{"not-a-mac"})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)

	assertNoPacket(t, conn)
}

func TestWake_MissingAliasFile_LiteralStillProcessed_E2E(t *testing.T) {
	conn, port := startListener(t)
	cfg := testConfig(t, port)
	cfg.AliasFile = filepath.Join(t.TempDir(), "absent.json")

	summary, err := runner.New(testLogger()).Run(cfg, []string{"00:1f:d0:98:cd:44"})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)

	payload := receivePacket(t, conn)
	assertMagicPacket(t, payload, net.HardwareAddr{0x00, 0x1F, 0xD0, 0x98, 0xCD, 0x44})
}

// RealWOL test - only runs if explicitly configured.
func TestRealWake_E2E(t *testing.T) {
	mac := os.Getenv("TEST_WOL_MAC")
	if mac == "" {
		t.Skip("TEST_WOL_MAC not set")
	}

	cfg := models.WakeConfig{
		BroadcastIP: wol.DefaultBroadcastIP,
		Port:        wol.DefaultPort,
	}

	summary, err := runner.New(testLogger()).Run(cfg, []string{mac})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}
