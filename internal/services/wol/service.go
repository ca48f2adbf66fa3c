// Package wol provides Wake-on-LAN packet building and sending.
package wol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/fgeck/gowake/internal/models"
	"github.com/mdlayher/wol"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	// DefaultBroadcastIP is the limited broadcast address.
	DefaultBroadcastIP = "255.255.255.255"
	// DefaultPort is the UDP port magic packets are sent to.
	DefaultPort = 4000
	// MagicPacketSize is the size of a WOL magic packet (6 + 6*16 = 102 bytes).
	MagicPacketSize = 6 + 16*6 // 6x0xFF + 16 repetitions of MAC
)

// ErrInvalidAddress reports a token that is not a valid MAC address.
var ErrInvalidAddress = errors.New("invalid MAC address")

// macPattern matches exactly six hex pairs separated by ':' or '-'.
var macPattern = regexp.MustCompile(`^[0-9A-Fa-f]{2}([:-][0-9A-Fa-f]{2}){5}$`)

// macSeparators strips the group separators before hex decoding.
var macSeparators = strings.NewReplacer(":", "", "-", "")

// ParseMAC validates a candidate string against the six-hex-pair format and
// parses it into 6 raw bytes. It is stricter than net.ParseMAC, which also
// accepts dot-separated groups and longer EUI-64/InfiniBand addresses.
func ParseMAC(s string) (net.HardwareAddr, error) {
	if !macPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	mac, err := hex.DecodeString(macSeparators.Replace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	return net.HardwareAddr(mac), nil
}

// BuildMagicPacket assembles the 102-byte payload for the given MAC:
// 6 bytes of 0xFF followed by 16 repetitions of the address.
func BuildMagicPacket(target net.HardwareAddr) ([]byte, error) {
	mp := &wol.MagicPacket{Target: target}

	payload, err := mp.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("building magic packet for %s: %w", target, err)
	}

	return payload, nil
}

// Client abstracts the datagram transport for mocking.
type Client interface {
	Send(addr string, payload []byte) error
	Close() error
}

// BroadcastClient sends datagrams over a single UDP socket with broadcast
// transmission enabled.
type BroadcastClient struct {
	conn net.PacketConn
}

// NewBroadcastClient opens the UDP socket and sets SO_BROADCAST on it.
func NewBroadcastClient() (*BroadcastClient, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("opening UDP socket: %w", err)
	}

	if err := enableBroadcast(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &BroadcastClient{conn: conn}, nil
}

func enableBroadcast(conn net.PacketConn) error {
	udp, ok := conn.(*net.UDPConn)
	if !ok {
		return fmt.Errorf("unexpected connection type %T", conn)
	}

	raw, err := udp.SyscallConn()
	if err != nil {
		return fmt.Errorf("accessing raw socket: %w", err)
	}

	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return fmt.Errorf("socket control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("enabling SO_BROADCAST: %w", sockErr)
	}

	return nil
}

// Send transmits payload as a single datagram to addr.
func (c *BroadcastClient) Send(addr string, payload []byte) error {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", addr, err)
	}

	if _, err := c.conn.WriteTo(payload, udpAddr); err != nil {
		return fmt.Errorf("sending datagram to %s: %w", addr, err)
	}

	return nil
}

// Close releases the underlying socket.
func (c *BroadcastClient) Close() error {
	return c.conn.Close()
}

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Open() error
	Wake(cfg models.WakeConfig, candidate string) *models.WakeResult
	Close() error
}

// Impl implements the WOL Service interface.
type Impl struct {
	client Client
	logger zerolog.Logger
}

// New creates a new WOL service. The broadcast socket is not acquired
// until Open is called.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// NewWithClient creates a new WOL service with a custom client (for testing).
func NewWithClient(logger zerolog.Logger, client Client) *Impl {
	return &Impl{client: client, logger: logger}
}

// Open acquires the broadcast socket shared by all sends of one invocation.
func (s *Impl) Open() error {
	if s.client != nil {
		return nil
	}

	client, err := NewBroadcastClient()
	if err != nil {
		return err
	}

	s.client = client
	return nil
}

// Wake parses candidate as a MAC address, builds the magic packet and sends
// it. Per-target failures are stored in the result, never returned, so one
// bad target cannot abort the batch.
func (s *Impl) Wake(cfg models.WakeConfig, candidate string) *models.WakeResult {
	result := &models.WakeResult{MAC: candidate}

	if s.client == nil {
		result.Error = fmt.Errorf("broadcast socket not open")
		return result
	}

	mac, err := ParseMAC(candidate)
	if err != nil {
		result.Error = err
		return result
	}

	payload, err := BuildMagicPacket(mac)
	if err != nil {
		result.Error = err
		return result
	}

	addr := net.JoinHostPort(cfg.BroadcastIP, strconv.Itoa(cfg.Port))

	s.logger.Debug().
		Str("mac", mac.String()).
		Str("addr", addr).
		Int("bytes", len(payload)).
		Msg("sending magic packet")

	if err := s.client.Send(addr, payload); err != nil {
		result.Error = err
		return result
	}

	result.PacketSent = true
	s.logger.Info().
		Str("mac", mac.String()).
		Str("addr", addr).
		Msg("magic packet sent")

	return result
}

// Close releases the broadcast socket. Safe to call when Open never ran.
func (s *Impl) Close() error {
	if s.client == nil {
		return nil
	}

	err := s.client.Close()
	s.client = nil
	return err
}
