// Package netdimm is a client driver for the proprietary TCP protocol used
// to load and control game images on NetDIMM arcade cartridge emulators. It
// exposes three high-level operations — Info, Send, and Reboot — plus the
// supplemental Download read-back, over a connection-per-operation TCP
// session on port 10703.
package netdimm

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/softdrink117/go-netdimm/internal/command"
	"github.com/softdrink117/go-netdimm/internal/neterr"
	"github.com/softdrink117/go-netdimm/internal/netmetrics"
	"github.com/softdrink117/go-netdimm/internal/session"
	"github.com/softdrink117/go-netdimm/internal/stream"
	"github.com/softdrink117/go-netdimm/internal/target"
	"github.com/softdrink117/go-netdimm/internal/types"
	"github.com/softdrink117/go-netdimm/internal/upload"
)

// sentBytes counts upload bytes across all of a Client's Send calls; it is
// never reset. It satisfies
// netmetrics.ByteSource so a Client's upload throughput can be sampled over
// 10s/30s/300s windows while Send is in flight.
type sentBytes struct{ n uint64 }

func (s *sentBytes) TotalBytes() uint64 { return atomic.LoadUint64(&s.n) }
func (s *sentBytes) add(n int)          { atomic.AddUint64(&s.n, uint64(n)) }

// Target identifies the hardware family a NetDIMM is driving.
type Target = types.Target

// Target values. TargetNaomi is the default.
const (
	TargetNaomi    = types.TargetNaomi
	TargetChihiro  = types.TargetChihiro
	TargetTriforce = types.TargetTriforce
)

// FirmwareVersion identifies a NetDIMM firmware revision.
type FirmwareVersion = types.FirmwareVersion

// FirmwareVersion values. FirmwareUnknown is the default.
const (
	FirmwareUnknown = types.FirmwareUnknown
	Firmware1_07    = types.Firmware1_07
	Firmware2_03    = types.Firmware2_03
	Firmware2_15    = types.Firmware2_15
	Firmware3_01    = types.Firmware3_01
	Firmware4_01    = types.Firmware4_01
	Firmware4_02    = types.Firmware4_02
)

// DeviceInfo is the decoded reply to a get-info query.
type DeviceInfo = types.DeviceInfo

// ErrorKind classifies a driver Error.
type ErrorKind = neterr.Kind

// Error kinds, as named in the driver's error handling design.
const (
	ErrorConnection       = neterr.Connection
	ErrorProtocol         = neterr.Protocol
	ErrorInvalidArgument  = neterr.InvalidArgument
	ErrorUnsupportedTarget = neterr.UnsupportedTarget
)

// Error is a driver error: a Kind, the operation it occurred in, and an
// optional underlying cause. Use errors.Is against the sentinels below to
// test for a particular kind.
type Error = neterr.Error

// Sentinels usable with errors.Is(err, netdimm.ErrConnection), etc.
var (
	ErrConnection       = neterr.ErrConnection
	ErrProtocol         = neterr.ErrProtocol
	ErrInvalidArgument  = neterr.ErrInvalidArgument
	ErrUnsupportedTarget = neterr.ErrUnsupportedTarget
)

// ProgressFunc is called with (done, total) bytes before each upload chunk
// is sent. It is advisory: it must not mutate the Client or issue new
// operations.
type ProgressFunc func(done, total int)

// Client drives one NetDIMM over TCP. A Client is not safe for concurrent
// use by more than one goroutine at a time (§5): it owns at most one
// session's socket for the duration of one public call.
type Client struct {
	ip      string
	target  types.Target
	version types.FirmwareVersion
	quiet   bool

	dial session.Dialer

	registerer prometheus.Registerer
	metrics    *netmetrics.Collector

	sent       sentBytes
	throughput netmetrics.Throughput
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithTarget sets the hardware target family. Default TargetNaomi.
func WithTarget(t Target) Option {
	return func(c *Client) { c.target = t }
}

// WithFirmwareVersion sets the known firmware version up front (e.g. when
// the caller already queried Info and wants Reboot's boot-ID patch to use
// it). Default FirmwareUnknown.
func WithFirmwareVersion(v FirmwareVersion) Option {
	return func(c *Client) { c.version = v }
}

// WithQuiet suppresses the driver's Trace-level session connect/close logging.
// It has no effect on the ProgressFunc callback contract.
func WithQuiet(quiet bool) Option {
	return func(c *Client) { c.quiet = quiet }
}

// WithMetricsRegisterer wires optional Prometheus instrumentation
// (connection byte/chunk counters, and on Linux, live TCP_INFO RTT and
// retransmit samples) into reg. Without this option, no metrics are
// collected.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.registerer = reg }
}

// withDialer overrides the transport dialer. Unexported: it exists only for
// this package's own tests to point a Client at a fake device instead of a
// real socket.
func withDialer(dial session.Dialer) Option {
	return func(c *Client) { c.dial = dial }
}

// New builds a Client targeting the NetDIMM at ip.
func New(ip string, opts ...Option) *Client {
	c := &Client{
		ip:      ip,
		target:  types.TargetNaomi,
		version: types.FirmwareUnknown,
		dial:    stream.Dial,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.throughput = netmetrics.NewThroughput(&c.sent)

	if c.registerer != nil {
		c.metrics = netmetrics.New(prometheus.Labels{
			"target": c.target.String(),
		})
		c.registerer.MustRegister(c.metrics)
	}

	return c
}

func (c *Client) openSession() (*session.Session, error) {
	sess, err := session.Open(c.dial, c.ip, c.quiet)
	if c.metrics != nil && sess != nil && sess.Stream() != nil && sess.Stream().Conn() != nil {
		c.metrics.Track(sess.Stream().Conn(), sess.Cid())
	}
	return sess, err
}

func (c *Client) closeSession(sess *session.Session) {
	if sess == nil {
		return
	}
	if c.metrics != nil && sess.Stream() != nil && sess.Stream().Conn() != nil {
		c.metrics.Untrack(sess.Stream().Conn())
	}
	_ = sess.Close()
}

// Info opens a session, queries device info, and closes the session.
func (c *Client) Info() (DeviceInfo, error) {
	sess, err := c.openSession()
	defer c.closeSession(sess)
	if err != nil {
		return DeviceInfo{}, err
	}

	return command.GetInfo(sess)
}

// Send uploads data, optionally DES-encrypting it end-to-end with key, and
// reports progress through progress if non-nil. data must be non-empty; if
// key is set, data's length must be a multiple of 8.
func (c *Client) Send(data []byte, key *[8]byte, progress ProgressFunc) error {
	if len(data) == 0 {
		return neterr.New(neterr.InvalidArgument, "netdimm.Send: data must be non-empty")
	}
	if key != nil && len(data)%8 != 0 {
		return neterr.New(neterr.InvalidArgument, "netdimm.Send: encrypted data length must be a multiple of 8")
	}

	sess, err := c.openSession()
	defer c.closeSession(sess)
	if err != nil {
		return err
	}

	if progress != nil {
		progress(0, len(data))
	}

	c.throughput.Start()

	// Reboot and display "NOW LOADING..." on the cabinet screen.
	if _, err := command.ExchangeHostMode(sess, 0x00, 1); err != nil {
		return err
	}

	var keyBytes [8]byte
	if key != nil {
		keyBytes = *key
	}
	if err := command.SetKeyCode(sess, keyBytes); err != nil {
		return err
	}

	wrapped := upload.ProgressFunc(func(done, total int) {
		c.reportChunk(sess, done, total)
		if progress != nil {
			progress(done, total)
		}
	})

	return upload.Run(sess, data, key, wrapped)
}

func (c *Client) reportChunk(sess *session.Session, done, total int) {
	end := done + upload.ChunkSize
	if end > total {
		end = total
	}
	c.sent.add(end - done)

	if c.metrics == nil || sess.Stream() == nil || sess.Stream().Conn() == nil {
		return
	}
	conn := sess.Stream().Conn()
	c.metrics.AddChunk(conn)
	c.metrics.AddBytes(conn, end-done)
}

// Throughput reports upload byte rate over trailing 10s/30s/300s windows,
// plus the lifetime average, for the Send call currently or most recently
// in flight. A single Send rarely runs long enough to fill the widest
// window; it exists for callers that drive one Client across many Send
// calls back to back.
func (c *Client) Throughput() (bps10s, bps30s, bps300s, average float64) {
	return c.throughput.BPS10s(), c.throughput.BPS30s(), c.throughput.BPS300s(), c.throughput.Average()
}

// Reboot restarts the host into the loaded game, sends a boot time limit of
// 10 minutes (a value the device replaces with its 60-second default), and
// — on TargetTriforce — applies the boot-ID bypass
// patch for the Client's configured FirmwareVersion.
func (c *Client) Reboot() error {
	sess, err := c.openSession()
	defer c.closeSession(sess)
	if err != nil {
		return err
	}

	if err := command.Restart(sess); err != nil {
		return err
	}
	if err := command.SetTimeLimit(sess, 10); err != nil {
		return err
	}

	if c.target == types.TargetTriforce {
		if err := target.ApplyBootIDPatch(sess, c.version); err != nil {
			return err
		}
	}
	return nil
}

// ExchangeDimmMode opens a session and round-trips the dimm-mode exchange
// command (packet 0x08). It is observed to have no functional effect on any
// tested firmware but is present on the wire in every firmware revision;
// exposed for completeness and diagnostics, not part of the three-operation
// facade.
func (c *Client) ExchangeDimmMode(mask, set uint8) (uint8, error) {
	sess, err := c.openSession()
	defer c.closeSession(sess)
	if err != nil {
		return 0, err
	}
	return command.ExchangeDimmMode(sess, mask, set)
}

// Download reads size bytes back from DIMM memory starting at addr. This is
// the original tool's verify-after-upload path (spec.md's supplemented
// features); it is not part of the original three-operation facade.
func (c *Client) Download(addr, size uint32) ([]byte, error) {
	sess, err := c.openSession()
	defer c.closeSession(sess)
	if err != nil {
		return nil, err
	}
	return command.Download(sess, addr, size)
}
