package notify

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/healthbeacon/internal/monitor"
	"github.com/turtacn/healthbeacon/pkg/consts"
	"github.com/turtacn/healthbeacon/pkg/errors"
	"github.com/turtacn/healthbeacon/pkg/logger"
	"github.com/turtacn/healthbeacon/pkg/protocol"
)

// Payload returns the wire form of a verdict.
func Payload(healthy bool) []byte {
	if healthy {
		return []byte(consts.PayloadHealthy)
	}
	return []byte(consts.PayloadUnhealthy)
}

// Dispatcher relays verdicts over the FIFO and UDP channels. Each channel is
// best effort: failures are logged and never reach the caller or the other channel.
type Dispatcher struct {
	cfg protocol.NotifierConfig

	log  logger.Logger
	mu   sync.Mutex
	port int // resolved UDP port, 0 until known

	fifoDone func(error)
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used by both channels.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// withFIFODone registers fn to run when a FIFO write goroutine exits.
func withFIFODone(fn func(error)) Option {
	return func(d *Dispatcher) { d.fifoDone = fn }
}

// New creates a Dispatcher for cfg. Unless WithLogger is given, it logs to
// the global logger as set at construction time.
func New(cfg protocol.NotifierConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{cfg: cfg, log: logger.Log}
	if cfg.NotifyPort != nil {
		d.port = *cfg.NotifyPort
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify sends healthy on every configured channel. fallbackPort is the
// server's own port, used for UDP when no port is configured. The first
// positive fallback is kept for the life of the Dispatcher.
//
// The FIFO write runs on its own goroutine because opening a FIFO blocks
// until a reader attaches. The UDP send runs inline, bounded by the UDP timeout.
func (d *Dispatcher) Notify(healthy bool, fallbackPort int) {
	if d.cfg.NotifyFIFO != "" {
		go func() {
			err := d.guard(consts.ChannelFIFO, func() error {
				return d.writeFIFO(healthy)
			})
			if d.fifoDone != nil {
				d.fifoDone(err)
			}
		}()
	}

	port := d.resolvePort(fallbackPort)
	if port <= 0 {
		d.log.Debug("Notify: no UDP port configured, skipping datagram")
		return
	}
	d.guard(consts.ChannelUDP, func() error {
		return d.sendUDP(healthy, port)
	})
}

func (d *Dispatcher) resolvePort(fallback int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == 0 && fallback > 0 {
		d.port = fallback
	}
	return d.port
}

// guard runs one channel, recording and logging its outcome. A panic inside
// the channel is converted to an error.
func (d *Dispatcher) guard(channel string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		monitor.NotificationsTotal.WithLabelValues(channel, monitor.Result(err)).Inc()
		if err != nil {
			d.log.Error("Notify: channel failed", "channel", channel, "err", err)
		}
	}()
	return fn()
}

// writeFIFO writes the payload to the configured path. The file is created if
// missing and always closed.
func (d *Dispatcher) writeFIFO(healthy bool) (err error) {
	path := d.cfg.NotifyFIFO

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.New(errors.ErrCodeFIFOOpen, "NotifyFIFO", "unable to open "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			cerr = errors.New(errors.ErrCodeFIFOClose, "NotifyFIFO", "unable to close "+path, cerr)
			if err == nil {
				err = cerr
			} else {
				d.log.Error("Notify: channel failed", "channel", consts.ChannelFIFO, "err", cerr)
			}
		}
	}()

	if _, err := f.Write(Payload(healthy)); err != nil {
		return errors.New(errors.ErrCodeFIFOWrite, "NotifyFIFO", "unable to write status to "+path, err)
	}
	d.log.Debug("Notify: status written", "channel", consts.ChannelFIFO, "path", path, "healthy", healthy)
	return nil
}

// sendUDP resolves the host, opens an ephemeral socket and sends one datagram.
// Resolution, socket creation and sending fail with distinct error codes.
func (d *Dispatcher) sendUDP(healthy bool, port int) error {
	host := d.cfg.Address()
	timeout := d.cfg.Timeout()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return errors.New(errors.ErrCodeUDPResolve, "NotifyUDP", "unable to resolve "+host, err)
	}
	ip, ok := pickAddr(ips)
	if !ok {
		return errors.New(errors.ErrCodeUDPResolve, "NotifyUDP", "no addresses for "+host, nil)
	}
	dst := &net.UDPAddr{IP: ip.IP, Port: port, Zone: ip.Zone}

	conn, err := net.ListenUDP(network(dst.IP), nil)
	if err != nil {
		return errors.New(errors.ErrCodeUDPSocket, "NotifyUDP", "unable to create datagram socket", err)
	}
	defer conn.Close()

	target := net.JoinHostPort(host, strconv.Itoa(port))
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return errors.New(errors.ErrCodeUDPSocket, "NotifyUDP", "unable to set deadline", err)
	}
	if _, err := conn.WriteToUDP(Payload(healthy), dst); err != nil {
		return errors.New(errors.ErrCodeUDPSend, "NotifyUDP", "unable to send datagram packet to "+target, err)
	}
	d.log.Debug("Notify: datagram sent", "channel", consts.ChannelUDP, "target", target, "healthy", healthy)
	return nil
}

// pickAddr prefers the first IPv4 address, like most resolvers do for "localhost".
func pickAddr(ips []net.IPAddr) (net.IPAddr, bool) {
	for _, ip := range ips {
		if ip.IP.To4() != nil {
			return ip, true
		}
	}
	if len(ips) > 0 {
		return ips[0], true
	}
	return net.IPAddr{}, false
}

// network picks the socket family matching ip.
func network(ip net.IP) string {
	if ip.To4() != nil {
		return "udp4"
	}
	return "udp6"
}
