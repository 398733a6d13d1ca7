package receiver

import (
	"bufio"
	"context"
	stderrors "errors"
	"net"
	"os"
	"time"

	"github.com/turtacn/healthbeacon/pkg/consts"
	"github.com/turtacn/healthbeacon/pkg/errors"
	"github.com/turtacn/healthbeacon/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// ErrStop may be returned by a Handler to end a receive loop without error.
var ErrStop = stderrors.New("receiver: stop")

// Verdict is one decoded status message.
type Verdict struct {
	Healthy bool
	Channel string
	From    string
	At      time.Time
}

// Handler is called for every verdict received.
type Handler func(Verdict) error

// Decode parses a status payload. The trailing newline is optional.
func Decode(b []byte) (bool, error) {
	switch string(b) {
	case consts.PayloadHealthy, "0":
		return true, nil
	case consts.PayloadUnhealthy, "1":
		return false, nil
	}
	return false, errors.New(errors.ErrCodePayloadInvalid, "Decode", "unexpected payload "+string(b), nil)
}

// ListenUDP receives datagrams on addr until ctx is done or fn returns an error.
func ListenUDP(ctx context.Context, addr string, fn Handler) error {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return err
	}
	return ServeUDP(ctx, pc, fn)
}

// ServeUDP is ListenUDP on an existing socket. The socket is closed on return.
func ServeUDP(ctx context.Context, pc net.PacketConn, fn Handler) error {
	defer pc.Close()
	stop := context.AfterFunc(ctx, func() { pc.Close() })
	defer stop()

	logger.Log.Info("Receiver: listening for datagrams", "addr", pc.LocalAddr().String())
	buf := make([]byte, 512)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		healthy, err := Decode(buf[:n])
		if err != nil {
			logger.Log.Warn("Receiver: dropping datagram", "from", from.String(), "err", err)
			continue
		}
		v := Verdict{Healthy: healthy, Channel: consts.ChannelUDP, From: from.String(), At: time.Now()}
		if err := fn(v); err != nil {
			return stopped(err)
		}
	}
}

// ReadFIFO reads status lines from the FIFO at path until ctx is done or fn
// returns an error. The FIFO is created when missing. It is opened read-write
// so the open never waits for a writer and writers closing do not end the loop.
func ReadFIFO(ctx context.Context, path string, fn Handler) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := unix.Mkfifo(path, 0600); err != nil {
			return err
		}
		logger.Log.Info("Receiver: created FIFO", "path", path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	logger.Log.Info("Receiver: reading FIFO", "path", path)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		healthy, err := Decode(sc.Bytes())
		if err != nil {
			logger.Log.Warn("Receiver: dropping line", "path", path, "err", err)
			continue
		}
		v := Verdict{Healthy: healthy, Channel: consts.ChannelFIFO, From: path, At: time.Now()}
		if err := fn(v); err != nil {
			return stopped(err)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}

// Options selects the sources Watch listens on. Empty fields are skipped.
type Options struct {
	UDPAddr  string
	FIFOPath string
}

// Watch runs every configured source concurrently. The first source that
// stops, with or without error, stops the others.
func Watch(ctx context.Context, opts Options, fn Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	done := func(err error) error {
		if err == nil {
			return ErrStop
		}
		return err
	}

	if opts.UDPAddr != "" {
		g.Go(func() error { return done(ListenUDP(ctx, opts.UDPAddr, fn)) })
	}
	if opts.FIFOPath != "" {
		g.Go(func() error { return done(ReadFIFO(ctx, opts.FIFOPath, fn)) })
	}
	return stopped(g.Wait())
}

func stopped(err error) error {
	if stderrors.Is(err, ErrStop) {
		return nil
	}
	return err
}
