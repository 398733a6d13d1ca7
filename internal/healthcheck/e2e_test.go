package healthcheck

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/turtacn/healthbeacon/pkg/lifecycle"
	"github.com/turtacn/healthbeacon/pkg/protocol"
	"golang.org/x/sys/unix"
)

type endpoints struct {
	cfg   protocol.NotifierConfig
	udp   *net.UDPConn
	lines chan string
}

// setupEndpoints creates a FIFO with a reader attached and a UDP socket on loopback.
func setupEndpoints(t *testing.T) *endpoints {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hc")
	if err := unix.Mkfifo(path, 0600); err != nil {
		t.Fatalf("Mkfifo failed: %v", err)
	}
	// O_RDWR keeps the FIFO open across writers and never blocks in open.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			lines <- sc.Text() + "\n"
		}
	}()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	return &endpoints{
		cfg: protocol.NotifierConfig{
			ShutdownOnFailure: true,
			NotifyFIFO:        path,
			NotifyAddress:     "127.0.0.1",
			NotifyPort:        protocol.Port(conn.LocalAddr().(*net.UDPAddr).Port),
		},
		udp:   conn,
		lines: lines,
	}
}

func (e *endpoints) expect(t *testing.T, payload string) {
	t.Helper()
	buf := make([]byte, 16)
	e.udp.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := e.udp.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("Expected datagram: %v", err)
	}
	if string(buf[:n]) != payload {
		t.Errorf("Expected datagram %q, got %q", payload, buf[:n])
	}

	select {
	case line := <-e.lines:
		if line != payload {
			t.Errorf("Expected FIFO line %q, got %q", payload, line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a FIFO line")
	}
}

func (e *endpoints) expectNothing(t *testing.T) {
	t.Helper()
	buf := make([]byte, 16)
	e.udp.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if n, _, err := e.udp.ReadFromUDP(buf); err == nil {
		t.Errorf("Unexpected datagram %q", buf[:n])
	}
	select {
	case line := <-e.lines:
		t.Errorf("Unexpected FIFO line %q", line)
	default:
	}
}

func TestEndToEnd_HealthyStartup(t *testing.T) {
	captureLogs(t)
	ep := setupEndpoints(t)
	srv := newServer(t)
	counts := countKinds(srv)
	l := New(ep.cfg)
	srv.AddListener(l)

	srv.Start()

	ep.expect(t, "0\n")
	if !l.Started() {
		t.Error("Expected RUNNING")
	}
	if counts[lifecycle.BeforeStop] != 0 || srv.Destroyed() {
		t.Error("Expected no shutdown calls")
	}
}

func TestEndToEnd_FailedStartup(t *testing.T) {
	captureLogs(t)
	ep := setupEndpoints(t)
	srv := newServer(t, "ROOT")
	counts := countKinds(srv)
	l := New(ep.cfg)
	srv.AddListener(l)

	srv.Start()

	ep.expect(t, "1\n")
	if l.Started() {
		t.Error("Expected AWAITING_STARTUP")
	}
	if counts[lifecycle.BeforeStop] != 1 || counts[lifecycle.BeforeDestroy] != 1 {
		t.Errorf("Expected stop and destroy exactly once, got %v", counts)
	}
	// Events emitted by the shutdown itself are not startup moments.
	ep.expectNothing(t)
}

func TestEndToEnd_ShutdownAfterStartup(t *testing.T) {
	captureLogs(t)
	ep := setupEndpoints(t)
	srv := newServer(t)
	l := New(ep.cfg)
	srv.AddListener(l)

	srv.Start()
	ep.expect(t, "0\n")

	srv.Stop()
	for i := 0; i < 3; i++ {
		ep.expect(t, "1\n")
	}
	ep.expectNothing(t)
}
