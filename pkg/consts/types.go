package consts

import "time"

// Moment names a point in the monitored server's lifecycle worth reporting.
type Moment string

const (
	MomentStartup  Moment = "startup"
	MomentPreStop  Moment = "prestop"
	MomentStop     Moment = "stop"
	MomentPostStop Moment = "poststop"
)

func (m Moment) String() string { return string(m) }

// MonitorState is the state of the health check listener itself.
// It only ever moves from AWAITING_STARTUP to RUNNING.
type MonitorState string

const (
	StateAwaitingStartup MonitorState = "AWAITING_STARTUP"
	StateRunning         MonitorState = "RUNNING" // Startup verdict was healthy
)

// EventStartupOK is the only transition of the monitor state machine.
const EventStartupOK = "startup_ok"

// Wire payloads shared by the FIFO and UDP channels.
const (
	PayloadHealthy   = "0\n"
	PayloadUnhealthy = "1\n"
)

// Notification channels, used as metric and log labels.
const (
	ChannelFIFO = "fifo"
	ChannelUDP  = "udp"
)

const (
	DefaultNotifyAddress = "localhost"
	DefaultUDPTimeout    = 2 * time.Second
	DefaultLogLevel      = "info"
)
