package protocol

// Config represents the root configuration of healthbeacon.
type Config struct {
	Version       string              `yaml:"version"`
	Notifier      NotifierConfig      `yaml:"notifier"`
	Observability ObservabilityConfig `yaml:"observability"`
	Simulation    SimulationConfig    `yaml:"simulation"`
}

// NotifierConfig is the immutable snapshot handed to the health check listener.
type NotifierConfig struct {
	ShutdownOnFailure bool   `yaml:"shutdown_on_failure"` // Stop and destroy the server on startup failure
	NotifyFIFO        string `yaml:"notify_fifo"`         // Empty disables the FIFO channel
	NotifyAddress     string `yaml:"notify_address"`
	NotifyPort        *int   `yaml:"notify_port"` // nil falls back to the server port
	UDPTimeout        string `yaml:"udp_timeout"`
}

type ObservabilityConfig struct {
	MetricsPort string `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
}

// SimulationConfig describes an in-memory component tree driven by `healthbeacon simulate`.
type SimulationConfig struct {
	Tree ServerConfig `yaml:"tree"`
	// StopAfterStart runs the stop/destroy sequence once startup has been reported.
	StopAfterStart bool `yaml:"stop_after_start"`
}

// NodeConfig describes a leaf component. State is the state reached after
// start; it defaults to STARTED.
type NodeConfig struct {
	Name  string `yaml:"name"`
	State string `yaml:"state"`
}

type ContainerConfig struct {
	Name     string            `yaml:"name"`
	State    string            `yaml:"state"`
	Children []ContainerConfig `yaml:"children"`
}

type ServiceConfig struct {
	Name       string           `yaml:"name"`
	State      string           `yaml:"state"`
	Connectors []NodeConfig     `yaml:"connectors"`
	Executors  []NodeConfig     `yaml:"executors"`
	Container  *ContainerConfig `yaml:"container"`
}

type ServerConfig struct {
	Name     string          `yaml:"name"`
	State    string          `yaml:"state"`
	Port     int             `yaml:"port"`
	Services []ServiceConfig `yaml:"services"`
}
