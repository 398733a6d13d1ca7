package protocol

import (
	"fmt"
	"os"
	"time"

	"github.com/turtacn/healthbeacon/pkg/consts"
	"github.com/turtacn/healthbeacon/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default returns a Config carrying every documented default.
func Default() Config {
	return Config{
		Version: "1",
		Notifier: NotifierConfig{
			ShutdownOnFailure: true,
			NotifyAddress:     consts.DefaultNotifyAddress,
		},
		Observability: ObservabilityConfig{
			LogLevel: consts.DefaultLogLevel,
		},
		Simulation: SimulationConfig{
			StopAfterStart: true,
		},
	}
}

// Load reads a yaml file on top of Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New(errors.ErrCodeConfigInvalid, "Load", "unable to read "+path, err)
	}
	return Parse(data)
}

// Parse decodes yaml on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.New(errors.ErrCodeConfigInvalid, "Parse", "malformed yaml", err)
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks port range and timeout syntax.
func (n NotifierConfig) Validate() error {
	if n.NotifyPort != nil && (*n.NotifyPort <= 0 || *n.NotifyPort > 65535) {
		return errors.New(errors.ErrCodeConfigInvalid, "Validate",
			fmt.Sprintf("notify_port %d out of range", *n.NotifyPort), nil)
	}
	if n.UDPTimeout != "" {
		d, err := time.ParseDuration(n.UDPTimeout)
		if err != nil {
			return errors.New(errors.ErrCodeConfigInvalid, "Validate", "invalid udp_timeout", err)
		}
		if d <= 0 {
			return errors.New(errors.ErrCodeConfigInvalid, "Validate", "udp_timeout must be positive", nil)
		}
	}
	return nil
}

// Timeout returns the UDP I/O bound, falling back to consts.DefaultUDPTimeout.
func (n NotifierConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(n.UDPTimeout)
	if err != nil || d <= 0 {
		return consts.DefaultUDPTimeout
	}
	return d
}

// Address returns the UDP destination host, falling back to consts.DefaultNotifyAddress.
func (n NotifierConfig) Address() string {
	if n.NotifyAddress == "" {
		return consts.DefaultNotifyAddress
	}
	return n.NotifyAddress
}

// Port returns a pointer to p, convenient for NotifierConfig literals.
func Port(p int) *int {
	return &p
}
