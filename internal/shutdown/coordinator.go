package shutdown

import (
	"fmt"

	"github.com/turtacn/healthbeacon/internal/monitor"
	"github.com/turtacn/healthbeacon/pkg/errors"
	"github.com/turtacn/healthbeacon/pkg/logger"
	"github.com/turtacn/healthbeacon/pkg/protocol"
)

// Stopper is the part of the root server the coordinator drives.
type Stopper interface {
	Stop() error
	Destroy() error
}

// Coordinator takes the server down when it failed to start.
type Coordinator struct{}

// New creates a new Coordinator instance.
func New() *Coordinator {
	return &Coordinator{}
}

// MaybeShutdown stops and then destroys root when the startup verdict is
// unhealthy, the policy asks for it and startup never completed. Both steps
// are always attempted and their failures are only logged.
// It reports whether a shutdown was attempted.
func (c *Coordinator) MaybeShutdown(healthy bool, cfg protocol.NotifierConfig, startupCompleted bool, root Stopper) bool {
	if healthy || !cfg.ShutdownOnFailure || startupCompleted || root == nil {
		return false
	}

	logger.Log.Fatal("Shutting down server")

	if err := step("stop", root.Stop); err != nil {
		logger.Log.Fatal("Stop command failed", "err",
			errors.New(errors.ErrCodeStopFailed, "Shutdown", "stop command failed", err))
	}
	if err := step("destroy", root.Destroy); err != nil {
		logger.Log.Fatal("Destroy command failed", "err",
			errors.New(errors.ErrCodeDestroyFailed, "Shutdown", "destroy command failed", err))
	}
	return true
}

// step runs one lifecycle operation, turning a panic into an error.
func step(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		monitor.ShutdownStepsTotal.WithLabelValues(name, monitor.Result(err)).Inc()
	}()
	return fn()
}
