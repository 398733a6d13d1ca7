package host

import (
	"sync"

	"github.com/turtacn/healthbeacon/pkg/errors"
	"github.com/turtacn/healthbeacon/pkg/lifecycle"
	"github.com/turtacn/healthbeacon/pkg/logger"
)

// Server is an in-memory root server. Lifecycle events are delivered
// synchronously, in registration order, on the calling goroutine.
type Server struct {
	*Component
	port     int
	services []*Service

	mu        sync.Mutex
	listeners []lifecycle.Listener
	started   bool
	stopped   bool
	destroyed bool
}

// NewServer creates a root server listening on port (<= 0 for none).
func NewServer(name string, port int, target lifecycle.State) *Server {
	if name == "" {
		name = "Server"
	}
	return &Server{Component: NewComponent(name, target), port: port}
}

func (s *Server) AddService(svc *Service) { s.services = append(s.services, svc) }

func (s *Server) Services() []lifecycle.Service {
	out := make([]lifecycle.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	return out
}

func (s *Server) Port() int {
	return s.port
}

// AddListener registers l for every event emitted by the server.
func (s *Server) AddListener(l lifecycle.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Fire emits an event of kind with the server as source.
func (s *Server) Fire(kind lifecycle.EventKind) {
	s.Emit(lifecycle.Event{Source: s, Kind: kind})
}

// Emit delivers ev to every listener. The source may be any node.
func (s *Server) Emit(ev lifecycle.Event) {
	s.mu.Lock()
	ls := append([]lifecycle.Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range ls {
		l.LifecycleEvent(ev)
	}
}

// Start moves every component to its configured target state and emits
// before_start, start and after_start.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started || s.destroyed {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeUnknown, "Start", "server "+s.Name()+" cannot be started again", nil)
	}
	s.started = true
	s.mu.Unlock()

	logger.Log.Debug("Host: starting server", "server", s.Name())
	s.Fire(lifecycle.BeforeStart)
	s.setAll(func(*Component) lifecycle.State { return lifecycle.StateStarting })
	s.Fire(lifecycle.Start)
	s.setAll(func(c *Component) lifecycle.State { return c.target })
	s.Fire(lifecycle.AfterStart)
	return nil
}

// Stop emits before_stop, stop and after_stop while moving the tree to
// STOPPED. Calling it again is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeStopFailed, "Stop", "server "+s.Name()+" already destroyed", nil)
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	logger.Log.Debug("Host: stopping server", "server", s.Name())
	s.SetState(lifecycle.StateStoppingPrep)
	s.Fire(lifecycle.BeforeStop)
	s.setAll(func(*Component) lifecycle.State { return lifecycle.StateStopping })
	s.Fire(lifecycle.Stop)
	s.setAll(func(*Component) lifecycle.State { return lifecycle.StateStopped })
	s.Fire(lifecycle.AfterStop)
	return nil
}

// Destroy stops the server if needed, then marks the tree DESTROYED.
// Calling it again is a no-op.
func (s *Server) Destroy() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	stopped := s.stopped
	s.mu.Unlock()

	if !stopped {
		if err := s.Stop(); err != nil {
			return errors.New(errors.ErrCodeDestroyFailed, "Destroy", "stop before destroy failed", err)
		}
	}

	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()

	logger.Log.Debug("Host: destroying server", "server", s.Name())
	s.Fire(lifecycle.BeforeDestroy)
	s.setAll(func(*Component) lifecycle.State { return lifecycle.StateDestroyed })
	s.Fire(lifecycle.AfterDestroy)
	return nil
}

// Destroyed reports whether Destroy completed.
func (s *Server) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// setAll assigns next(c) to every component, the server included.
func (s *Server) setAll(next func(*Component) lifecycle.State) {
	s.SetState(next(s.Component))
	for _, svc := range s.services {
		for _, c := range svc.components() {
			c.SetState(next(c))
		}
	}
}
