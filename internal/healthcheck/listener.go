package healthcheck

import (
	"sync"

	"github.com/turtacn/healthbeacon/internal/health"
	"github.com/turtacn/healthbeacon/internal/monitor"
	"github.com/turtacn/healthbeacon/internal/notify"
	"github.com/turtacn/healthbeacon/internal/shutdown"
	"github.com/turtacn/healthbeacon/pkg/consts"
	"github.com/turtacn/healthbeacon/pkg/fsm"
	"github.com/turtacn/healthbeacon/pkg/lifecycle"
	"github.com/turtacn/healthbeacon/pkg/logger"
	"github.com/turtacn/healthbeacon/pkg/protocol"
)

// Notifier relays a verdict to outside observers.
type Notifier interface {
	Notify(healthy bool, fallbackPort int)
}

// Shutdowner takes the server down after a failed startup.
type Shutdowner interface {
	MaybeShutdown(healthy bool, cfg protocol.NotifierConfig, startupCompleted bool, root shutdown.Stopper) bool
}

// Listener turns root server lifecycle events into health notifications.
//
// Until a healthy startup has been seen it only reacts to after_start. Once
// started it reacts to before_stop, stop and after_stop, and notifies only
// when the tree is no longer healthy.
type Listener struct {
	cfg      protocol.NotifierConfig
	notifier Notifier
	shutdown Shutdowner

	mu  sync.Mutex // serializes classification, evaluation and the transition
	fsm *fsm.StateMachine
}

// Option customizes a Listener.
type Option func(*Listener)

// WithNotifier replaces the default FIFO/UDP dispatcher.
func WithNotifier(n Notifier) Option {
	return func(l *Listener) { l.notifier = n }
}

// WithShutdowner replaces the default shutdown coordinator.
func WithShutdowner(s Shutdowner) Option {
	return func(l *Listener) { l.shutdown = s }
}

// New creates a Listener in the AWAITING_STARTUP state.
func New(cfg protocol.NotifierConfig, opts ...Option) *Listener {
	l := &Listener{
		cfg:      cfg,
		notifier: notify.New(cfg),
		shutdown: shutdown.New(),
		fsm:      fsm.New(fsm.State(consts.StateAwaitingStartup)),
	}
	l.fsm.AddTransition(fsm.State(consts.StateAwaitingStartup), fsm.State(consts.StateRunning), consts.EventStartupOK, nil)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the monitor state.
func (l *Listener) State() consts.MonitorState {
	return consts.MonitorState(l.fsm.Current())
}

// Started reports whether a healthy startup has been observed.
func (l *Listener) Started() bool {
	return l.fsm.Is(fsm.State(consts.StateRunning))
}

// classify maps an event kind to a moment given the monitor state.
func classify(started bool, kind lifecycle.EventKind) (consts.Moment, bool) {
	if !started {
		if kind == lifecycle.AfterStart {
			return consts.MomentStartup, true
		}
		return "", false
	}
	switch kind {
	case lifecycle.BeforeStop:
		return consts.MomentPreStop, true
	case lifecycle.Stop:
		return consts.MomentStop, true
	case lifecycle.AfterStop:
		return consts.MomentPostStop, true
	}
	return "", false
}

// LifecycleEvent implements lifecycle.Listener. Events from anything other
// than the root server are ignored.
func (l *Listener) LifecycleEvent(ev lifecycle.Event) {
	server := ev.Server()
	if server == nil {
		return
	}

	report, startupCompleted, send := l.evaluate(server, ev.Kind)
	if !send {
		return
	}

	// Stop() on the server may deliver events back to this listener
	// synchronously, so nothing below runs under the lock.
	l.notifier.Notify(report.Healthy, server.Port())

	if !startupCompleted && !report.Healthy {
		l.shutdown.MaybeShutdown(report.Healthy, l.cfg, startupCompleted, server)
	}
}

// evaluate classifies kind, checks the tree and applies the transition under
// the lock. send is false when the event is ignored or nothing changed.
func (l *Listener) evaluate(server lifecycle.Server, kind lifecycle.EventKind) (report health.Report, startupCompleted, send bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	startupCompleted = l.Started()
	moment, ok := classify(startupCompleted, kind)
	if !ok {
		return report, startupCompleted, false
	}

	logger.Log.Info("Server event received, checking component health", "moment", moment)
	report = health.Check(server)
	record(moment, report)

	switch {
	case !startupCompleted && report.Healthy:
		logger.Log.Info("Server health OK")
		if err := l.fsm.Fire(consts.EventStartupOK); err != nil {
			logger.Log.Error("Monitor transition failed", "err", err)
		}
	case !startupCompleted:
		logger.Log.Fatal("Initialization failure detected")
	case report.Healthy:
		logger.Log.Info("No change, server still appears okay", "moment", moment)
		return report, startupCompleted, false
	default:
		logger.Log.Info("Shutdown detected", "moment", moment)
	}
	return report, startupCompleted, true
}

// record logs one FATAL line per unhealthy node and updates metrics.
func record(moment consts.Moment, report health.Report) {
	for _, f := range report.Failures {
		logger.Log.Fatal("Component failed to start",
			"component", f.Path, "kind", string(f.Kind), "state", string(f.State))
	}
	monitor.EvaluationsTotal.WithLabelValues(moment.String(), monitor.Verdict(report.Healthy)).Inc()
	monitor.UnhealthyComponents.Set(float64(len(report.Failures)))
}
