// Package lifecycle describes the component tree and lifecycle events that a
// hosting runtime exposes to healthbeacon.
//
// The tree is owned by the runtime. healthbeacon only reads node states and,
// on a failed startup, asks the root Server to stop and destroy itself.
package lifecycle

// State is the lifecycle state of a single component.
type State string

const (
	StateNew          State = "NEW"
	StateInitializing State = "INITIALIZING"
	StateInitialized  State = "INITIALIZED"
	StateStartingPrep State = "STARTING_PREP"
	StateStarting     State = "STARTING"
	StateStarted      State = "STARTED" // The only healthy state
	StateStoppingPrep State = "STOPPING_PREP"
	StateStopping     State = "STOPPING"
	StateStopped      State = "STOPPED"
	StateDestroying   State = "DESTROYING"
	StateDestroyed    State = "DESTROYED"
	StateFailed       State = "FAILED"
)

var knownStates = map[State]bool{
	StateNew: true, StateInitializing: true, StateInitialized: true,
	StateStartingPrep: true, StateStarting: true, StateStarted: true,
	StateStoppingPrep: true, StateStopping: true, StateStopped: true,
	StateDestroying: true, StateDestroyed: true, StateFailed: true,
}

// Available reports whether s is the healthy running state.
func (s State) Available() bool {
	return s == StateStarted
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	return knownStates[s]
}

// EventKind identifies a lifecycle event type.
type EventKind string

const (
	BeforeInit    EventKind = "before_init"
	AfterInit     EventKind = "after_init"
	BeforeStart   EventKind = "before_start"
	Start         EventKind = "start"
	AfterStart    EventKind = "after_start"
	BeforeStop    EventKind = "before_stop"
	Stop          EventKind = "stop"
	AfterStop     EventKind = "after_stop"
	BeforeDestroy EventKind = "before_destroy"
	AfterDestroy  EventKind = "after_destroy"
	Periodic      EventKind = "periodic"
)

// Node is any state-bearing component of the tree.
type Node interface {
	Name() string
	State() State
}

// Container is a node with nested containers (engine, host, context, wrapper...).
type Container interface {
	Node
	Children() []Container
}

// Service groups connectors, executors and one container tree.
type Service interface {
	Node
	Connectors() []Node
	Executors() []Node
	// Container may return nil.
	Container() Container
}

// Server is the root of the tree and the source of every recognized event.
type Server interface {
	Node
	Services() []Service
	// Port is the server's own configured port; values <= 0 mean none.
	Port() int
	Stop() error
	Destroy() error
}

// Event is delivered synchronously by the runtime on its own goroutine.
type Event struct {
	Source Node
	Kind   EventKind
}

// FromRoot reports whether the event was emitted by the root Server.
func (e Event) FromRoot() bool {
	_, ok := e.Source.(Server)
	return ok
}

// Server returns the event source as a Server, or nil.
func (e Event) Server() Server {
	s, _ := e.Source.(Server)
	return s
}

// Listener receives lifecycle events.
type Listener interface {
	LifecycleEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) LifecycleEvent(ev Event) { f(ev) }
