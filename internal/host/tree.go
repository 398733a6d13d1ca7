package host

import (
	"sync"

	"github.com/turtacn/healthbeacon/pkg/lifecycle"
)

// Component is a mutable tree node. It serves as container, connector and
// executor alike.
type Component struct {
	mu       sync.RWMutex
	name     string
	state    lifecycle.State
	target   lifecycle.State // state reached by Start
	children []*Component
}

// NewComponent creates a component in NEW that reaches target on start.
// An empty target means STARTED.
func NewComponent(name string, target lifecycle.State, children ...*Component) *Component {
	if target == "" {
		target = lifecycle.StateStarted
	}
	return &Component{
		name:     name,
		state:    lifecycle.StateNew,
		target:   target,
		children: children,
	}
}

func (c *Component) Name() string {
	return c.name
}

func (c *Component) State() lifecycle.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState overrides the current state.
func (c *Component) SetState(s lifecycle.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Component) Children() []lifecycle.Container {
	out := make([]lifecycle.Container, 0, len(c.children))
	for _, ch := range c.children {
		out = append(out, ch)
	}
	return out
}

// AddChild appends a nested container.
func (c *Component) AddChild(child *Component) {
	c.children = append(c.children, child)
}

// Service groups connectors, executors and a container tree.
type Service struct {
	*Component
	connectors []*Component
	executors  []*Component
	container  *Component
}

// NewService creates a service. container may be nil.
func NewService(name string, target lifecycle.State, container *Component) *Service {
	return &Service{Component: NewComponent(name, target), container: container}
}

func (s *Service) AddConnector(c *Component) { s.connectors = append(s.connectors, c) }
func (s *Service) AddExecutor(e *Component)  { s.executors = append(s.executors, e) }

func (s *Service) Connectors() []lifecycle.Node {
	return nodes(s.connectors)
}

func (s *Service) Executors() []lifecycle.Node {
	return nodes(s.executors)
}

func (s *Service) Container() lifecycle.Container {
	if s.container == nil {
		return nil
	}
	return s.container
}

func nodes(cs []*Component) []lifecycle.Node {
	out := make([]lifecycle.Node, 0, len(cs))
	for _, c := range cs {
		out = append(out, c)
	}
	return out
}

// components returns every component under s, including s itself.
func (s *Service) components() []*Component {
	out := []*Component{s.Component}
	out = append(out, s.connectors...)
	out = append(out, s.executors...)
	if s.container == nil {
		return out
	}
	stack := []*Component{s.container}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, c)
		stack = append(stack, c.children...)
	}
	return out
}
