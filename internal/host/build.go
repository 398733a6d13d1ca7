package host

import (
	"fmt"
	"strings"

	"github.com/turtacn/healthbeacon/pkg/errors"
	"github.com/turtacn/healthbeacon/pkg/lifecycle"
	"github.com/turtacn/healthbeacon/pkg/protocol"
)

// Build creates a server tree from its yaml description.
func Build(cfg protocol.ServerConfig) (*Server, error) {
	target, err := parseState("server", cfg.State)
	if err != nil {
		return nil, err
	}
	srv := NewServer(cfg.Name, cfg.Port, target)

	for i, sc := range cfg.Services {
		if sc.Name == "" {
			return nil, invalid(fmt.Sprintf("service #%d has no name", i))
		}
		st, err := parseState(sc.Name, sc.State)
		if err != nil {
			return nil, err
		}

		var ctr *Component
		if sc.Container != nil {
			if ctr, err = buildContainer(*sc.Container); err != nil {
				return nil, err
			}
		}
		svc := NewService(sc.Name, st, ctr)

		for _, nc := range sc.Connectors {
			c, err := buildLeaf(nc)
			if err != nil {
				return nil, err
			}
			svc.AddConnector(c)
		}
		for _, nc := range sc.Executors {
			e, err := buildLeaf(nc)
			if err != nil {
				return nil, err
			}
			svc.AddExecutor(e)
		}
		srv.AddService(svc)
	}
	return srv, nil
}

func buildLeaf(nc protocol.NodeConfig) (*Component, error) {
	if nc.Name == "" {
		return nil, invalid("component has no name")
	}
	st, err := parseState(nc.Name, nc.State)
	if err != nil {
		return nil, err
	}
	return NewComponent(nc.Name, st), nil
}

// buildContainer converts a container subtree without recursion.
func buildContainer(root protocol.ContainerConfig) (*Component, error) {
	type item struct {
		cfg    protocol.ContainerConfig
		parent *Component
	}

	var top *Component
	queue := []item{{cfg: root}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		if it.cfg.Name == "" {
			return nil, invalid("container has no name")
		}
		st, err := parseState(it.cfg.Name, it.cfg.State)
		if err != nil {
			return nil, err
		}
		c := NewComponent(it.cfg.Name, st)
		if it.parent == nil {
			top = c
		} else {
			it.parent.AddChild(c)
		}
		for _, child := range it.cfg.Children {
			queue = append(queue, item{cfg: child, parent: c})
		}
	}
	return top, nil
}

// parseState accepts an empty string (STARTED) or a known state, case-insensitive.
func parseState(owner, s string) (lifecycle.State, error) {
	if s == "" {
		return lifecycle.StateStarted, nil
	}
	st := lifecycle.State(strings.ToUpper(s))
	if !st.Valid() {
		return "", invalid(fmt.Sprintf("%s: unknown state %q", owner, s))
	}
	return st, nil
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeTreeInvalid, "Build", msg, nil)
}
