package health

import (
	"strings"

	"github.com/turtacn/healthbeacon/pkg/lifecycle"
)

// Kind classifies a snapshot entry.
type Kind string

const (
	KindServer    Kind = "server"
	KindService   Kind = "service"
	KindConnector Kind = "connector"
	KindExecutor  Kind = "executor"
	KindContainer Kind = "container"
)

// Entry is one node of a captured tree. Children index into Snapshot.Entries.
type Entry struct {
	Name     string
	Parent   int // -1 for the root
	Kind     Kind
	State    lifecycle.State
	Children []int
}

// Snapshot is an arena copy of a component tree. Entries[0] is the root.
type Snapshot struct {
	Entries []Entry
}

type pending struct {
	kind   Kind
	node   lifecycle.Node
	parent int
}

// Capture copies the states of server and everything below it. Children of a
// service are recorded as connectors, then executors, then the container.
// Nodes are only read.
func Capture(server lifecycle.Server) *Snapshot {
	snap := &Snapshot{}
	if server == nil {
		return snap
	}

	queue := []pending{{kind: KindServer, node: server, parent: -1}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		idx := len(snap.Entries)
		if item.parent >= 0 {
			snap.Entries[item.parent].Children = append(snap.Entries[item.parent].Children, idx)
		}
		snap.Entries = append(snap.Entries, Entry{
			Name:   item.node.Name(),
			Parent: item.parent,
			Kind:   item.kind,
			State:  item.node.State(),
		})

		switch item.kind {
		case KindServer:
			for _, svc := range item.node.(lifecycle.Server).Services() {
				queue = append(queue, pending{kind: KindService, node: svc, parent: idx})
			}
		case KindService:
			svc := item.node.(lifecycle.Service)
			for _, c := range svc.Connectors() {
				queue = append(queue, pending{kind: KindConnector, node: c, parent: idx})
			}
			for _, e := range svc.Executors() {
				queue = append(queue, pending{kind: KindExecutor, node: e, parent: idx})
			}
			if ctr := svc.Container(); ctr != nil {
				queue = append(queue, pending{kind: KindContainer, node: ctr, parent: idx})
			}
		case KindContainer:
			for _, child := range item.node.(lifecycle.Container).Children() {
				queue = append(queue, pending{kind: KindContainer, node: child, parent: idx})
			}
		}
	}
	return snap
}

// Path joins the names from the root down to entry idx with "/".
func (s *Snapshot) Path(idx int) string {
	var names []string
	for i := idx; i >= 0; i = s.Entries[i].Parent {
		names = append(names, s.Entries[i].Name)
	}
	for l, r := 0, len(names)-1; l < r; l, r = l+1, r-1 {
		names[l], names[r] = names[r], names[l]
	}
	return strings.Join(names, "/")
}
