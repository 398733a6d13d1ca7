package health

import (
	"github.com/turtacn/healthbeacon/pkg/lifecycle"
)

// Failure is one node found outside the healthy state.
type Failure struct {
	Name  string
	Path  string
	Kind  Kind
	State lifecycle.State
}

// Report is the outcome of one evaluation pass.
type Report struct {
	// Healthy is the verdict: true iff every visited node is STARTED.
	Healthy bool
	// Visited counts the nodes walked.
	Visited int
	// Failures lists unhealthy nodes in traversal order.
	Failures []Failure
}

// Evaluate walks snap depth-first, pre-order, with an explicit stack. It never
// stops at the first failure: every unhealthy node is reported.
// An empty snapshot is healthy.
func Evaluate(snap *Snapshot) Report {
	report := Report{Healthy: true}
	if snap == nil || len(snap.Entries) == 0 {
		return report
	}

	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := &snap.Entries[idx]
		report.Visited++
		if !e.State.Available() {
			report.Healthy = false
			report.Failures = append(report.Failures, Failure{
				Name:  e.Name,
				Path:  snap.Path(idx),
				Kind:  e.Kind,
				State: e.State,
			})
		}

		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
	return report
}

// Check captures server and evaluates the snapshot.
func Check(server lifecycle.Server) Report {
	return Evaluate(Capture(server))
}
