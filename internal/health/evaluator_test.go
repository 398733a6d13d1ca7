package health

import (
	"reflect"
	"testing"

	"github.com/turtacn/healthbeacon/pkg/lifecycle"
)

type node struct {
	name  string
	state lifecycle.State
}

func (n *node) Name() string           { return n.name }
func (n *node) State() lifecycle.State { return n.state }

type container struct {
	node
	children []lifecycle.Container
}

func (c *container) Children() []lifecycle.Container { return c.children }

type service struct {
	node
	connectors []lifecycle.Node
	executors  []lifecycle.Node
	ctr        lifecycle.Container
}

func (s *service) Connectors() []lifecycle.Node   { return s.connectors }
func (s *service) Executors() []lifecycle.Node    { return s.executors }
func (s *service) Container() lifecycle.Container { return s.ctr }

type server struct {
	node
	services []lifecycle.Service
}

func (s *server) Services() []lifecycle.Service { return s.services }
func (s *server) Port() int                     { return 8005 }
func (s *server) Stop() error                   { return nil }
func (s *server) Destroy() error                { return nil }

func started(name string) node { return node{name: name, state: lifecycle.StateStarted} }

// buildTree returns a Catalina-like tree, with the named nodes put in FAILED.
func buildTree(failed ...string) *server {
	set := func(n *node) {
		for _, f := range failed {
			if n.name == f {
				n.state = lifecycle.StateFailed
			}
		}
	}

	root := &container{node: started("ROOT")}
	manager := &container{node: started("manager")}
	host := &container{node: started("localhost"), children: []lifecycle.Container{root, manager}}
	engine := &container{node: started("Catalina-engine"), children: []lifecycle.Container{host}}
	http := &node{name: "http-8080", state: lifecycle.StateStarted}
	ajp := &node{name: "ajp-8009", state: lifecycle.StateStarted}
	pool := &node{name: "tomcatThreadPool", state: lifecycle.StateStarted}
	svc := &service{
		node:       started("Catalina"),
		connectors: []lifecycle.Node{http, ajp},
		executors:  []lifecycle.Node{pool},
		ctr:        engine,
	}
	srv := &server{node: started("Server"), services: []lifecycle.Service{svc}}

	for _, n := range []*node{&root.node, &manager.node, &host.node, &engine.node, http, ajp, pool, &svc.node, &srv.node} {
		set(n)
	}
	return srv
}

func TestEvaluate_AllHealthy(t *testing.T) {
	report := Check(buildTree())
	if !report.Healthy {
		t.Errorf("Expected healthy tree, failures: %+v", report.Failures)
	}
	if len(report.Failures) != 0 {
		t.Errorf("Expected no failures, got %d", len(report.Failures))
	}
	if report.Visited != 9 {
		t.Errorf("Expected 9 visited nodes, got %d", report.Visited)
	}
}

func TestEvaluate_TraversalOrder(t *testing.T) {
	snap := Capture(buildTree())

	// Walk the arena the same way Evaluate does and record paths.
	var order []string
	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, snap.Path(idx))
		for i := len(snap.Entries[idx].Children) - 1; i >= 0; i-- {
			stack = append(stack, snap.Entries[idx].Children[i])
		}
	}

	expected := []string{
		"Server",
		"Server/Catalina",
		"Server/Catalina/http-8080",
		"Server/Catalina/ajp-8009",
		"Server/Catalina/tomcatThreadPool",
		"Server/Catalina/Catalina-engine",
		"Server/Catalina/Catalina-engine/localhost",
		"Server/Catalina/Catalina-engine/localhost/ROOT",
		"Server/Catalina/Catalina-engine/localhost/manager",
	}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("Unexpected traversal order:\n got  %v\n want %v", order, expected)
	}
}

func TestEvaluate_NoShortCircuit(t *testing.T) {
	report := Check(buildTree("Server", "ajp-8009", "ROOT", "manager"))
	if report.Healthy {
		t.Fatal("Expected unhealthy verdict")
	}
	if report.Visited != 9 {
		t.Errorf("Expected full traversal of 9 nodes, got %d", report.Visited)
	}

	var names []string
	for _, f := range report.Failures {
		names = append(names, f.Name)
		if f.State != lifecycle.StateFailed {
			t.Errorf("Expected FAILED state for %s, got %s", f.Name, f.State)
		}
	}
	expected := []string{"Server", "ajp-8009", "ROOT", "manager"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected failures %v, got %v", expected, names)
	}
	if report.Failures[1].Kind != KindConnector {
		t.Errorf("Expected connector kind, got %s", report.Failures[1].Kind)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	snap := Capture(buildTree("tomcatThreadPool"))
	first := Evaluate(snap)
	second := Evaluate(snap)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical reports, got %+v and %+v", first, second)
	}
	if first.Healthy {
		t.Error("Expected unhealthy verdict")
	}
}

func TestEvaluate_EmptyCollections(t *testing.T) {
	srv := &server{node: started("Server")}
	if r := Check(srv); !r.Healthy || r.Visited != 1 {
		t.Errorf("Server without services should be healthy, got %+v", r)
	}

	srv.state = lifecycle.StateStarting
	if r := Check(srv); r.Healthy || len(r.Failures) != 1 {
		t.Errorf("Server in STARTING should be unhealthy, got %+v", r)
	}

	svc := &service{node: started("bare")}
	srv = &server{node: started("Server"), services: []lifecycle.Service{svc}}
	if r := Check(srv); !r.Healthy || r.Visited != 2 {
		t.Errorf("Service without children or container should be healthy, got %+v", r)
	}
}

func TestEvaluate_NilAndEmpty(t *testing.T) {
	if r := Evaluate(nil); !r.Healthy {
		t.Error("nil snapshot should be vacuously healthy")
	}
	if r := Check(nil); !r.Healthy || r.Visited != 0 {
		t.Errorf("nil server should produce an empty report, got %+v", r)
	}
}

func TestCapture_DoesNotMutate(t *testing.T) {
	srv := buildTree("ROOT")
	_ = Check(srv)
	if srv.services[0].State() != lifecycle.StateStarted {
		t.Error("Capture must not change node states")
	}
	ctr := srv.services[0].Container().Children()[0].Children()[0]
	if ctr.State() != lifecycle.StateFailed {
		t.Errorf("Expected ROOT to remain FAILED, got %s", ctr.State())
	}
}

func TestEvaluate_DeepTree(t *testing.T) {
	// A pathological chain deeper than any reasonable recursion budget.
	leaf := &container{node: node{name: "leaf", state: lifecycle.StateStopped}}
	cur := leaf
	for i := 0; i < 100000; i++ {
		cur = &container{node: started("c"), children: []lifecycle.Container{cur}}
	}
	svc := &service{node: started("svc"), ctr: cur}
	srv := &server{node: started("Server"), services: []lifecycle.Service{svc}}

	report := Check(srv)
	if report.Healthy {
		t.Error("Expected unhealthy verdict from deep leaf")
	}
	if len(report.Failures) != 1 || report.Failures[0].Name != "leaf" {
		t.Errorf("Expected single leaf failure, got %d failures", len(report.Failures))
	}
}
