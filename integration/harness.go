//go:build integration

package integration

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/weftmesh/weft/core"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
	"github.com/weftmesh/weft/transport"
)

// shrinkTimings rescales the protocol timers so a full
// hello/flood/converge cycle fits in a test run.
func shrinkTimings() {
	state.HelloInterval = 50 * time.Millisecond
	state.HelloTimeout = 250 * time.Millisecond
	state.NeighbourSweepDelay = 50 * time.Millisecond
	state.InfoInterval = 150 * time.Millisecond
	state.AnnounceDebounce = 20 * time.Millisecond
	state.SeenTTL = 10 * time.Second
}

// Harness runs real nodes, main loop and all, over an in-memory hub.
type Harness struct {
	t    *testing.T
	Hub  *transport.Hub
	Mesh state.MeshCfg
	Errs chan error

	mu        sync.Mutex
	envs      map[state.NodeId]*state.Env
	delivered map[state.NodeId][]*protocol.Packet
}

func NewHarness(t *testing.T, mesh state.MeshCfg) *Harness {
	return &Harness{
		t:         t,
		Hub:       transport.NewHub(),
		Mesh:      mesh,
		Errs:      make(chan error, 16),
		envs:      make(map[state.NodeId]*state.Env),
		delivered: make(map[state.NodeId][]*protocol.Packet),
	}
}

// StartNode boots one node and blocks until its main loop is about to
// run.
func (h *Harness) StartNode(id state.NodeId) {
	h.t.Helper()
	bound := make(chan *state.Env, 1)
	tr := h.Hub.Attach(h.Mesh.ChannelOf(id))
	go func() {
		err := core.Start(h.Mesh, state.LocalCfg{Id: id}, slog.LevelError, core.Options{
			Transport: tr,
			Deliver: func(s *state.State, pkt *protocol.Packet) {
				h.mu.Lock()
				h.delivered[id] = append(h.delivered[id], pkt)
				h.mu.Unlock()
			},
			BindEnv: func(e *state.Env) {
				bound <- e
			},
		})
		if err != nil {
			h.Errs <- fmt.Errorf("node %s: %w", id, err)
		}
	}()

	select {
	case e := <-bound:
		h.mu.Lock()
		h.envs[id] = e
		h.mu.Unlock()
	case <-time.After(5 * time.Second):
		h.t.Fatalf("node %s did not start", id)
	}
}

func (h *Harness) StartAll() {
	for _, n := range h.Mesh.Nodes {
		h.StartNode(n.Id)
	}
}

// StopNode kills one node; the rest of the mesh only notices through
// the missing hellos.
func (h *Harness) StopNode(id state.NodeId) {
	h.mu.Lock()
	e := h.envs[id]
	delete(h.envs, id)
	h.mu.Unlock()
	if e != nil {
		e.Cancel(errors.New("stopped by harness"))
	}
}

func (h *Harness) StopAll() {
	h.mu.Lock()
	envs := h.envs
	h.envs = make(map[state.NodeId]*state.Env)
	h.mu.Unlock()
	for _, e := range envs {
		e.Cancel(errors.New("stopped by harness"))
	}
}

func (h *Harness) env(id state.NodeId) *state.Env {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.envs[id]
}

// RouteTo queries one node's routing table on its own main loop.
func (h *Harness) RouteTo(id, dst state.NodeId) (state.TableEntry, bool) {
	e := h.env(id)
	if e == nil {
		return state.TableEntry{}, false
	}
	res, err := e.DispatchWait(func(s *state.State) (any, error) {
		entry, ok := core.Get[*core.Router](s).Table[dst]
		if !ok {
			return nil, nil
		}
		return entry, nil
	})
	if err != nil || res == nil {
		return state.TableEntry{}, false
	}
	return res.(state.TableEntry), true
}

// WaitRoute polls until id has a route to dst or the deadline passes.
func (h *Harness) WaitRoute(id, dst state.NodeId, timeout time.Duration) (state.TableEntry, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if entry, ok := h.RouteTo(id, dst); ok {
			return entry, true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return state.TableEntry{}, false
}

// WaitNoRoute polls until id has lost its route to dst.
func (h *Harness) WaitNoRoute(id, dst state.NodeId, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, ok := h.RouteTo(id, dst); !ok {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// Send originates a message from one running node.
func (h *Harness) Send(from, to state.NodeId, body string) {
	h.t.Helper()
	e := h.env(from)
	if e == nil {
		h.t.Fatalf("node %s is not running", from)
	}
	e.Dispatch(func(s *state.State) error {
		return core.Originate(s, to, body)
	})
}

// Delivered counts how many times a payload arrived at a node.
func (h *Harness) Delivered(id state.NodeId, body string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, pkt := range h.delivered[id] {
		if pkt.Payload == body {
			count++
		}
	}
	return count
}

// WaitDelivered polls until the payload arrives at least once.
func (h *Harness) WaitDelivered(id state.NodeId, body string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.Delivered(id, body) > 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// NoErrors drains the error channel and fails the test on anything but
// a harness-initiated stop.
func (h *Harness) NoErrors() {
	h.t.Helper()
	for {
		select {
		case err := <-h.Errs:
			h.t.Errorf("node failed: %v", err)
		default:
			return
		}
	}
}

func chainMesh() state.MeshCfg {
	return state.MeshCfg{
		Section: "it",
		Topo:    "chain",
		Nodes: []state.NodeCfg{
			{Id: "A"}, {Id: "B"}, {Id: "C"}, {Id: "D"}, {Id: "E"},
		},
		Links: []state.LinkCfg{
			{A: "A", B: "B"},
			{A: "B", B: "C"},
			{A: "C", B: "D"},
			{A: "D", B: "E"},
		},
	}
}
