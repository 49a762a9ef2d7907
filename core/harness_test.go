package core

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
	"github.com/weftmesh/weft/transport"
)

// chainMesh is the 5-node reference topology A-B-C-D-E with unit costs.
func chainMesh() state.MeshCfg {
	return state.MeshCfg{
		Section: "t",
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

// testNode hosts one node's modules without the main loop; tests invoke
// handlers directly and drain the dispatch queue synchronously, which
// matches the single-goroutine ownership rule.
type testNode struct {
	t         *testing.T
	s         *state.State
	dispatch  chan func(*state.State) error
	clk       *clock.Mock
	hub       *transport.Hub
	delivered []*protocol.Packet
}

func newTestNode(t *testing.T, hub *transport.Hub, mesh state.MeshCfg, id state.NodeId) *testNode {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())

	dispatch := make(chan func(*state.State) error, 256)
	clk := clock.NewMock()
	n := &testNode{t: t, dispatch: dispatch, clk: clk, hub: hub}

	s := &state.State{
		Modules:    make(map[string]state.Module),
		Neighbours: make(map[state.NodeId]*state.Neighbour),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			MeshCfg:         mesh,
			LocalCfg:        state.LocalCfg{Id: id},
			Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
			Clock:           clk,
		},
	}
	n.s = s

	tr := hub.Attach(mesh.ChannelOf(id))
	modules := []state.Module{
		&Router{},
		&LinkState{},
		&NeighbourTracker{},
		&Forwarder{Deliver: func(s *state.State, p *protocol.Packet) {
			n.delivered = append(n.delivered, p)
		}},
		&Persistor{},
		&Mesh{Transport: tr},
	}
	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		require.NoError(t, module.Init(s))
	}

	t.Cleanup(func() {
		cancel(context.Canceled)
		Stop(s)
	})
	return n
}

// drain runs every queued dispatch synchronously.
func (n *testNode) drain() {
	for {
		select {
		case f := <-n.dispatch:
			require.NoError(n.t, f(n.s))
		default:
			return
		}
	}
}

// markAlive fakes a received HELLO from each neighbour and swallows the
// announcement that liveness changes schedule.
func (n *testNode) markAlive(ids ...state.NodeId) {
	for _, id := range ids {
		require.NoError(n.t, onHello(n.s, id))
	}
	n.clk.Add(state.AnnounceDebounce * 2)
	n.drain()
}

// tap subscribes to a node's channel and returns its packet feed.
type tap struct {
	t  *testing.T
	tr *transport.Mock
}

func newTap(t *testing.T, hub *transport.Hub, mesh state.MeshCfg, id state.NodeId) *tap {
	t.Helper()
	tr := hub.Attach(mesh.ChannelOf(id))
	require.NoError(t, tr.Connect(context.Background()))
	t.Cleanup(func() { _ = tr.Close() })
	return &tap{t: t, tr: tr}
}

// next returns the next packet of the wanted kind, skipping others, or
// nil if none arrives in time.
func (tp *tap) next(kind protocol.Kind) *protocol.Packet {
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case raw, ok := <-tp.tr.Receive():
			if !ok {
				return nil
			}
			pkt, err := protocol.Decode(raw)
			require.NoError(tp.t, err)
			if pkt.Type == kind {
				return pkt
			}
		case <-deadline:
			return nil
		}
	}
}

func (tp *tap) expectNone(kind protocol.Kind) {
	if pkt := tp.next(kind); pkt != nil {
		tp.t.Fatalf("unexpected %s packet from %s (id %s)", kind, pkt.From, pkt.MsgId)
	}
}

func infoPacket(origin string, seq uint64, links map[string]float64, via ...string) *protocol.Packet {
	p := protocol.NewInfo(origin, &protocol.Announcement{Origin: origin, Seq: seq, Neighbours: links}, state.FloodTTL)
	p.Headers = append(p.Headers, via...)
	p.TTL -= len(via)
	return p
}

func encode(t *testing.T, p *protocol.Packet) []byte {
	t.Helper()
	raw, err := p.Encode()
	require.NoError(t, err)
	return raw
}
