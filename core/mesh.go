package core

import (
	"github.com/weftmesh/weft/perf"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
	"github.com/weftmesh/weft/transport"
)

// Mesh owns the transport: it drains the inbound stream onto the main
// loop and carries all outbound sends. Send failures are warnings; the
// node keeps routing on cached state and self-heals once the transport
// recovers.
type Mesh struct {
	Transport transport.Transport
}

func (m *Mesh) Init(s *state.State) error {
	if err := m.Transport.Connect(s.Context); err != nil {
		return err
	}
	go m.pump(s.Env)
	return nil
}

func (m *Mesh) Cleanup(s *state.State) error {
	return m.Transport.Close()
}

func (m *Mesh) pump(e *state.Env) {
	for raw := range m.Transport.Receive() {
		if e.Context.Err() != nil {
			return
		}
		e.Dispatch(func(s *state.State) error {
			return processInbound(s, raw)
		})
	}
}

func sendToNode(s *state.State, to state.NodeId, pkt *protocol.Packet) {
	raw, err := pkt.Encode()
	if err != nil {
		s.Log.Warn("failed to encode packet", "type", pkt.Type, "error", err)
		return
	}
	m := Get[*Mesh](s)
	if err := m.Transport.Publish(s.Context, s.ChannelOf(to), raw); err != nil {
		perf.SendErrors.Add(1)
		s.Log.Warn("send failed", "to", to, "type", pkt.Type, "error", err)
		return
	}
	perf.PacketsSent.Add(1)
}

// broadcastHello reaches every configured neighbour, alive or not:
// beacons are how dead links are rediscovered.
func broadcastHello(s *state.State, pkt *protocol.Packet) {
	t := Get[*NeighbourTracker](s)
	for id := range t.Configured {
		sendToNode(s, id, pkt)
	}
}

// broadcastToNeighbours floods pkt to every alive neighbour that is not
// on its visited trail (which covers both self and the immediate
// sender after NextHop).
func broadcastToNeighbours(s *state.State, pkt *protocol.Packet) {
	for id, n := range s.Neighbours {
		if !n.Alive || pkt.SeenBy(string(id)) {
			continue
		}
		sendToNode(s, id, pkt)
	}
}
