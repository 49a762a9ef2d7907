package core

import (
	"github.com/jellydator/ttlcache/v3"

	"github.com/weftmesh/weft/perf"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
)

// Forwarder is the decision point for every packet entering the node:
// dedup, dispatch by kind, and for application messages the
// unicast-or-flood choice.
type Forwarder struct {
	// Seen holds recently processed message ids. Shared by the flooding
	// engine and the forwarding path so a packet is processed at most
	// once no matter which way it arrives.
	Seen *ttlcache.Cache[string, struct{}]
	// Deliver receives messages addressed to this node.
	Deliver func(s *state.State, pkt *protocol.Packet)
}

func (f *Forwarder) Init(s *state.State) error {
	f.Seen = ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](state.SeenTTL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go f.Seen.Start()
	if f.Deliver == nil {
		f.Deliver = func(s *state.State, pkt *protocol.Packet) {
			s.Log.Info("message delivered", "from", pkt.From, "payload", pkt.Payload)
		}
	}
	return nil
}

func (f *Forwarder) Cleanup(s *state.State) error {
	f.Seen.Stop()
	return nil
}

// markSeen records a message id and reports whether it was already
// known.
func (f *Forwarder) markSeen(id string) bool {
	if f.Seen.Has(id) {
		return true
	}
	f.Seen.Set(id, struct{}{}, ttlcache.DefaultTTL)
	return false
}

// processInbound is the single entry point for raw transport payloads.
// It runs on the main loop; nothing here blocks.
func processInbound(s *state.State, raw []byte) error {
	pkt, err := protocol.Decode(raw)
	if err != nil {
		perf.ProtocolErrors.Add(1)
		s.Log.Warn("dropping malformed packet", "error", err)
		return nil
	}
	perf.PacketsReceived.Add(1)
	if state.DBG_log_packets {
		s.Log.Debug("recv", "type", pkt.Type, "from", pkt.From, "to", pkt.To, "ttl", pkt.TTL, "id", pkt.MsgId)
	}

	if Get[*Forwarder](s).markSeen(pkt.MsgId) {
		return nil
	}
	if pkt.SeenBy(string(s.Id)) {
		// a cycle slipped past someone's trail check; refuse it here
		return nil
	}

	switch pkt.Type {
	case protocol.KindHello:
		return onHello(s, state.NodeId(pkt.From))
	case protocol.KindInfo:
		return handleInfo(s, pkt)
	case protocol.KindMessage:
		return forwardMessage(s, pkt)
	}
	return nil
}

// forwardMessage applies the forwarding decision to a message that has
// already passed dedup: deliver, expire, unicast via the table, or
// flood as the convergence fallback.
func forwardMessage(s *state.State, pkt *protocol.Packet) error {
	if state.NodeId(pkt.To) == s.Id {
		perf.MessagesDelivered.Add(1)
		Get[*Forwarder](s).Deliver(s, pkt)
		return nil
	}

	if pkt.TTL <= 0 {
		// expired in transit; normal outcome, not an error
		perf.MessagesExpired.Add(1)
		s.Log.Debug("message expired", "from", pkt.From, "to", pkt.To, "id", pkt.MsgId)
		return nil
	}

	out := pkt.NextHop(string(s.Id))
	if entry, ok := Get[*Router](s).Table[state.NodeId(pkt.To)]; ok && !out.SeenBy(string(entry.Nh)) {
		sendToNode(s, entry.Nh, out)
		s.Log.Debug("message forwarded", "to", pkt.To, "via", entry.Nh, "cost", entry.Cost)
		return nil
	}

	// no usable route yet; controlled flooding keeps delivery possible
	// while the database converges
	perf.MessagesFlooded.Add(1)
	s.Log.Debug("message flooded", "from", pkt.From, "to", pkt.To, "ttl", out.TTL)
	broadcastToNeighbours(s, out)
	return nil
}

// Originate injects a locally-created message. It runs the same path as
// received traffic, so a message to self is simply delivered.
func Originate(s *state.State, to state.NodeId, body any) error {
	pkt := protocol.NewMessage(string(s.Id), string(to), body, state.MessageTTL)
	Get[*Forwarder](s).markSeen(pkt.MsgId)
	return forwardMessage(s, pkt)
}
