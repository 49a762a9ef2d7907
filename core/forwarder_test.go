package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
	"github.com/weftmesh/weft/transport"
)

// messageVia builds a message as it would look after travelling the
// given trail.
func messageVia(from, to string, body any, via ...string) *protocol.Packet {
	p := protocol.NewMessage(from, to, body, state.MessageTTL)
	p.Headers = append(p.Headers, via...)
	p.TTL -= len(via)
	return p
}

func TestMessageDeliveredToSelf(t *testing.T) {
	hub := transport.NewHub()
	c := newTestNode(t, hub, chainMesh(), "C")

	pkt := messageVia("A", "C", "ping", "A", "B")
	require.NoError(t, processInbound(c.s, encode(t, pkt)))

	require.Len(t, c.delivered, 1)
	assert.Equal(t, "A", c.delivered[0].From)
	assert.Equal(t, "ping", c.delivered[0].Payload)
}

func TestDuplicateMessageDeliveredOnce(t *testing.T) {
	hub := transport.NewHub()
	c := newTestNode(t, hub, chainMesh(), "C")

	raw := encode(t, messageVia("A", "C", "ping", "A", "B"))
	require.NoError(t, processInbound(c.s, raw))
	require.NoError(t, processInbound(c.s, raw))

	assert.Len(t, c.delivered, 1)
}

func TestExpiredMessageDroppedSilently(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")
	tapD := newTap(t, hub, mesh, "D")

	pkt := messageVia("A", "E", "ping", "A", "B")
	pkt.TTL = 0
	require.NoError(t, forwardMessage(c.s, pkt))

	assert.Empty(t, c.delivered)
	tapD.expectNone(protocol.KindMessage)
}

func TestMessageUnicastAlongTable(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")
	Get[*Router](c.s).Table = map[state.NodeId]state.TableEntry{
		"E": {Dst: "E", Nh: "D", Cost: 2},
	}

	tapB := newTap(t, hub, mesh, "B")
	tapD := newTap(t, hub, mesh, "D")

	in := messageVia("A", "E", "ping", "A", "B")
	require.NoError(t, forwardMessage(c.s, in))

	out := tapD.next(protocol.KindMessage)
	require.NotNil(t, out)
	assert.Equal(t, in.TTL-1, out.TTL)
	assert.Equal(t, []string{"A", "B", "C"}, out.Headers)
	assert.Equal(t, in.MsgId, out.MsgId)
	tapB.expectNone(protocol.KindMessage)
}

func TestMessageFloodedWithoutRoute(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")

	tapB := newTap(t, hub, mesh, "B")
	tapD := newTap(t, hub, mesh, "D")

	// no route for E yet; the flood must skip the trail (B) and reach D
	require.NoError(t, forwardMessage(c.s, messageVia("A", "E", "ping", "A", "B")))

	require.NotNil(t, tapD.next(protocol.KindMessage))
	tapB.expectNone(protocol.KindMessage)
}

func TestMessageNotFloodedToDeadNeighbours(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B") // D is down

	tapD := newTap(t, hub, mesh, "D")
	require.NoError(t, forwardMessage(c.s, messageVia("A", "E", "ping", "A", "B")))
	tapD.expectNone(protocol.KindMessage)
}

func TestTrailCycleRefused(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")
	tapD := newTap(t, hub, mesh, "D")

	// C already appears in the trail; the packet must die here
	require.NoError(t, processInbound(c.s, encode(t, messageVia("A", "E", "ping", "A", "B", "C"))))
	tapD.expectNone(protocol.KindMessage)
}

func TestUnicastFallsBackToFloodOnTrailHit(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")
	// the table points back at a node the packet already visited
	Get[*Router](c.s).Table = map[state.NodeId]state.TableEntry{
		"E": {Dst: "E", Nh: "B", Cost: 9},
	}

	tapB := newTap(t, hub, mesh, "B")
	tapD := newTap(t, hub, mesh, "D")

	require.NoError(t, forwardMessage(c.s, messageVia("A", "E", "ping", "A", "B")))
	require.NotNil(t, tapD.next(protocol.KindMessage))
	tapB.expectNone(protocol.KindMessage)
}

func TestOriginateToSelf(t *testing.T) {
	hub := transport.NewHub()
	c := newTestNode(t, hub, chainMesh(), "C")

	require.NoError(t, Originate(c.s, "C", "note to self"))
	require.Len(t, c.delivered, 1)
	assert.Equal(t, "note to self", c.delivered[0].Payload)
}

func TestOriginateUnicast(t *testing.T) {
	hub := transport.NewHub()
	mesh := chainMesh()
	c := newTestNode(t, hub, mesh, "C")
	c.markAlive("B", "D")
	Get[*Router](c.s).Table = map[state.NodeId]state.TableEntry{
		"A": {Dst: "A", Nh: "B", Cost: 2},
	}
	tapB := newTap(t, hub, mesh, "B")

	require.NoError(t, Originate(c.s, "A", "hi"))
	out := tapB.next(protocol.KindMessage)
	require.NotNil(t, out)
	assert.Equal(t, "C", out.From)
	assert.Equal(t, state.MessageTTL-1, out.TTL)
	assert.Equal(t, []string{"C"}, out.Headers)
}

func TestMalformedPacketDropped(t *testing.T) {
	hub := transport.NewHub()
	c := newTestNode(t, hub, chainMesh(), "C")

	require.NoError(t, processInbound(c.s, []byte("{not json")))
	require.NoError(t, processInbound(c.s, []byte(`{"proto":"lsr","type":"bogus","from":"A","to":"C","ttl":3,"msg_id":"x"}`)))
	assert.Empty(t, c.delivered)
}
