// Package protocol defines the wire envelope shared by every weft node.
// Packets travel as JSON over the pub/sub transport and are validated
// here, at the boundary, before they are allowed into the core.
package protocol

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProtoName identifies the routing protocol on the wire.
const ProtoName = "lsr"

// Broadcast is the destination sentinel for flooded packet kinds.
const Broadcast = "broadcast"

type Kind string

const (
	KindHello   Kind = "hello"
	KindInfo    Kind = "info"
	KindMessage Kind = "message"
)

var (
	// MaxTTL bounds the ttl field accepted off the wire.
	MaxTTL = 64
	// MaxTrail caps the visited-node trail carried in headers.
	MaxTrail = 16
)

// Announcement is the payload of an info packet: one origin's current
// adjacency view and its sequence number.
type Announcement struct {
	Origin     string             `json:"origin"`
	Seq        uint64             `json:"seq"`
	Neighbours map[string]float64 `json:"neighbors"`
}

// Packet is the wire envelope. Treat values as immutable once decoded;
// forwarding derives new packets through NextHop.
type Packet struct {
	Proto     string   `json:"proto"`
	Type      Kind     `json:"type"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	TTL       int      `json:"ttl"`
	Headers   []string `json:"headers"`
	MsgId     string   `json:"msg_id"`
	Payload   any      `json:"payload,omitempty"`
	Timestamp float64  `json:"timestamp,omitempty"`
}

// Decode parses and validates a raw transport payload. Anything that
// fails here is a protocol error: the caller drops the packet and logs.
func Decode(raw []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed packet: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Packet) Validate() error {
	switch p.Type {
	case KindHello, KindInfo, KindMessage:
	default:
		return fmt.Errorf("unknown packet type %q", p.Type)
	}
	if p.From == "" {
		return fmt.Errorf("%s packet missing from", p.Type)
	}
	if p.To == "" {
		return fmt.Errorf("%s packet missing to", p.Type)
	}
	if p.MsgId == "" {
		return fmt.Errorf("%s packet missing msg_id", p.Type)
	}
	if p.TTL < 0 || p.TTL > MaxTTL {
		return fmt.Errorf("ttl %d out of range", p.TTL)
	}
	if len(p.Headers) > MaxTrail {
		p.Headers = p.Headers[len(p.Headers)-MaxTrail:]
	}
	switch p.Type {
	case KindHello:
		if p.To != Broadcast {
			return fmt.Errorf("hello packet must be addressed to %q", Broadcast)
		}
	case KindInfo:
		ann, err := p.Announcement()
		if err != nil {
			return err
		}
		// normalize so later readers don't re-parse
		p.Payload = ann
	}
	return nil
}

// Announcement extracts the info payload. Payload may arrive as an
// arbitrary JSON object, so it is re-marshalled through the struct.
func (p *Packet) Announcement() (*Announcement, error) {
	if p.Type != KindInfo {
		return nil, fmt.Errorf("no announcement in %s packet", p.Type)
	}
	if ann, ok := p.Payload.(*Announcement); ok {
		return ann, nil
	}
	buf, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("malformed info payload: %w", err)
	}
	var ann Announcement
	if err := json.Unmarshal(buf, &ann); err != nil {
		return nil, fmt.Errorf("malformed info payload: %w", err)
	}
	if ann.Origin == "" {
		return nil, fmt.Errorf("info payload missing origin")
	}
	return &ann, nil
}

// Encode renders the packet for the transport.
func (p *Packet) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// SeenBy reports whether node already appears in the visited trail.
func (p *Packet) SeenBy(node string) bool {
	return slices.Contains(p.Headers, node)
}

// PrevHop is the node that forwarded this packet to us, or "" if the
// trail is empty (packet came straight from its origin).
func (p *Packet) PrevHop() string {
	if len(p.Headers) == 0 {
		return ""
	}
	return p.Headers[len(p.Headers)-1]
}

// NextHop derives the copy a node forwards onward: ttl decremented by
// one (never below zero) and the node appended to the trail.
func (p *Packet) NextHop(node string) *Packet {
	out := *p
	out.TTL = max(0, p.TTL-1)
	out.Headers = append(slices.Clone(p.Headers), node)
	if len(out.Headers) > MaxTrail {
		out.Headers = out.Headers[len(out.Headers)-MaxTrail:]
	}
	return &out
}

func newPacket(kind Kind, from, to string, ttl int, payload any) *Packet {
	return &Packet{
		Proto:     ProtoName,
		Type:      kind,
		From:      from,
		To:        to,
		TTL:       ttl,
		Headers:   []string{},
		MsgId:     uuid.NewString(),
		Payload:   payload,
		Timestamp: float64(time.Now().UnixMilli()) / 1000.0,
	}
}

// NewHello builds a one-hop liveness beacon. Receivers must never
// forward it, hence ttl = 1.
func NewHello(from string) *Packet {
	return newPacket(KindHello, from, Broadcast, 1, nil)
}

// NewInfo builds a flooded link-state announcement. The origin seeds
// the trail with itself.
func NewInfo(from string, ann *Announcement, ttl int) *Packet {
	p := newPacket(KindInfo, from, Broadcast, ttl, ann)
	p.Headers = []string{from}
	return p
}

// NewMessage builds an application message with a fresh unique id.
// Retransmissions of the same logical message must reuse the packet,
// not call NewMessage again.
func NewMessage(from, to string, body any, ttl int) *Packet {
	return newPacket(KindMessage, from, to, ttl, body)
}
