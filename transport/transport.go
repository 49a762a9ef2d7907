// Package transport carries packets between weft nodes over logical
// pub/sub channels. The core is transport-agnostic: it only publishes
// raw payloads to channels and drains one inbound stream.
package transport

import "context"

// Transport is the collaborator contract consumed by the core. Sends
// are best-effort; a failed send is a warning to the caller, never a
// reason to unwind routing state.
type Transport interface {
	// Connect acquires the transport and subscribes to this node's own
	// channel.
	Connect(ctx context.Context) error
	// Close releases the transport. The receive stream ends and is not
	// restartable afterwards.
	Close() error
	// Publish sends one payload to one channel.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Broadcast sends one payload to many channels.
	Broadcast(ctx context.Context, channels []string, payload []byte) error
	// Receive returns the inbound payload stream. The channel is closed
	// when the transport closes.
	Receive() <-chan []byte
}
