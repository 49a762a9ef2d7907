package state

import "time"

var (
	// HelloInterval is the fixed period between liveness beacons,
	// independent of any received traffic.
	HelloInterval = time.Second * 5
	// HelloTimeout marks a direct neighbour dead when no beacon arrives
	// within it.
	HelloTimeout = time.Second * 20
	// NeighbourSweepDelay is how often dead neighbours are scanned for.
	NeighbourSweepDelay = time.Second * 5

	// InfoInterval is the period of unconditional self-announcements.
	InfoInterval = time.Second * 12
	// AnnounceDebounce coalesces change-triggered announcements.
	AnnounceDebounce = time.Millisecond * 400
	// LSDBMaxAgeFactor keeps a live origin refreshed well before its
	// entry can expire.
	LSDBMaxAgeFactor = 3

	// SeenTTL bounds the dedup window. Must exceed the worst-case flood
	// propagation time across the network diameter.
	SeenTTL = time.Second * 120

	// FloodTTL bounds announcement floods to the network diameter.
	FloodTTL = 8
	// MessageTTL is the default hop budget for application messages.
	MessageTTL = 8

	// DefaultLinkCost is used when the topology does not state one.
	DefaultLinkCost = 1.0

	PersistDelay = time.Second * 30
)

// LSDBMaxAge is the staleness threshold for link-state entries.
func LSDBMaxAge() time.Duration {
	return time.Duration(LSDBMaxAgeFactor) * InfoInterval
}
