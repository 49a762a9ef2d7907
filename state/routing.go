package state

import "time"

// Neighbour tracks liveness of one direct neighbour. Records are never
// deleted, only marked dead after HelloTimeout, and resurrected by the
// next beacon.
type Neighbour struct {
	Id        NodeId
	Cost      float64
	LastHello time.Time
	Alive     bool
}

// LSDBEntry is the most recent adjacency announcement accepted from one
// origin. An announcement with an equal or lower sequence number than
// the stored one is stale and must be dropped.
type LSDBEntry struct {
	Origin     NodeId
	Seq        uint64
	Links      map[NodeId]float64
	ReceivedAt time.Time
}

// TableEntry is one destination of the computed routing table.
type TableEntry struct {
	Dst  NodeId
	Nh   NodeId
	Cost float64
}

// AliveNeighbours returns the current alive adjacency with costs, the
// view this node announces to the network.
func (s *State) AliveNeighbours() map[NodeId]float64 {
	out := make(map[NodeId]float64)
	for id, n := range s.Neighbours {
		if n.Alive {
			out[id] = n.Cost
		}
	}
	return out
}
