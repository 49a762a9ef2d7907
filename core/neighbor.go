package core

import (
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
)

// NeighbourTracker maintains direct-neighbour liveness from HELLO
// beacons and detects link-down by timeout.
type NeighbourTracker struct {
	// Configured is the adjacency declared in the mesh topology, with
	// link costs. Loaded once at startup, never re-read.
	Configured map[state.NodeId]float64
}

func (t *NeighbourTracker) Init(s *state.State) error {
	t.Configured = s.MeshCfg.NeighboursOf(s.LocalCfg.Id)
	if len(t.Configured) == 0 {
		s.Log.Warn("node has no configured neighbours")
	}
	for id, cost := range t.Configured {
		s.Neighbours[id] = &state.Neighbour{Id: id, Cost: cost}
	}
	s.RepeatTask(sendHello, state.HelloInterval)
	s.RepeatTask(sweepNeighbours, state.NeighbourSweepDelay)
	return nil
}

func (t *NeighbourTracker) Cleanup(s *state.State) error {
	return nil
}

func sendHello(s *state.State) error {
	broadcastHello(s, protocol.NewHello(string(s.Id)))
	return nil
}

func onHello(s *state.State, from state.NodeId) error {
	if from == s.Id {
		return nil
	}
	t := Get[*NeighbourTracker](s)
	n, ok := s.Neighbours[from]
	if !ok {
		// a neighbour the topology didn't declare; track it at default cost
		cost, declared := t.Configured[from]
		if !declared {
			cost = state.DefaultLinkCost
		}
		n = &state.Neighbour{Id: from, Cost: cost}
		s.Neighbours[from] = n
	}
	n.LastHello = s.Clock.Now()
	if !n.Alive {
		n.Alive = true
		s.Log.Info("neighbour up", "id", from)
		// converge faster than the periodic announcement
		return scheduleAnnounce(s)
	}
	return nil
}

func sweepNeighbours(s *state.State) error {
	now := s.Clock.Now()
	changed := false
	for id, n := range s.Neighbours {
		if n.Alive && now.Sub(n.LastHello) >= state.HelloTimeout {
			n.Alive = false
			changed = true
			s.Log.Warn("neighbour down", "id", id, "lastHello", n.LastHello)
		}
	}
	if changed {
		return scheduleAnnounce(s)
	}
	return nil
}
