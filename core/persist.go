package core

import (
	"os"
	"time"

	"github.com/facebookgo/atomicfile"

	"github.com/weftmesh/weft/state"
)

// Persistor snapshots routing state to disk so a restarted node resumes
// with a warm database and, crucially, its own sequence number.
// Persistence is best-effort: a failed write or a corrupt file is a
// warning, never fatal.
type Persistor struct{}

func (p *Persistor) Init(s *state.State) error {
	if s.StatePath == "" {
		return nil
	}
	loadSnapshot(s)
	s.RepeatTask(saveSnapshot, state.PersistDelay)
	return nil
}

func (p *Persistor) Cleanup(s *state.State) error {
	if s.StatePath == "" {
		return nil
	}
	return saveSnapshot(s)
}

func loadSnapshot(s *state.State) {
	data, err := os.ReadFile(s.StatePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Log.Warn("failed to read state snapshot", "path", s.StatePath, "error", err)
		}
		return
	}
	snap, err := state.UnmarshalSnapshot(data)
	if err != nil {
		s.Log.Warn("discarding corrupt state snapshot", "path", s.StatePath, "error", err)
		return
	}
	if snap.Node != s.Id {
		s.Log.Warn("state snapshot belongs to another node", "found", snap.Node)
		return
	}

	l := Get[*LinkState](s)
	l.Seq = snap.Seq
	now := s.Clock.Now()
	for origin, entry := range snap.LSDB {
		age := now.Sub(entry.ReceivedAt)
		if age < 0 || age >= state.LSDBMaxAge() {
			continue
		}
		l.Entries.Set(origin, entry, state.LSDBMaxAge()-age)
	}
	for id, n := range snap.Neighbours {
		// liveness never survives a restart; costs and records do
		rec := n
		rec.Alive = false
		rec.LastHello = time.Time{}
		s.Neighbours[id] = &rec
	}
	s.Log.Info("restored state snapshot", "seq", snap.Seq, "origins", len(snap.LSDB))
	_ = recomputeRoutes(s)
}

func saveSnapshot(s *state.State) error {
	snap := state.Snapshot{
		Node:       s.Id,
		Seq:        Get[*LinkState](s).Seq,
		Neighbours: make(map[state.NodeId]state.Neighbour),
		LSDB:       Get[*LinkState](s).Snapshot(),
		Table:      Get[*Router](s).Table,
	}
	for id, n := range s.Neighbours {
		snap.Neighbours[id] = *n
	}

	data, err := snap.Marshal()
	if err != nil {
		s.Log.Warn("failed to serialize state snapshot", "error", err)
		return nil
	}
	f, err := atomicfile.New(s.StatePath, 0o644)
	if err != nil {
		s.Log.Warn("failed to open state snapshot", "path", s.StatePath, "error", err)
		return nil
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Abort()
		s.Log.Warn("failed to write state snapshot", "path", s.StatePath, "error", err)
		return nil
	}
	if err := f.Close(); err != nil {
		s.Log.Warn("failed to commit state snapshot", "path", s.StatePath, "error", err)
	}
	return nil
}
