package core

import (
	"context"

	"github.com/jellydator/ttlcache/v3"

	"github.com/weftmesh/weft/perf"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
)

// LinkState is the link-state database and the flooding/sync engine
// feeding it. It stores the latest accepted announcement per origin and
// re-floods everything it accepts.
type LinkState struct {
	// Seq is this node's own strictly increasing announcement number.
	Seq     uint64
	Entries *ttlcache.Cache[state.NodeId, state.LSDBEntry]

	announcePending bool
}

func (l *LinkState) Init(s *state.State) error {
	l.Entries = ttlcache.New[state.NodeId, state.LSDBEntry](
		ttlcache.WithTTL[state.NodeId, state.LSDBEntry](state.LSDBMaxAge()),
		ttlcache.WithDisableTouchOnHit[state.NodeId, state.LSDBEntry](),
	)
	l.Entries.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[state.NodeId, state.LSDBEntry]) {
		if reason != ttlcache.EvictionReasonExpired || s.Context.Err() != nil {
			return
		}
		s.Dispatch(func(s *state.State) error {
			s.Log.Warn("link-state entry expired", "origin", item.Key())
			return recomputeRoutes(s)
		})
	})
	go l.Entries.Start()
	s.RepeatTask(announceSelf, state.InfoInterval)
	return nil
}

func (l *LinkState) Cleanup(s *state.State) error {
	l.Entries.Stop()
	return nil
}

// Snapshot copies the current database, keyed by origin.
func (l *LinkState) Snapshot() map[state.NodeId]state.LSDBEntry {
	out := make(map[state.NodeId]state.LSDBEntry)
	for origin, item := range l.Entries.Items() {
		out[origin] = item.Value()
	}
	return out
}

// handleInfo runs the acceptance protocol for one flooded announcement.
// Dedup and the anti-cycle trail check already happened upstream.
func handleInfo(s *state.State, pkt *protocol.Packet) error {
	ann, err := pkt.Announcement()
	if err != nil {
		perf.ProtocolErrors.Add(1)
		s.Log.Warn("dropping invalid announcement", "from", pkt.From, "error", err)
		return nil
	}
	origin := state.NodeId(ann.Origin)
	if origin == s.Id {
		// own announcement looped back
		return nil
	}

	l := Get[*LinkState](s)
	if cur := l.Entries.Get(origin); cur != nil && cur.Value().Seq >= ann.Seq {
		perf.StaleInfos.Add(1)
		return nil
	}

	l.Entries.Set(origin, state.LSDBEntry{
		Origin:     origin,
		Seq:        ann.Seq,
		Links:      toNodeCosts(ann.Neighbours),
		ReceivedAt: s.Clock.Now(),
	}, ttlcache.DefaultTTL)
	s.Log.Debug("accepted announcement", "origin", origin, "seq", ann.Seq, "links", len(ann.Neighbours))

	if err := recomputeRoutes(s); err != nil {
		return err
	}

	// accepted announcements are unconditionally re-flooded
	out := pkt.NextHop(string(s.Id))
	if out.TTL > 0 {
		broadcastToNeighbours(s, out)
	}
	return nil
}

// announceSelf floods this node's current alive adjacency under a fresh
// sequence number. Runs periodically and whenever the adjacency changes.
func announceSelf(s *state.State) error {
	l := Get[*LinkState](s)
	l.Seq++
	view := s.AliveNeighbours()
	pkt := protocol.NewInfo(string(s.Id), &protocol.Announcement{
		Origin:     string(s.Id),
		Seq:        l.Seq,
		Neighbours: toWireCosts(view),
	}, state.FloodTTL)
	s.Log.Debug("announcing adjacency", "seq", l.Seq, "links", len(view))
	broadcastToNeighbours(s, pkt)
	return nil
}

// scheduleAnnounce coalesces change-triggered announcements so a burst
// of adjacency changes floods the network once, not once per change.
func scheduleAnnounce(s *state.State) error {
	l := Get[*LinkState](s)
	if l.announcePending {
		return nil
	}
	l.announcePending = true
	s.ScheduleTask(func(s *state.State) error {
		Get[*LinkState](s).announcePending = false
		if err := recomputeRoutes(s); err != nil {
			return err
		}
		return announceSelf(s)
	}, state.AnnounceDebounce)
	return nil
}
