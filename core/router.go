package core

import (
	"slices"

	"github.com/weftmesh/weft/perf"
	"github.com/weftmesh/weft/state"
)

// Router computes next hops from the link-state database. The table is
// replaced wholesale on every recomputation, never mutated in place, so
// the forwarding engine can never observe a half-updated view.
type Router struct {
	Table map[state.NodeId]state.TableEntry
}

func (r *Router) Init(s *state.State) error {
	r.Table = make(map[state.NodeId]state.TableEntry)
	return nil
}

func (r *Router) Cleanup(s *state.State) error {
	return nil
}

// buildGraph merges this node's alive adjacency with every announced
// adjacency in the database into one undirected weighted graph.
func buildGraph(s *state.State) map[state.NodeId]map[state.NodeId]float64 {
	graph := make(map[state.NodeId]map[state.NodeId]float64)
	addEdge := func(a, b state.NodeId, w float64) {
		if w <= 0 {
			w = state.DefaultLinkCost
		}
		if graph[a] == nil {
			graph[a] = make(map[state.NodeId]float64)
		}
		if graph[b] == nil {
			graph[b] = make(map[state.NodeId]float64)
		}
		if _, ok := graph[a][b]; !ok {
			graph[a][b] = w
		}
		if _, ok := graph[b][a]; !ok {
			graph[b][a] = w
		}
	}

	if graph[s.Id] == nil {
		graph[s.Id] = make(map[state.NodeId]float64)
	}
	for n, cost := range s.AliveNeighbours() {
		addEdge(s.Id, n, cost)
	}
	// merge origins in a fixed order so two origins disagreeing on a
	// link cost resolve the same way on every node
	db := Get[*LinkState](s).Snapshot()
	origins := make([]state.NodeId, 0, len(db))
	for origin := range db {
		origins = append(origins, origin)
	}
	slices.Sort(origins)
	for _, origin := range origins {
		links := db[origin].Links
		targets := make([]state.NodeId, 0, len(links))
		for n := range links {
			targets = append(targets, n)
		}
		slices.Sort(targets)
		for _, n := range targets {
			addEdge(origin, n, links[n])
		}
	}
	return graph
}

// recomputeRoutes is synchronous and idempotent: two runs over the same
// database yield the same table.
func recomputeRoutes(s *state.State) error {
	r := Get[*Router](s)
	graph := buildGraph(s)
	old := r.Table
	r.Table = Dijkstra(graph, s.Id)
	perf.RouteRecomputes.Add(1)
	s.Log.Debug("routing table updated", "destinations", len(r.Table))
	if state.DBG_log_router {
		for dst, e := range r.Table {
			if prev, ok := old[dst]; !ok || prev != e {
				s.Log.Info("route updated", "dst", dst, "nh", e.Nh, "cost", e.Cost)
			}
		}
		for dst := range old {
			if _, ok := r.Table[dst]; !ok {
				s.Log.Info("route lost", "dst", dst)
			}
		}
	}
	if state.DBG_log_route_table {
		renderTable(s, r.Table)
	}
	return nil
}
