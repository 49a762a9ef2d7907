package core

import (
	"container/heap"

	"github.com/weftmesh/weft/state"
)

type pqItem struct {
	node state.NodeId
	dist float64
}

type minPQ []pqItem

func (q minPQ) Len() int { return len(q) }
func (q minPQ) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q minPQ) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *minPQ) Push(x any)   { *q = append(*q, x.(pqItem)) }
func (q *minPQ) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Dijkstra computes the next hop and total cost from src to every
// reachable node of the graph. Unreachable destinations are absent from
// the result. Ties on equal cost resolve to the lexicographically
// smaller next hop, so every node observing the same database computes
// the same table.
func Dijkstra(graph map[state.NodeId]map[state.NodeId]float64, src state.NodeId) map[state.NodeId]state.TableEntry {
	dist := map[state.NodeId]float64{src: 0}
	nextHop := make(map[state.NodeId]state.NodeId)
	visited := make(map[state.NodeId]bool)

	pq := &minPQ{{node: src, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		u := heap.Pop(pq).(pqItem)
		if visited[u.node] {
			continue
		}
		visited[u.node] = true

		for v, w := range graph[u.node] {
			if visited[v] {
				continue
			}
			alt := dist[u.node] + w
			// the first hop toward v if we go through u
			nh := nextHop[u.node]
			if u.node == src {
				nh = v
			}
			cur, known := dist[v]
			if !known || alt < cur || (alt == cur && nh < nextHop[v]) {
				dist[v] = alt
				nextHop[v] = nh
				heap.Push(pq, pqItem{node: v, dist: alt})
			}
		}
	}

	table := make(map[state.NodeId]state.TableEntry, len(dist)-1)
	for v, d := range dist {
		if v == src {
			continue
		}
		table[v] = state.TableEntry{Dst: v, Nh: nextHop[v], Cost: d}
	}
	return table
}
