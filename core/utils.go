package core

import (
	"reflect"

	"github.com/weftmesh/weft/state"
)

func Get[T state.Module](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

func toNodeCosts(m map[string]float64) map[state.NodeId]float64 {
	out := make(map[state.NodeId]float64, len(m))
	for k, v := range m {
		out[state.NodeId(k)] = v
	}
	return out
}

func toWireCosts(m map[state.NodeId]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
