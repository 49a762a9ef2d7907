package core

import (
	"slices"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/weftmesh/weft/state"
)

// renderTable prints the routing table to the console. Enabled with the
// --ltable flag.
func renderTable(s *state.State, table map[state.NodeId]state.TableEntry) {
	dsts := make([]state.NodeId, 0, len(table))
	for dst := range table {
		dsts = append(dsts, dst)
	}
	slices.Sort(dsts)

	data := pterm.TableData{{"destination", "next hop", "cost"}}
	for _, dst := range dsts {
		e := table[dst]
		data = append(data, []string{
			string(dst),
			string(e.Nh),
			strconv.FormatFloat(e.Cost, 'g', -1, 64),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		s.Log.Warn("failed to render routing table", "error", err)
	}
}
