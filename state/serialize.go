package state

import "encoding/json"

// Snapshot is the durable image of a node's routing state. The cadence
// and location of persistence live outside the core; these types only
// fix the shape.
type Snapshot struct {
	Node       NodeId                `json:"node_id"`
	Seq        uint64                `json:"seq"`
	Neighbours map[NodeId]Neighbour  `json:"neighbors"`
	LSDB       map[NodeId]LSDBEntry  `json:"lsdb"`
	Table      map[NodeId]TableEntry `json:"routing_table"`
}

func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
