package state

import "fmt"

// NodeCfg represents a central representation of one node in the mesh
type NodeCfg struct {
	Id      NodeId
	Channel string `yaml:",omitempty"` // defaults to <section>.<topo>.<id>
}

// LinkCfg declares one undirected link of the configured topology.
type LinkCfg struct {
	A    NodeId
	B    NodeId
	Cost float64 `yaml:",omitempty"` // defaults to DefaultLinkCost
}

// MeshCfg is the network-global configuration, shared by every node.
type MeshCfg struct {
	Section string `yaml:",omitempty"`
	Topo    string `yaml:",omitempty"`
	Nodes   []NodeCfg
	Links   []LinkCfg
}

// RedisCfg points at the pub/sub broker carrying the mesh.
type RedisCfg struct {
	Addr     string
	Password string `yaml:",omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	Id        NodeId
	Redis     RedisCfg
	LogPath   string `yaml:"log_path,omitempty"`   // if not empty, weft also writes logs to this file
	StatePath string `yaml:"state_path,omitempty"` // if not empty, state snapshots are persisted here
}

// ChannelOf resolves the pub/sub channel a node listens on.
func (c *MeshCfg) ChannelOf(id NodeId) string {
	for _, n := range c.Nodes {
		if n.Id == id && n.Channel != "" {
			return n.Channel
		}
	}
	return fmt.Sprintf("%s.%s.%s", c.Section, c.Topo, id)
}

// HasNode reports whether id is declared in the mesh.
func (c *MeshCfg) HasNode(id NodeId) bool {
	for _, n := range c.Nodes {
		if n.Id == id {
			return true
		}
	}
	return false
}

// NeighboursOf returns the configured adjacency of one node with link
// costs filled in.
func (c *MeshCfg) NeighboursOf(id NodeId) map[NodeId]float64 {
	out := make(map[NodeId]float64)
	for _, l := range c.Links {
		cost := l.Cost
		if cost == 0 {
			cost = DefaultLinkCost
		}
		switch id {
		case l.A:
			out[l.B] = cost
		case l.B:
			out[l.A] = cost
		}
	}
	return out
}
