package state

import (
	"fmt"
	"slices"
)

func MeshConfigValidator(cfg *MeshCfg) error {
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("mesh config must declare at least one node")
	}
	seen := make([]NodeId, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		if n.Id == "" {
			return fmt.Errorf("node id must not be empty")
		}
		if slices.Contains(seen, n.Id) {
			return fmt.Errorf("duplicate node id %q", n.Id)
		}
		seen = append(seen, n.Id)
	}
	for _, l := range cfg.Links {
		if l.A == l.B {
			return fmt.Errorf("link %s-%s must connect two distinct nodes", l.A, l.B)
		}
		if !slices.Contains(seen, l.A) || !slices.Contains(seen, l.B) {
			return fmt.Errorf("link %s-%s references an undeclared node", l.A, l.B)
		}
		if l.Cost < 0 {
			return fmt.Errorf("link %s-%s has negative cost %v", l.A, l.B, l.Cost)
		}
	}
	return nil
}

func NodeConfigValidator(mesh *MeshCfg, cfg *LocalCfg) error {
	if cfg.Id == "" {
		return fmt.Errorf("node id must not be empty")
	}
	if !mesh.HasNode(cfg.Id) {
		return fmt.Errorf("node %q is not declared in the mesh config", cfg.Id)
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis address must not be empty")
	}
	return nil
}
