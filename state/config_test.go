package state

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMesh = `
section: sec10
topo: topo1
nodes:
  - id: A
  - id: B
    channel: custom.channel.B
  - id: C
links:
  - a: A
    b: B
  - a: B
    b: C
    cost: 2.5
`

func TestMeshConfigParse(t *testing.T) {
	var cfg MeshCfg
	require.NoError(t, yaml.Unmarshal([]byte(sampleMesh), &cfg))
	require.NoError(t, MeshConfigValidator(&cfg))

	assert.Equal(t, "sec10.topo1.A", cfg.ChannelOf("A"))
	assert.Equal(t, "custom.channel.B", cfg.ChannelOf("B"))
	assert.True(t, cfg.HasNode("C"))
	assert.False(t, cfg.HasNode("Z"))

	assert.Equal(t, map[NodeId]float64{"A": 1, "C": 2.5}, cfg.NeighboursOf("B"))
	assert.Equal(t, map[NodeId]float64{"B": 1}, cfg.NeighboursOf("A"))
	assert.Empty(t, cfg.NeighboursOf("Z"))
}

func TestMeshConfigValidation(t *testing.T) {
	cases := map[string]MeshCfg{
		"no nodes":     {},
		"empty id":     {Nodes: []NodeCfg{{Id: ""}}},
		"duplicate id": {Nodes: []NodeCfg{{Id: "A"}, {Id: "A"}}},
		"self link": {
			Nodes: []NodeCfg{{Id: "A"}},
			Links: []LinkCfg{{A: "A", B: "A"}},
		},
		"unknown node link": {
			Nodes: []NodeCfg{{Id: "A"}},
			Links: []LinkCfg{{A: "A", B: "B"}},
		},
		"negative cost": {
			Nodes: []NodeCfg{{Id: "A"}, {Id: "B"}},
			Links: []LinkCfg{{A: "A", B: "B", Cost: -1}},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, MeshConfigValidator(&cfg))
		})
	}
}

func TestNodeConfigValidation(t *testing.T) {
	mesh := MeshCfg{Nodes: []NodeCfg{{Id: "A"}}}

	ok := LocalCfg{Id: "A", Redis: RedisCfg{Addr: "localhost:6379"}}
	assert.NoError(t, NodeConfigValidator(&mesh, &ok))

	missing := LocalCfg{Id: "Z", Redis: RedisCfg{Addr: "localhost:6379"}}
	assert.Error(t, NodeConfigValidator(&mesh, &missing))

	noRedis := LocalCfg{Id: "A"}
	assert.Error(t, NodeConfigValidator(&mesh, &noRedis))
}

func TestLocalConfigRoundTrip(t *testing.T) {
	cfg := LocalCfg{
		Id:        "A",
		Redis:     RedisCfg{Addr: "localhost:6379", DB: 2},
		StatePath: "/var/lib/weft/A.json",
	}
	buf, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	var back LocalCfg
	require.NoError(t, yaml.Unmarshal(buf, &back))
	assert.Equal(t, cfg, back)
}
