package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/weftmesh/weft/state"
)

// newCmd scaffolds a node config for one member of the mesh.
var newCmd = &cobra.Command{
	Use:   "new [id]",
	Short: "Create a node configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			_ = cmd.Usage()
			return
		}
		nodeCfg := state.LocalCfg{
			Id: state.NodeId(args[0]),
			Redis: state.RedisCfg{
				Addr: cmd.Flag("redis").Value.String(),
			},
		}

		ncfg, err := yaml.Marshal(&nodeCfg)
		if err != nil {
			panic(err)
		}

		outPath := cmd.Flag("output").Value.String()
		err = os.WriteFile(outPath, ncfg, 0o600)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Wrote node config for %s to %s\n", args[0], outPath)
	},
	GroupID: "init",
}

// meshCmd scaffolds an example mesh topology to start editing from.
var meshCmd = &cobra.Command{
	Use:   "mesh [section] [topo]",
	Short: "Create an example mesh configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			_ = cmd.Usage()
			return
		}
		meshCfg := state.MeshCfg{
			Section: args[0],
			Topo:    args[1],
			Nodes: []state.NodeCfg{
				{Id: "A"}, {Id: "B"}, {Id: "C"},
			},
			Links: []state.LinkCfg{
				{A: "A", B: "B"},
				{A: "B", B: "C"},
			},
		}

		mcfg, err := yaml.Marshal(&meshCfg)
		if err != nil {
			panic(err)
		}

		outPath := cmd.Flag("output").Value.String()
		err = os.WriteFile(outPath, mcfg, 0o644)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Wrote mesh config to %s, edit the topology to match your network\n", outPath)
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringP("output", "o", state.NodeConfigPath, "node config output file path")
	newCmd.Flags().String("redis", "127.0.0.1:6379", "address of the Redis broker")

	rootCmd.AddCommand(meshCmd)
	meshCmd.Flags().StringP("output", "o", state.MeshConfigPath, "mesh config output file path")
}
