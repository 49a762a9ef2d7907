package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/weftmesh/weft/state"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft Link-State Mesh CLI",
	Long: `Weft is a link-state routing daemon for pub/sub meshes.
Every node floods its adjacency over the shared broker, computes shortest
paths from the resulting database, and forwards application messages hop
by hop even while the network is still converging.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Initialize Weft",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "wf",
		Title: "Weft Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&state.NodeConfigPath, "node-config", "n", state.NodeConfigPath, "node-specific config")
	rootCmd.PersistentFlags().StringVarP(&state.MeshConfigPath, "mesh-config", "c", state.MeshConfigPath, "network-global config")
}
