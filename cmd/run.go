package cmd

import (
	"github.com/spf13/cobra"

	"github.com/weftmesh/weft/core"
	"github.com/weftmesh/weft/state"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a weft node",
	Long:  `This will run a weft node on the current host. Ensure the Redis broker in the node config is reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		err := core.Bootstrap(state.MeshConfigPath, state.NodeConfigPath, verbose)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "wf",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().BoolVarP(&state.DBG_debug, "debug", "d", false, "Serve expvar metrics on :6060")
	runCmd.Flags().BoolVarP(&state.DBG_log_packets, "lpacket", "p", false, "Write received packets to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_router, "lroute", "r", false, "Write router updates to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_route_table, "ltable", "t", false, "Outputs route table to the console")
}
