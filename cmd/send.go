package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/weftmesh/weft/core"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
)

// sendCmd injects a message into the mesh through the local node: the
// packet is published on the node's own channel and the node forwards
// it like any other traffic.
var sendCmd = &cobra.Command{
	Use:   "send [to] [message]",
	Short: "Send a message to a node in the mesh",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			_ = cmd.Usage()
			return
		}
		to := state.NodeId(args[0])
		body := strings.Join(args[1:], " ")

		meshCfg, err := core.ReadMeshConfig(state.MeshConfigPath)
		if err != nil {
			panic(err)
		}
		nodeCfg, err := core.ReadNodeConfig(state.NodeConfigPath)
		if err != nil {
			panic(err)
		}
		if !meshCfg.HasNode(to) {
			fmt.Printf("Node %s is not declared in the mesh\n", to)
			os.Exit(1)
		}

		pkt := protocol.NewMessage(string(nodeCfg.Id), string(to), body, state.MessageTTL)
		raw, err := pkt.Encode()
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     nodeCfg.Redis.Addr,
			Password: nodeCfg.Redis.Password,
			DB:       nodeCfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := rdb.Publish(ctx, meshCfg.ChannelOf(nodeCfg.Id), raw).Err(); err != nil {
			panic(err)
		}
		fmt.Printf("Sent %s to %s (id %s)\n", pkt.Type, to, pkt.MsgId)
	},
	GroupID: "wf",
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
