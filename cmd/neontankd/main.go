// neontankd is the authoritative game server for NeonTank, a two-player
// arena combat game. It runs fixed-step simulation sessions over
// WebSocket and archives finished matches to sqlite.
//
// Usage:
//
//	neontankd serve             - Start the game server
//	neontankd serve --config f  - Start with a YAML config file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagConfig string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neontankd",
	Short: "NeonTank - authoritative arena combat server",
	Long: `neontankd runs the NeonTank game server: one process hosts many
two-player sessions, each with its own fixed-rate simulation loop.

Examples:
  neontankd serve
  neontankd serve --addr :9000
  neontankd serve --config neontank.yaml`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}
