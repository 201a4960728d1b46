package main

import (
	"encoding/json"
	"fmt"
	"os"

	"clipshare/internal/config"
	"clipshare/internal/rpc"

	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	authToken string
	target    string
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "clipctl",
	Short: "clipctl - browse and react to clipshare items from the terminal",
	Long: `clipctl talks to the platform service over gRPC.
List items, like, save, bookmark or favorite them, and seed a development database.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("CLIPSHARE_TOKEN")
		}
		if target == "" {
			target = cfg.Server.RPCTarget
		}
	},
}

func init() {
	cfg = config.LoadConfig()

	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Session token (defaults to CLIPSHARE_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&target, "target", "", "Platform service address (defaults to RPC_TARGET)")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(listCmd)
	for _, c := range toggleCmds() {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(seedCmd)
}

func dial() (*rpc.Client, error) {
	return rpc.Dial(target, authToken)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
