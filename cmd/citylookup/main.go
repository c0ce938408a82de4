// Command citylookup queries a running citycost server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	server    string
	masterKey string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCommand := &cobra.Command{
		Use:           "citylookup",
		Short:         "Look up city cost-of-living and rent data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("CITYCOST_SERVER", "http://localhost:8080"), "citycost server base URL")
	flags.StringVar(&opts.masterKey, "master-key", os.Getenv("MASTER_KEY"), "bearer key for the server")

	rootCommand.AddCommand(newCostCommand(opts), newRentCommand(opts))
	return rootCommand
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
