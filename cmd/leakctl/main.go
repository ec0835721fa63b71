// leakctl evaluates leaks against a network file without running the server.
//
// Usage:
//
//	leakctl evaluate --network=<file> --pipe=<id> --type=<ordinary|burst> [--failed-valve=<id>] [--json]
//	leakctl batch    --network=<file> --leak=<pipe:type[:failed valve]>... [--json]
//	leakctl locate   --network=<file> --x=<x> --y=<y> --radius=<r> [--limit=<n>]
//	leakctl convert  --from=<file|db> --to=<file>
//	leakctl summary  --network=<file>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootFlags struct {
	network   string
	configDir string
	verbose   bool
}

var rootCmd = &cobra.Command{
	Use:   "leakctl",
	Short: "Valve closure planning for water network leaks",
	Long:  "leakctl loads a network (yaml, json, optionally .bz2, or a legacy sqlite database)\nand answers which valves isolate a leaking pipe.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.network, "network", "./data/network.yaml", "network file (.yaml/.yml/.json[.bz2]) or sqlite database (.db/.sqlite)")
	pf.StringVar(&rootFlags.configDir, "config", "./data/", "directory holding config.yaml")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "log engine decisions to stderr")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
