package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/new4mezdz/guandao/pkg/http/usecases"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show counts, supply origins, lost and orphan valves of a network",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the summary as json")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	summary := usecases.Summarize(s.snapshot, 0, s.engine.GetSupplyNodes())

	out := cmd.OutOrStdout()
	if summaryJSON {
		return writeJSON(out, summary)
	}
	fmt.Fprintf(out, "Nodes:          %d\n", summary.Nodes)
	for _, tier := range sortedKeys(summary.NodesByTier) {
		fmt.Fprintf(out, "  tier %s:       %d\n", tier, summary.NodesByTier[tier])
	}
	fmt.Fprintf(out, "Pipes:          %d\n", summary.Pipes)
	for _, status := range sortedKeys(summary.PipesByStatus) {
		fmt.Fprintf(out, "  %-14s%d\n", status+":", summary.PipesByStatus[status])
	}
	fmt.Fprintf(out, "Valves:         %d\n", summary.Valves)
	fmt.Fprintf(out, "Supply origins: %s\n", joinOrDash(summary.SupplyNodes))
	fmt.Fprintf(out, "Lost valves:    %s\n", joinOrDash(summary.LostValves))
	fmt.Fprintf(out, "Orphan valves:  %s\n", joinOrDash(summary.OrphanValves))
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
