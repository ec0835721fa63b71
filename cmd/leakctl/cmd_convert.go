package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/new4mezdz/guandao/pkg/topology"
)

var convertFlags struct {
	from, to string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a network between sqlite, yaml and json (.bz2 optional)",
	RunE:  runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertFlags.from, "from", "", "source file or sqlite database (required)")
	f.StringVar(&convertFlags.to, "to", "", "target .yaml/.yml/.json, optionally with .bz2 (required)")

	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	doc, err := loadDocument(cmd.Context(), convertFlags.from)
	if err != nil {
		return err
	}
	// refuse to write a network the engine would reject
	if _, err := doc.Snapshot(); err != nil {
		return err
	}
	if err := topology.WriteSnapshotFile(convertFlags.to, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d pipes, %d valves\n",
		convertFlags.to, len(doc.Nodes), len(doc.Pipes), len(doc.Valves))
	return nil
}
