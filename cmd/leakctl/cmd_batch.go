package main

import (
	"fmt"

	"github.com/spf13/cobra"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/http/usecases"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/new4mezdz/guandao/pkg/topology"
	"github.com/spf13/viper"
)

var batchFlags struct {
	leaks []string
	json  bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate several leaks independently and merge their closure plans",
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringArrayVar(&batchFlags.leaks, "leak", nil, "pipe:type[:failed valve], repeatable (required)")
	f.BoolVar(&batchFlags.json, "json", false, "print the batch as json")

	_ = batchCmd.MarkFlagRequired("leak")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	requests := make([]da.LeakRequest, 0, len(batchFlags.leaks))
	for _, l := range batchFlags.leaks {
		request, err := parseLeak(l)
		if err != nil {
			return err
		}
		requests = append(requests, request)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	store := topology.NewSnapshotStore(nil, nil, s.log)
	store.Set(s.snapshot)

	service, err := usecases.NewIsolationService(s.log, s.engine, store, metrics.NewRegistry(), 0, viper.GetInt("batch.workers"))
	if err != nil {
		return err
	}
	batch, err := service.EvaluateBatch(ctx, requests)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batchFlags.json {
		return writeJSON(out, batch)
	}
	for i, res := range batch.Results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printResult(out, res)
	}
	fmt.Fprintf(out, "\nMerged plan\n")
	fmt.Fprintf(out, "Close valves:    %s\n", joinOrDash(batch.NeedCloseValves))
	fmt.Fprintf(out, "Lost valves:     %s\n", joinOrDash(batch.LostValves))
	fmt.Fprintf(out, "Isolatable:      %s\n", batch.Isolatable)
	return nil
}
