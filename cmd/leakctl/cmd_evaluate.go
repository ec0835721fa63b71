package main

import (
	"github.com/spf13/cobra"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
)

var evaluateFlags struct {
	pipe        string
	leakType    string
	failedValve string
	json        bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute the closure plan for one leak",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.pipe, "pipe", "", "leaking pipe id (required)")
	f.StringVar(&evaluateFlags.leakType, "type", "ordinary", "leak type: ordinary or burst")
	f.StringVar(&evaluateFlags.failedValve, "failed-valve", "", "valve to simulate as failed for this evaluation")
	f.BoolVar(&evaluateFlags.json, "json", false, "print the result as json")

	_ = evaluateCmd.MarkFlagRequired("pipe")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	request := da.ParseLeakRequest(evaluateFlags.pipe, evaluateFlags.leakType, evaluateFlags.failedValve)
	res, err := s.engine.Evaluate(ctx, s.snapshot, request)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evaluateFlags.json {
		return writeJSON(out, res)
	}
	printResult(out, res)
	return nil
}
