package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/new4mezdz/guandao/pkg/spatialindex"
)

var locateFlags struct {
	x, y, radius float64
	limit        int
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "List the pipes closest to a reported leak location",
	RunE:  runLocate,
}

func init() {
	f := locateCmd.Flags()
	f.Float64Var(&locateFlags.x, "x", 0, "reported x")
	f.Float64Var(&locateFlags.y, "y", 0, "reported y")
	f.Float64Var(&locateFlags.radius, "radius", 1, "search radius in network units")
	f.IntVar(&locateFlags.limit, "limit", 5, "max pipes")
}

func runLocate(cmd *cobra.Command, _ []string) error {
	if locateFlags.radius <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	rt := spatialindex.NewRtree()
	rt.Build(s.snapshot, s.log)

	out := cmd.OutOrStdout()
	hits := rt.SearchWithinRadius(locateFlags.x, locateFlags.y, locateFlags.radius, locateFlags.limit)
	if len(hits) == 0 {
		fmt.Fprintf(out, "No pipe within %g of (%g, %g)\n", locateFlags.radius, locateFlags.x, locateFlags.y)
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%-10s distance %.3f at (%.3f, %.3f)\n", h.PipeID, h.Distance, h.X, h.Y)
	}
	return nil
}
