package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/logger"
	"github.com/new4mezdz/guandao/pkg/topology"
	"github.com/new4mezdz/guandao/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func loadDocument(ctx context.Context, path string) (*topology.Document, error) {
	if !isSQLite(path) {
		return topology.ReadSnapshotFile(path)
	}
	src, err := topology.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Load(ctx)
}

type session struct {
	log      *zap.Logger
	engine   *engine.Engine
	snapshot *da.NetworkSnapshot
}

// openSession config, logger, engine and the validated snapshot of --network.
func openSession(ctx context.Context) (*session, error) {
	if err := util.ReadConfig(rootFlags.configDir); err != nil {
		return nil, err
	}
	if !rootFlags.verbose {
		viper.Set("LOG_LEVEL", "warn")
	} else {
		viper.Set("LOG_LEVEL", "debug")
	}
	log, err := logger.New()
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(engine.ConfigFromViper(), log)
	if err != nil {
		return nil, err
	}
	doc, err := loadDocument(ctx, rootFlags.network)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rootFlags.network, err)
	}
	nodes, pipes, valves, err := doc.Records()
	if err != nil {
		return nil, err
	}
	snapshot, err := eng.NewSnapshot(nodes, pipes, valves)
	if err != nil {
		return nil, err
	}
	if err := eng.CheckSnapshot(snapshot); err != nil {
		return nil, err
	}
	return &session{log: log, engine: eng, snapshot: snapshot}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func printResult(w io.Writer, res isolation.IsolationResult) {
	fmt.Fprintf(w, "Leak pipe:       %s (%s)\n", res.LeakPipeID, res.LeakType)
	if res.IsFailure() {
		fmt.Fprintf(w, "Failure:         %s\n", res.Failure)
	}
	fmt.Fprintf(w, "Close valves:    %s\n", joinOrDash(res.NeedCloseValves))
	fmt.Fprintf(w, "Lost valves:     %s\n", joinOrDash(res.LostValves))
	fmt.Fprintf(w, "Isolatable:      %s\n", res.Isolatable)
	if res.MinCutValue != nil {
		fmt.Fprintf(w, "Min cut value:   %s\n", res.MinCutValue)
	}
	if res.BurstOutcome != "" {
		fmt.Fprintf(w, "Burst outcome:   %s\n", res.BurstOutcome)
	}
	if len(res.CutEdges) > 0 {
		fmt.Fprintf(w, "Cut edges:\n")
		for _, e := range res.CutEdges {
			valve := e.ValveID
			if valve == "" {
				valve = "no valve"
			}
			fmt.Fprintf(w, "  %s -> %s  [%s, %s]\n", e.Start, e.End, e.PipeID, valve)
		}
	}
	if len(res.OrphanValves) > 0 {
		fmt.Fprintf(w, "Orphan valves:   %s\n", joinOrDash(res.OrphanValves))
	}
	fmt.Fprintf(w, "Recommendation:  %s\n", res.Recommendation)
}

// parseLeak "P103:ordinary" or "P103:ordinary:V104".
func parseLeak(s string) (da.LeakRequest, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return da.LeakRequest{}, fmt.Errorf("leak %q: want pipe:type[:failed valve]", s)
	}
	failed := ""
	if len(parts) == 3 {
		failed = parts[2]
	}
	return da.ParseLeakRequest(parts[0], parts[1], failed), nil
}
