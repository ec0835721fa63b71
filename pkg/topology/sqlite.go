package topology

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	selectNodes  = `SELECT Node_ID, Node_Name, Node_Type, Level, Location_X, Location_Y FROM building_nodes ORDER BY rowid`
	selectPipes  = `SELECT Pipe_ID, Start_Node_ID, End_Node_ID, Diameter, Status FROM pipes ORDER BY rowid`
	selectValves = `SELECT Valve_ID, Controlled_Pipe_ID, Status FROM valves ORDER BY rowid`
)

// SQLiteSource reads the building_nodes / pipes / valves tables. it never writes.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullFloat(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

func (s *SQLiteSource) Load(ctx context.Context) (*Document, error) {
	doc := &Document{}

	rows, err := s.db.QueryContext(ctx, selectNodes)
	if err != nil {
		return nil, fmt.Errorf("query building_nodes: %w", err)
	}
	for rows.Next() {
		var (
			id                   string
			name, category, tier sql.NullString
			x, y                 sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &category, &tier, &x, &y); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan building_nodes: %w", err)
		}
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: id, Name: nullStr(name), Category: nullStr(category),
			Tier: nullStr(tier), X: nullFloat(x), Y: nullFloat(y)})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, selectPipes)
	if err != nil {
		return nil, fmt.Errorf("query pipes: %w", err)
	}
	for rows.Next() {
		var (
			id, start, end string
			diameter       sql.NullFloat64
			status         sql.NullString
		)
		if err := rows.Scan(&id, &start, &end, &diameter, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pipes: %w", err)
		}
		doc.Pipes = append(doc.Pipes, PipeRecord{ID: id, Start: start, End: end,
			Diameter: nullFloat(diameter), Status: nullStr(status)})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, selectValves)
	if err != nil {
		return nil, fmt.Errorf("query valves: %w", err)
	}
	for rows.Next() {
		var (
			id     string
			pipeId sql.NullString
			status sql.NullString
		)
		if err := rows.Scan(&id, &pipeId, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan valves: %w", err)
		}
		doc.Valves = append(doc.Valves, ValveRecord{ID: id, PipeID: nullStr(pipeId), Status: nullStr(status)})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return doc, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
