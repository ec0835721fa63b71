package topology

import (
	"errors"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
)

var ErrUnsupportedFormat = errors.New("unsupported topology format")

// Document is the on-disk shape of a network. statuses and tiers stay text here and are
// parsed when the document is turned into records.
type Document struct {
	Nodes  []NodeRecord  `yaml:"nodes" json:"nodes"`
	Pipes  []PipeRecord  `yaml:"pipes" json:"pipes"`
	Valves []ValveRecord `yaml:"valves" json:"valves"`
}

type NodeRecord struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Category string  `yaml:"category" json:"category"`
	Tier     string  `yaml:"tier" json:"tier"`
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
}

type PipeRecord struct {
	ID       string  `yaml:"id" json:"id"`
	Start    string  `yaml:"start" json:"start"`
	End      string  `yaml:"end" json:"end"`
	Diameter float64 `yaml:"diameter" json:"diameter"` // mm
	Status   string  `yaml:"status" json:"status"`
}

type ValveRecord struct {
	ID     string `yaml:"id" json:"id"`
	PipeID string `yaml:"pipe_id" json:"pipe_id"`
	Status string `yaml:"status" json:"status"`
}

// Records parses the text enums. an unknown pipe or valve status is an invalid topology,
// an unknown tier is tier C.
func (d *Document) Records() ([]da.Node, []da.Pipe, []da.Valve, error) {
	nodes := make([]da.Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		nodes = append(nodes, da.NewNode(n.ID, n.Name, n.Category, da.ParseServiceTier(n.Tier), n.X, n.Y))
	}

	pipes := make([]da.Pipe, 0, len(d.Pipes))
	for _, p := range d.Pipes {
		status, ok := da.ParsePipeStatus(p.Status)
		if !ok {
			return nil, nil, nil, da.NewTopologyError("pipe", p.ID, "unknown status %q", p.Status)
		}
		pipes = append(pipes, da.NewPipe(p.ID, p.Start, p.End, p.Diameter, status))
	}

	valves := make([]da.Valve, 0, len(d.Valves))
	for _, v := range d.Valves {
		status, ok := da.ParseValveStatus(v.Status)
		if !ok {
			return nil, nil, nil, da.NewTopologyError("valve", v.ID, "unknown status %q", v.Status)
		}
		valves = append(valves, da.NewValve(v.ID, v.PipeID, status))
	}
	return nodes, pipes, valves, nil
}

// Snapshot parses and validates the document.
func (d *Document) Snapshot(opts ...da.SnapshotOption) (*da.NetworkSnapshot, error) {
	nodes, pipes, valves, err := d.Records()
	if err != nil {
		return nil, err
	}
	return da.NewNetworkSnapshot(nodes, pipes, valves, opts...)
}

func NewDocument(nodes []da.Node, pipes []da.Pipe, valves []da.Valve) *Document {
	doc := &Document{
		Nodes:  make([]NodeRecord, 0, len(nodes)),
		Pipes:  make([]PipeRecord, 0, len(pipes)),
		Valves: make([]ValveRecord, 0, len(valves)),
	}
	for _, n := range nodes {
		x, y := n.GetCoordinate()
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: n.GetID(), Name: n.GetName(), Category: n.GetCategory(),
			Tier: n.GetTier().String(), X: x, Y: y})
	}
	for _, p := range pipes {
		doc.Pipes = append(doc.Pipes, PipeRecord{ID: p.GetID(), Start: p.GetStart(), End: p.GetEnd(),
			Diameter: p.GetDiameter(), Status: p.GetStatus().String()})
	}
	for _, v := range valves {
		doc.Valves = append(doc.Valves, ValveRecord{ID: v.GetID(), PipeID: v.GetPipeID(), Status: v.GetStatus().String()})
	}
	return doc
}

func DocumentOf(snapshot *da.NetworkSnapshot) *Document {
	return NewDocument(snapshot.Records())
}
