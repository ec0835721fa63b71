package datastructure

import (
	"errors"
	"fmt"

	"github.com/new4mezdz/guandao/pkg"
)

var ErrInvalidTopology = errors.New("invalid topology")

type TopologyError struct {
	Entity string // node, pipe or valve
	ID     string
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("invalid topology: %s %q: %s", e.Entity, e.ID, e.Reason)
}

func (e *TopologyError) Unwrap() error {
	return ErrInvalidTopology
}

func NewTopologyError(entity, id, format string, a ...interface{}) error {
	return &TopologyError{Entity: entity, ID: id, Reason: fmt.Sprintf(format, a...)}
}

type SnapshotOption func(*snapshotOptions)

type snapshotOptions struct {
	strictValves bool
}

// StrictValves rejects valves whose controlled pipe is not part of the snapshot.
func StrictValves(strict bool) SnapshotOption {
	return func(o *snapshotOptions) {
		o.strictValves = strict
	}
}

// NetworkSnapshot is a read-only view of the network topology.
// Nothing reachable from it is mutated after NewNetworkSnapshot returns, so one snapshot
// can be shared by concurrent evaluations.
type NetworkSnapshot struct {
	nodes  []Node
	pipes  []Pipe
	valves []Valve

	nodeIndex  map[string]Index
	pipeIndex  map[string]Index
	valveIndex map[string]Index

	pipeValve    map[string]Index // pipe id -> controlling valve position
	orphanValves []string
	minDiameter  float64
}

func NewNetworkSnapshot(nodes []Node, pipes []Pipe, valves []Valve, opts ...SnapshotOption) (*NetworkSnapshot, error) {
	options := snapshotOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s := &NetworkSnapshot{
		nodes:      append([]Node(nil), nodes...),
		pipes:      append([]Pipe(nil), pipes...),
		valves:     append([]Valve(nil), valves...),
		nodeIndex:  make(map[string]Index, len(nodes)),
		pipeIndex:  make(map[string]Index, len(pipes)),
		valveIndex: make(map[string]Index, len(valves)),
		pipeValve:  make(map[string]Index, len(valves)),
	}

	for i, n := range s.nodes {
		if n.id == "" {
			return nil, NewTopologyError("node", n.id, "empty id at position %d", i)
		}
		if n.id == pkg.SUPER_SOURCE_ID || n.id == pkg.SUPER_SINK_ID {
			return nil, NewTopologyError("node", n.id, "id is reserved for the flow network")
		}
		if _, ok := s.nodeIndex[n.id]; ok {
			return nil, NewTopologyError("node", n.id, "duplicate id")
		}
		s.nodeIndex[n.id] = Index(i)
	}

	for i, p := range s.pipes {
		if p.id == "" {
			return nil, NewTopologyError("pipe", p.id, "empty id at position %d", i)
		}
		if _, ok := s.pipeIndex[p.id]; ok {
			return nil, NewTopologyError("pipe", p.id, "duplicate id")
		}
		if _, ok := s.nodeIndex[p.start]; !ok {
			return nil, NewTopologyError("pipe", p.id, "unknown start node %q", p.start)
		}
		if _, ok := s.nodeIndex[p.end]; !ok {
			return nil, NewTopologyError("pipe", p.id, "unknown end node %q", p.end)
		}
		if !(p.diameter > 0) {
			return nil, NewTopologyError("pipe", p.id, "diameter must be positive, got %g", p.diameter)
		}
		if i == 0 || p.diameter < s.minDiameter {
			s.minDiameter = p.diameter
		}
		s.pipeIndex[p.id] = Index(i)
	}

	for i, v := range s.valves {
		if v.id == "" {
			return nil, NewTopologyError("valve", v.id, "empty id at position %d", i)
		}
		if _, ok := s.valveIndex[v.id]; ok {
			return nil, NewTopologyError("valve", v.id, "duplicate id")
		}
		s.valveIndex[v.id] = Index(i)

		if _, ok := s.pipeIndex[v.pipeId]; !ok {
			if options.strictValves {
				return nil, NewTopologyError("valve", v.id, "unknown controlled pipe %q", v.pipeId)
			}
			s.orphanValves = append(s.orphanValves, v.id)
			continue
		}
		if other, ok := s.pipeValve[v.pipeId]; ok {
			return nil, NewTopologyError("valve", v.id, "pipe %q is already controlled by valve %q",
				v.pipeId, s.valves[other].id)
		}
		s.pipeValve[v.pipeId] = Index(i)
	}

	return s, nil
}

func (s *NetworkSnapshot) NumberOfNodes() int {
	return len(s.nodes)
}

func (s *NetworkSnapshot) NumberOfPipes() int {
	return len(s.pipes)
}

func (s *NetworkSnapshot) NumberOfValves() int {
	return len(s.valves)
}

func (s *NetworkSnapshot) GetNode(id string) (Node, bool) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

func (s *NetworkSnapshot) GetNodeIndex(id string) (Index, bool) {
	i, ok := s.nodeIndex[id]
	return i, ok
}

func (s *NetworkSnapshot) GetNodeAt(i Index) Node {
	return s.nodes[i]
}

func (s *NetworkSnapshot) GetPipe(id string) (Pipe, bool) {
	i, ok := s.pipeIndex[id]
	if !ok {
		return Pipe{}, false
	}
	return s.pipes[i], true
}

func (s *NetworkSnapshot) GetValve(id string) (Valve, bool) {
	i, ok := s.valveIndex[id]
	if !ok {
		return Valve{}, false
	}
	return s.valves[i], true
}

// GetControllingValve returns the valve controlling pipeId, if any.
func (s *NetworkSnapshot) GetControllingValve(pipeId string) (Valve, bool) {
	i, ok := s.pipeValve[pipeId]
	if !ok {
		return Valve{}, false
	}
	return s.valves[i], true
}

func (s *NetworkSnapshot) ForEachNode(handle func(n Node)) {
	for _, n := range s.nodes {
		handle(n)
	}
}

func (s *NetworkSnapshot) ForEachPipe(handle func(p Pipe)) {
	for _, p := range s.pipes {
		handle(p)
	}
}

func (s *NetworkSnapshot) ForEachValve(handle func(v Valve)) {
	for _, v := range s.valves {
		handle(v)
	}
}

// GetOrphanValves ids of valves whose controlled pipe is not in the snapshot.
func (s *NetworkSnapshot) GetOrphanValves() []string {
	return append([]string(nil), s.orphanValves...)
}

// GetMinDiameter smallest pipe diameter, 0 for a network without pipes.
func (s *NetworkSnapshot) GetMinDiameter() float64 {
	return s.minDiameter
}

// Records copies of the underlying records, in load order.
func (s *NetworkSnapshot) Records() ([]Node, []Pipe, []Valve) {
	return append([]Node(nil), s.nodes...), append([]Pipe(nil), s.pipes...), append([]Valve(nil), s.valves...)
}
