package datastructure

import (
	"strings"
)

type ServiceTier uint8

const (
	TIER_A ServiceTier = iota
	TIER_B
	TIER_C
)

func (t ServiceTier) String() string {
	switch t {
	case TIER_A:
		return "A"
	case TIER_B:
		return "B"
	default:
		return "C"
	}
}

// ParseServiceTier. unknown or missing level is treated as tier C.
func ParseServiceTier(level string) ServiceTier {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "A":
		return TIER_A
	case "B":
		return TIER_B
	default:
		return TIER_C
	}
}

type PipeStatus uint8

const (
	PIPE_NORMAL PipeStatus = iota
	PIPE_UNDER_REPAIR
	PIPE_DECOMMISSIONED
)

func (s PipeStatus) String() string {
	switch s {
	case PIPE_UNDER_REPAIR:
		return "under_repair"
	case PIPE_DECOMMISSIONED:
		return "decommissioned"
	default:
		return "normal"
	}
}

func ParsePipeStatus(status string) (PipeStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "normal", "正常", "":
		return PIPE_NORMAL, true
	case "under_repair", "under repair", "repair", "维修":
		return PIPE_UNDER_REPAIR, true
	case "decommissioned", "停用":
		return PIPE_DECOMMISSIONED, true
	default:
		return PIPE_NORMAL, false
	}
}

type ValveStatus uint8

const (
	VALVE_NORMAL ValveStatus = iota
	VALVE_FAILED
)

func (s ValveStatus) String() string {
	if s == VALVE_FAILED {
		return "failed"
	}
	return "normal"
}

func ParseValveStatus(status string) (ValveStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "normal", "正常", "":
		return VALVE_NORMAL, true
	case "failed", "失效", "失灵":
		return VALVE_FAILED, true
	default:
		return VALVE_NORMAL, false
	}
}

type LeakType uint8

const (
	LEAK_INVALID LeakType = iota
	LEAK_ORDINARY
	LEAK_BURST
)

func (l LeakType) String() string {
	switch l {
	case LEAK_ORDINARY:
		return "ordinary"
	case LEAK_BURST:
		return "burst"
	default:
		return "invalid"
	}
}

func (l LeakType) IsValid() bool {
	return l == LEAK_ORDINARY || l == LEAK_BURST
}

// ParseLeakType never fails, unrecognized text maps to LEAK_INVALID so the engine can
// answer with an error-tagged result instead of the caller guessing.
func ParseLeakType(leakType string) LeakType {
	switch strings.ToLower(strings.TrimSpace(leakType)) {
	case "ordinary", "普通漏损":
		return LEAK_ORDINARY
	case "burst", "爆管":
		return LEAK_BURST
	default:
		return LEAK_INVALID
	}
}

func (l LeakType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LeakType) UnmarshalText(text []byte) error {
	*l = ParseLeakType(string(text))
	return nil
}

type Node struct {
	id       string
	name     string
	category string
	tier     ServiceTier
	x, y     float64 // presentation only
}

func NewNode(id, name, category string, tier ServiceTier, x, y float64) Node {
	return Node{id: id, name: name, category: category, tier: tier, x: x, y: y}
}

func (n Node) GetID() string {
	return n.id
}

func (n Node) GetName() string {
	return n.name
}

func (n Node) GetCategory() string {
	return n.category
}

func (n Node) GetTier() ServiceTier {
	return n.tier
}

func (n Node) GetCoordinate() (float64, float64) {
	return n.x, n.y
}

type Pipe struct {
	id       string
	start    string
	end      string
	diameter float64 // mm
	status   PipeStatus
}

func NewPipe(id, start, end string, diameter float64, status PipeStatus) Pipe {
	return Pipe{id: id, start: start, end: end, diameter: diameter, status: status}
}

func (p Pipe) GetID() string {
	return p.id
}

func (p Pipe) GetStart() string {
	return p.start
}

func (p Pipe) GetEnd() string {
	return p.end
}

func (p Pipe) GetDiameter() float64 {
	return p.diameter
}

func (p Pipe) GetStatus() PipeStatus {
	return p.status
}

// SharesEndpointWith true if either endpoint of o touches either endpoint of p.
func (p Pipe) SharesEndpointWith(o Pipe) bool {
	return o.start == p.start || o.start == p.end || o.end == p.start || o.end == p.end
}

type Valve struct {
	id     string
	pipeId string
	status ValveStatus
}

func NewValve(id, pipeId string, status ValveStatus) Valve {
	return Valve{id: id, pipeId: pipeId, status: status}
}

func (v Valve) GetID() string {
	return v.id
}

func (v Valve) GetPipeID() string {
	return v.pipeId
}

func (v Valve) GetStatus() ValveStatus {
	return v.status
}

// WithStatus returns a copy, the snapshot's valve is never touched.
func (v Valve) WithStatus(status ValveStatus) Valve {
	v.status = status
	return v
}

type LeakRequest struct {
	PipeID        string
	LeakType      LeakType
	LeakTypeText  string // what the operator sent, echoed back when it is not recognized
	FailedValveID string // empty when no extra failure is simulated
}

func NewLeakRequest(pipeId string, leakType LeakType, failedValveId string) LeakRequest {
	return LeakRequest{PipeID: pipeId, LeakType: leakType, FailedValveID: NormalizeValveID(failedValveId)}
}

// ParseLeakRequest keeps the raw leak type text next to the parsed type.
func ParseLeakRequest(pipeId, leakType, failedValveId string) LeakRequest {
	req := NewLeakRequest(pipeId, ParseLeakType(leakType), failedValveId)
	req.LeakTypeText = leakType
	return req
}

// GetLeakTypeText raw text when one was given, the parsed name otherwise.
func (r LeakRequest) GetLeakTypeText() string {
	if r.LeakTypeText != "" {
		return r.LeakTypeText
	}
	return r.LeakType.String()
}

// NormalizeValveID maps the "no valve" spellings used by operators to the empty id.
func NormalizeValveID(id string) string {
	id = strings.TrimSpace(id)
	switch strings.ToLower(id) {
	case "none", "无", "-":
		return ""
	}
	return id
}
