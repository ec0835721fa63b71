package isolation

import (
	"context"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/overlay"
)

// Evaluation inputs shared by both strategies, valid for a single evaluation.
type Evaluation struct {
	Snapshot *da.NetworkSnapshot
	LeakPipe da.Pipe
	Valves   *overlay.ValveOverlay
}

type Strategy interface {
	Isolate(ctx context.Context, ev *Evaluation) (Outcome, error)
}
