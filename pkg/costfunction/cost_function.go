package costfunction

import (
	"github.com/new4mezdz/guandao/pkg/datastructure"
)

type EdgeAttributes interface {
	GetPipeID() string
	GetDiameter() float64
	GetPipeStatus() datastructure.PipeStatus
}

// CapacityFunction assigns every pipe edge of a flow graph its capacity.
// destinationTier is the service tier of the node the pipe feeds.
type CapacityFunction interface {
	GetCapacity(e EdgeAttributes, destinationTier datastructure.ServiceTier, isLeakPipe bool) datastructure.Capacity
}
