package costfunction

import (
	"errors"
	"fmt"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/new4mezdz/guandao/pkg/datastructure"
)

var ErrLeakCapacityTooLarge = errors.New("leak capacity is not smaller than the smallest diameter-derived capacity")

// TierCapacityPolicy capacity = diameter^2 * multiplier(tier of destination node).
// The leak pipe is pinned to leakCapacity so the min cut always runs at or upstream of the leak.
type TierCapacityPolicy struct {
	leakCapacity       float64
	multipliers        [3]float64
	skipDecommissioned bool
}

type TierCapacityOption func(*TierCapacityPolicy)

func WithTierMultipliers(a, b, c float64) TierCapacityOption {
	return func(p *TierCapacityPolicy) {
		p.multipliers = [3]float64{a, b, c}
	}
}

// WithSkipDecommissioned decommissioned pipes get zero capacity.
func WithSkipDecommissioned(skip bool) TierCapacityOption {
	return func(p *TierCapacityPolicy) {
		p.skipDecommissioned = skip
	}
}

// NewTierCapacityPolicy. minDiameter is the smallest diameter (mm) that may be deployed, the
// leak capacity must stay below its tier C capacity.
func NewTierCapacityPolicy(leakCapacity, minDiameter float64, opts ...TierCapacityOption) (*TierCapacityPolicy, error) {
	p := &TierCapacityPolicy{
		leakCapacity: leakCapacity,
		multipliers:  [3]float64{pkg.TIER_A_MULTIPLIER, pkg.TIER_B_MULTIPLIER, pkg.TIER_C_MULTIPLIER},
	}
	for _, opt := range opts {
		opt(p)
	}

	if !(leakCapacity > 0) {
		return nil, fmt.Errorf("leak capacity must be positive, got %g", leakCapacity)
	}
	for i, m := range p.multipliers {
		if !(m > 0) {
			return nil, fmt.Errorf("tier %s multiplier must be positive, got %g", datastructure.ServiceTier(i), m)
		}
	}
	if err := p.checkDiameter(minDiameter); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *TierCapacityPolicy) GetLeakCapacity() float64 {
	return p.leakCapacity
}

func (p *TierCapacityPolicy) GetMultiplier(tier datastructure.ServiceTier) float64 {
	return p.multipliers[tier]
}

func (p *TierCapacityPolicy) GetCapacity(e EdgeAttributes, destinationTier datastructure.ServiceTier,
	isLeakPipe bool) datastructure.Capacity {
	if isLeakPipe {
		return datastructure.Bounded(p.leakCapacity)
	}
	if p.skipDecommissioned && e.GetPipeStatus() == datastructure.PIPE_DECOMMISSIONED {
		return datastructure.Bounded(0)
	}
	d := e.GetDiameter()
	return datastructure.Bounded(d * d * p.multipliers[destinationTier])
}

// CheckSnapshot verifies the leak capacity against the smallest pipe of a loaded network.
func (p *TierCapacityPolicy) CheckSnapshot(snapshot *datastructure.NetworkSnapshot) error {
	if snapshot.NumberOfPipes() == 0 {
		return nil
	}
	return p.checkDiameter(snapshot.GetMinDiameter())
}

func (p *TierCapacityPolicy) checkDiameter(diameter float64) error {
	if diameter <= 0 {
		return nil
	}
	minCapacity := diameter * diameter * p.lowestMultiplier()
	if p.leakCapacity >= minCapacity {
		return fmt.Errorf("%w: leak capacity %g, diameter %g mm gives %g", ErrLeakCapacityTooLarge,
			p.leakCapacity, diameter, minCapacity)
	}
	return nil
}

func (p *TierCapacityPolicy) lowestMultiplier() float64 {
	lowest := p.multipliers[0]
	for _, m := range p.multipliers[1:] {
		if m < lowest {
			lowest = m
		}
	}
	return lowest
}
