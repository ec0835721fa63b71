package datastructure

import (
	"encoding/json"
	"strconv"
)

// Capacity is either a bounded non-negative value or unbounded.
// Unbounded is a tag, never a float infinity.
type Capacity struct {
	value     float64
	unbounded bool
}

func Bounded(value float64) Capacity {
	if value < 0 {
		value = 0
	}
	return Capacity{value: value}
}

func Unbounded() Capacity {
	return Capacity{unbounded: true}
}

func (c Capacity) IsUnbounded() bool {
	return c.unbounded
}

// GetValue value of a bounded capacity, 0 for unbounded.
func (c Capacity) GetValue() float64 {
	if c.unbounded {
		return 0
	}
	return c.value
}

func (c Capacity) Add(o Capacity) Capacity {
	if c.unbounded || o.unbounded {
		return Unbounded()
	}
	return Bounded(c.value + o.value)
}

func (c Capacity) Less(o Capacity) bool {
	switch {
	case c.unbounded:
		return false
	case o.unbounded:
		return true
	default:
		return c.value < o.value
	}
}

func (c Capacity) String() string {
	if c.unbounded {
		return "unbounded"
	}
	return strconv.FormatFloat(c.value, 'f', -1, 64)
}

// MarshalJSON bounded capacities encode as numbers, unbounded as the string "unbounded".
func (c Capacity) MarshalJSON() ([]byte, error) {
	if c.unbounded {
		return []byte(`"unbounded"`), nil
	}
	return json.Marshal(c.value)
}

func (c *Capacity) UnmarshalJSON(data []byte) error {
	if string(data) == `"unbounded"` {
		*c = Unbounded()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Bounded(v)
	return nil
}
