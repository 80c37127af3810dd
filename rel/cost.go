package rel

import (
	"fmt"
	"math"
)

// Cost is the estimated cost of evaluating a node: rows produced, CPU work
// and I/O.
type Cost struct {
	Rows float64
	CPU  float64
	IO   float64
}

// InfiniteCost is larger than any finite cost.
var InfiniteCost = Cost{Rows: math.Inf(1), CPU: math.Inf(1), IO: math.Inf(1)}

// CostWeights combines the components of a cost into one number.
type CostWeights struct {
	Rows float64 `json:"rows"`
	CPU  float64 `json:"cpu"`
	IO   float64 `json:"io"`
}

// DefaultCostWeights rank costs by rows, CPU and I/O with equal weight.
var DefaultCostWeights = CostWeights{Rows: 1, CPU: 1, IO: 1}

func (c Cost) Plus(o Cost) Cost {
	return Cost{Rows: c.Rows + o.Rows, CPU: c.CPU + o.CPU, IO: c.IO + o.IO}
}

func (c Cost) IsInfinite() bool {
	return math.IsInf(c.Rows, 1) || math.IsInf(c.CPU, 1) || math.IsInf(c.IO, 1)
}

func (c Cost) Value(w CostWeights) float64 {
	return c.Rows*w.Rows + c.CPU*w.CPU + c.IO*w.IO
}

// Less orders costs by weighted value.
func (c Cost) Less(o Cost, w CostWeights) bool {
	return c.Value(w) < o.Value(w)
}

func (c Cost) String() string {
	if c.IsInfinite() {
		return "{inf}"
	}
	return fmt.Sprintf("{%g rows, %g cpu, %g io}", c.Rows, c.CPU, c.IO)
}
