package simulator

import (
	"fmt"
	"math"

	"github.com/domino14/glassbot/board"
)

// Weights are the tunable coefficients of the static evaluation. Holes are
// weighted by depth: a hole on row y costs (Height-y)^HoleExponent when it
// sits under a filled cell of its own column, and (Height-y)^NeighborExponent
// when it is only covered from an adjacent column.
type Weights struct {
	Lines            float64
	Height           float64
	Holes            float64
	Bumpiness        float64
	HoleExponent     int
	NeighborExponent int
}

var DefaultWeights = Weights{
	Lines:            0.760666,
	Height:           0.510066,
	Holes:            0.001,
	Bumpiness:        0.184483,
	HoleExponent:     3,
	NeighborExponent: 2,
}

func (w Weights) String() string {
	return fmt.Sprintf("lines=%.4f height=%.4f holes=%.4f bumpiness=%.4f exp=%d/%d",
		w.Lines, w.Height, w.Holes, w.Bumpiness, w.HoleExponent, w.NeighborExponent)
}

// Heuristic is a compiled set of Weights with the per-row depth factors
// precomputed.
type Heuristic struct {
	weights  Weights
	sameCol  [board.Height]float64
	adjacent [board.Height]float64
}

func NewHeuristic(w Weights) *Heuristic {
	h := &Heuristic{weights: w}
	for y := 0; y < board.Height; y++ {
		depth := float64(board.Height - y)
		h.sameCol[y] = math.Pow(depth, float64(w.HoleExponent))
		h.adjacent[y] = math.Pow(depth, float64(w.NeighborExponent))
	}
	return h
}

func (h *Heuristic) Weights() Weights {
	return h.weights
}

// Features is the raw breakdown that the evaluation combines.
type Features struct {
	Holes           float64
	Lines           int
	AggregateHeight int
	Bumpiness       int
}

func (h *Heuristic) Score(f Features) float64 {
	w := h.weights
	return w.Lines*float64(f.Lines) -
		w.Height*float64(f.AggregateHeight) -
		w.Holes*f.Holes -
		w.Bumpiness*float64(f.Bumpiness)
}
