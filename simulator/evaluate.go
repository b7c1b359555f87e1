package simulator

import (
	"github.com/domino14/glassbot/board"
)

// Features measures the current glass. A hole is an empty cell under a filled
// cell of its own column. An empty cell next to a hole is covered from the
// adjacent column and is counted with the neighbor weight. Rows at the bottom
// of the glass that are already full are skipped.
func (s *Simulator) Features() Features {
	var f Features

	minY := 0
	for minY < board.Height && s.glass.Row(minY) == board.FullRow {
		minY++
	}

	var cover uint32
	for y := board.Height - 1; y >= minY; y-- {
		row := s.glass.Row(y)
		empty := ^row & board.FullRow
		under := cover & empty
		beside := (under<<1 | under>>1) & empty &^ under & board.FullRow
		f.Holes += s.heuristic.sameCol[y]*float64(s.popcount.Count(under)) +
			s.heuristic.adjacent[y]*float64(s.popcount.Count(beside))
		cover |= row
	}

	f.Lines = s.glass.Completed()
	for x := 0; x < board.Width; x++ {
		f.AggregateHeight += s.heights[x]
		if x > 0 {
			d := s.heights[x] - s.heights[x-1]
			if d < 0 {
				d = -d
			}
			f.Bumpiness += d
		}
	}
	return f
}

// Evaluate scores the current glass; higher is better.
func (s *Simulator) Evaluate() float64 {
	return s.heuristic.Score(s.Features())
}
