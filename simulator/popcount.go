package simulator

import (
	"math/bits"

	"github.com/domino14/glassbot/board"
)

// PopCount maps every possible row pattern to its number of set bits. It is
// built once and shared read-only by every Simulator.
type PopCount struct {
	table []uint8
}

func NewPopCount() *PopCount {
	t := make([]uint8, board.FullRow+1)
	for x := uint32(0); x <= board.FullRow; x++ {
		t[x] = uint8(bits.OnesCount32(x))
	}
	return &PopCount{table: t}
}

// Count expects a value no larger than board.FullRow.
func (p *PopCount) Count(row uint32) int {
	return int(p.table[row])
}
