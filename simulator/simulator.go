// Package simulator plays figures onto a glass without ever copying it: a
// placement is an XOR of the figure's rows into the board, so the same call
// undoes it.
package simulator

import (
	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
)

// DefaultTopOutMargin is how many rows under the top of the glass a figure
// may not be dropped into.
const DefaultTopOutMargin = 2

type Simulator struct {
	glass   board.Glass
	heights [board.Width]int

	popcount  *PopCount
	heuristic *Heuristic
	topOut    int
}

// New copies g and computes the column heights.
func New(g *board.Glass, pc *PopCount, h *Heuristic) *Simulator {
	s := &Simulator{
		glass:     *g,
		popcount:  pc,
		heuristic: h,
		topOut:    board.Height - DefaultTopOutMargin,
	}
	for x := 0; x < board.Width; x++ {
		s.heights[x] = s.glass.ColHeight(x)
	}
	return s
}

// SetTopOutMargin changes the number of rows below the top of the glass that
// are off limits as a drop row. Negative margins count as zero.
func (s *Simulator) SetTopOutMargin(margin int) {
	s.topOut = board.Height - max(0, margin)
}

// Copy returns an independent simulator sharing the read-only tables.
func (s *Simulator) Copy() *Simulator {
	c := *s
	return &c
}

func (s *Simulator) Glass() *board.Glass {
	return &s.glass
}

func (s *Simulator) Heights() [board.Width]int {
	return s.heights
}

func (s *Simulator) Heuristic() *Heuristic {
	return s.heuristic
}

// ValidMoves returns every place f can be dropped to, ordered by column. A
// figure never sticks out of the top of the glass, whatever the margin.
func (s *Simulator) ValidMoves(f figure.Figure) []board.Point {
	return s.AppendValidMoves(make([]board.Point, 0, board.Width), f)
}

// AppendValidMoves is ValidMoves appending into dst.
func (s *Simulator) AppendValidMoves(dst []board.Point, f figure.Figure) []board.Point {
	left, right := f.Left(), f.Right()
	bottoms := f.BottomProfile()

	for x := left; x < board.Width-right; x++ {
		// The center can never sit lower than the figure's bottom extent.
		y := f.Bottom()
		for t := -left; t <= right; t++ {
			y = max(y, s.heights[x+t]+bottoms[t+figure.Radius])
		}
		if y >= s.topOut || y+f.Top() >= board.Height {
			continue
		}
		center := board.NewPoint(x, y)
		if !s.intersects(f, center) {
			dst = append(dst, center)
		}
	}
	return dst
}

// shifted returns matrix row fy of f moved so that its center column lands
// on board column cx.
func shifted(f figure.Figure, fy, cx int) uint32 {
	row := f.Row(fy)
	if cx >= figure.Radius {
		row <<= cx - figure.Radius
	} else {
		row >>= figure.Radius - cx
	}
	return row & board.FullRow
}

func window(center board.Point) (int, int) {
	return max(0, center.Y-figure.Radius), min(board.Height, center.Y+figure.Radius+1)
}

func (s *Simulator) intersects(f figure.Figure, center board.Point) bool {
	lo, hi := window(center)
	for y := lo; y < hi; y++ {
		if s.glass.Row(y)&shifted(f, y-center.Y+figure.Radius, center.X) != 0 {
			return true
		}
	}
	return false
}

// Contains reports whether every cell of f anchored at center is filled.
func (s *Simulator) Contains(f figure.Figure, center board.Point) bool {
	if center.X-f.Left() < 0 || center.X+f.Right() >= board.Width ||
		center.Y-f.Bottom() < 0 || center.Y+f.Top() >= board.Height {
		return false
	}
	lo, hi := window(center)
	for y := lo; y < hi; y++ {
		fr := shifted(f, y-center.Y+figure.Radius, center.X)
		if s.glass.Row(y)&fr != fr {
			return false
		}
	}
	return true
}

func (s *Simulator) toggle(f figure.Figure, center board.Point) {
	lo, hi := window(center)
	for y := lo; y < hi; y++ {
		fr := shifted(f, y-center.Y+figure.Radius, center.X)
		s.glass.SetRow(y, s.glass.Row(y)^fr)
	}
}

func (s *Simulator) checkSpan(f figure.Figure, center board.Point) {
	if center.X-f.Left() < 0 || center.X+f.Right() >= board.Width {
		panic("figure anchored outside of the glass")
	}
}

// Place drops f into cells that are currently empty, such as a point
// returned by ValidMoves.
func (s *Simulator) Place(f figure.Figure, center board.Point) {
	s.checkSpan(f, center)
	s.toggle(f, center)
	for t := -f.Left(); t <= f.Right(); t++ {
		top := f.ColumnTop(t + figure.Radius)
		if top < 0 {
			continue
		}
		x := center.X + t
		s.heights[x] = max(s.heights[x], center.Y-figure.Radius+top+1)
	}
}

// Unplace removes f from center; called with the arguments of the last
// Place it restores the glass bit for bit. Heights of the spanned columns
// are rescanned.
func (s *Simulator) Unplace(f figure.Figure, center board.Point) {
	s.checkSpan(f, center)
	s.toggle(f, center)
	for t := -f.Left(); t <= f.Right(); t++ {
		x := center.X + t
		s.heights[x] = s.glass.ColHeight(x)
	}
}
