// Package figure holds the tetromino shapes and their rotations. A figure is
// a 5x5 bit matrix centered on (2,2) plus a packed word of extents that says
// how far the shape reaches from its center in every direction.
package figure

import (
	"fmt"
	"math/bits"

	"github.com/domino14/glassbot/board"
)

const (
	Size   = 5
	Radius = Size / 2

	rowMask = uint32(1)<<Size - 1
)

// Rotation is one of the four orientations of a figure. Left is a quarter
// turn counter-clockwise and Right a quarter turn clockwise.
type Rotation uint8

const (
	RotationNone Rotation = iota
	RotationLeft
	RotationRight
	RotationFlip
)

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "none"
	case RotationLeft:
		return "left"
	case RotationRight:
		return "right"
	case RotationFlip:
		return "flip"
	}
	return fmt.Sprintf("Rotation(%d)", uint8(r))
}

// Figure is a small value type; copying it is cheap.
type Figure struct {
	// matrix row y is board row center.y-Radius+y; matrix column x is bit x.
	matrix [Size]uint32
	// sides packs the extents top, left, bottom, right, one byte each,
	// from the most significant byte down.
	sides uint32
}

var canonical = [board.NumFigureTypes]Figure{
	board.FigureI: {matrix: [Size]uint32{4, 4, 4, 4, 0}, sides: 0x01000200},
	board.FigureO: {matrix: [Size]uint32{0, 12, 12, 0, 0}, sides: 0x00000101},
	board.FigureL: {matrix: [Size]uint32{0, 12, 4, 4, 0}, sides: 0x01000101},
	board.FigureJ: {matrix: [Size]uint32{0, 6, 4, 4, 0}, sides: 0x01010100},
	board.FigureS: {matrix: [Size]uint32{0, 0, 6, 12, 0}, sides: 0x01010001},
	board.FigureZ: {matrix: [Size]uint32{0, 0, 12, 6, 0}, sides: 0x01010001},
	board.FigureT: {matrix: [Size]uint32{0, 0, 14, 4, 0}, sides: 0x01010001},
}

// Only these rotations produce distinct placements for each type.
var legalRotations = [board.NumFigureTypes][]Rotation{
	board.FigureI: {RotationNone, RotationLeft},
	board.FigureO: {RotationNone},
	board.FigureL: {RotationNone, RotationLeft, RotationFlip, RotationRight},
	board.FigureJ: {RotationNone, RotationLeft, RotationFlip, RotationRight},
	board.FigureS: {RotationNone, RotationLeft},
	board.FigureZ: {RotationNone, RotationLeft},
	board.FigureT: {RotationNone, RotationLeft, RotationFlip, RotationRight},
}

// New returns the unrotated figure for a type.
func New(ft board.FigureType) Figure {
	return canonical[ft]
}

// Rotations returns the rotations worth searching for a type. The returned
// slice is shared and must not be modified.
func Rotations(ft board.FigureType) []Rotation {
	return legalRotations[ft]
}

func (f Figure) Row(y int) uint32 {
	return f.matrix[y]
}

func (f Figure) Top() int    { return int(f.sides >> 24 & 0xff) }
func (f Figure) Left() int   { return int(f.sides >> 16 & 0xff) }
func (f Figure) Bottom() int { return int(f.sides >> 8 & 0xff) }
func (f Figure) Right() int  { return int(f.sides & 0xff) }

// Rotate returns the figure turned by r. The receiver is not modified.
func (f Figure) Rotate(r Rotation) Figure {
	switch r {
	case RotationNone:
		return f
	case RotationLeft:
		return f.remap(func(x, y int) (int, int) { return Size - 1 - y, x }, 8)
	case RotationFlip:
		return f.remap(func(x, y int) (int, int) { return Size - 1 - x, Size - 1 - y }, 16)
	case RotationRight:
		return f.remap(func(x, y int) (int, int) { return y, Size - 1 - x }, 24)
	}
	panic(fmt.Sprintf("unknown rotation %d", r))
}

func (f Figure) remap(coord func(x, y int) (int, int), sidesShift int) Figure {
	var out Figure
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			bit := (f.matrix[y] >> x) & 1
			nx, ny := coord(x, y)
			out.matrix[ny] |= bit << nx
		}
	}
	out.sides = bits.RotateLeft32(f.sides, -sidesShift)
	return out
}

// BottomProfile gives, for every matrix column the figure spans, the number
// of filled cells in the bottom two matrix rows. It is indexed by matrix
// column, so offset t from the center is at index t+Radius.
func (f Figure) BottomProfile() [Size]int {
	return f.profile(0, 1)
}

// TopProfile is BottomProfile for the top two matrix rows.
func (f Figure) TopProfile() [Size]int {
	return f.profile(Size-2, Size-1)
}

func (f Figure) profile(r0, r1 int) [Size]int {
	var p [Size]int
	for x := Radius - f.Left(); x <= Radius+f.Right(); x++ {
		p[x] += int((f.matrix[r0] >> x) & 1)
		p[x] += int((f.matrix[r1] >> x) & 1)
	}
	return p
}

// ColumnTop returns the highest matrix row with a filled cell in matrix
// column x, or -1 if the column is empty.
func (f Figure) ColumnTop(x int) int {
	for y := Size - 1; y >= 0; y-- {
		if (f.matrix[y]>>x)&1 == 1 {
			return y
		}
	}
	return -1
}

// Cells lists the board cells the figure covers when anchored at center.
func (f Figure) Cells(center board.Point) []board.Point {
	pts := make([]board.Point, 0, 4)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if (f.matrix[y]>>x)&1 == 1 {
				pts = append(pts, board.NewPoint(center.X-Radius+x, center.Y-Radius+y))
			}
		}
	}
	return pts
}

// Shape returns the matrix translated so that its lowest filled row and
// leftmost filled column sit at zero. Two figures with equal shapes cover the
// same cells up to a shift of the anchor.
func (f Figure) Shape() [Size]uint32 {
	var or uint32
	lowest := -1
	for y, r := range f.matrix {
		or |= r
		if r != 0 && lowest < 0 {
			lowest = y
		}
	}
	var out [Size]uint32
	if lowest < 0 {
		return out
	}
	shift := bits.TrailingZeros32(or)
	for y := lowest; y < Size; y++ {
		out[y-lowest] = f.matrix[y] >> shift
	}
	return out
}

// Valid reports whether every matrix row stays inside the 5x5 window.
func (f Figure) Valid() bool {
	for _, r := range f.matrix {
		if r&^rowMask != 0 {
			return false
		}
	}
	return true
}

func (f Figure) String() string {
	s := ""
	for y := Size - 1; y >= 0; y-- {
		for x := 0; x < Size; x++ {
			if (f.matrix[y]>>x)&1 == 1 {
				s += "#"
			} else {
				s += "."
			}
		}
		s += "\n"
	}
	return s
}
