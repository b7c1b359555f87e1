package board

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/cespare/xxhash"
)

const (
	Width  = 18
	Height = 18

	// FullRow is the value of a row with every cell filled.
	FullRow = uint32(1)<<Width - 1
)

// A FormatError is returned when a cell string can't be turned into a Glass.
type FormatError struct {
	Length int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("glass has %d cells, expected %d (%dx%d)",
		e.Length, Width*Height, Width, Height)
}

// Glass is the playfield ("well"). Each row is packed into one integer; bit i
// of a row is set if column i is filled. Row 0 is the bottom of the well.
type Glass struct {
	rows [Height]uint32
}

// Parse builds a Glass out of a row-major cell string that starts at the
// visual top of the well. Any character other than '.' is a filled cell.
func Parse(data string) (Glass, error) {
	var g Glass
	if len(data) != Width*Height {
		return g, &FormatError{Length: len(data)}
	}
	for r := 0; r < Height; r++ {
		line := data[r*Width : (r+1)*Width]
		var row uint32
		for c := 0; c < Width; c++ {
			if line[c] != '.' {
				row |= 1 << c
			}
		}
		g.rows[Height-1-r] = row
	}
	return g, nil
}

// MustParse is like Parse but panics on a malformed string. It is meant for
// test fixtures.
func MustParse(data string) Glass {
	g, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Glass) Row(y int) uint32 {
	return g.rows[y]
}

func (g *Glass) SetRow(y int, val uint32) {
	g.rows[y] = val
}

// Col transposes column x into a vertical bit vector; bit y is board row y.
func (g *Glass) Col(x int) uint32 {
	var col uint32
	for y := 0; y < Height; y++ {
		col |= ((g.rows[y] >> x) & 1) << y
	}
	return col
}

// ColHeight is the row index one past the topmost filled cell of column x.
func (g *Glass) ColHeight(x int) int {
	return bits.Len32(g.Col(x))
}

// Completed returns the number of completely filled rows.
func (g *Glass) Completed() int {
	n := 0
	for y := 0; y < Height; y++ {
		if g.rows[y] == FullRow {
			n++
		}
	}
	return n
}

// SemiCompleted returns the number of rows missing exactly one cell.
func (g *Glass) SemiCompleted() int {
	n := 0
	for y := 0; y < Height; y++ {
		if bits.OnesCount32(g.rows[y]) == Width-1 {
			n++
		}
	}
	return n
}

// Filled returns the total number of filled cells.
func (g *Glass) Filled() int {
	n := 0
	for y := 0; y < Height; y++ {
		n += bits.OnesCount32(g.rows[y])
	}
	return n
}

func (g *Glass) Equal(o *Glass) bool {
	return g.rows == o.rows
}

// Hash fingerprints the rows; it is only used to correlate log lines.
func (g *Glass) Hash() uint64 {
	var buf [Height * 4]byte
	for y, r := range g.rows {
		binary.LittleEndian.PutUint32(buf[y*4:], r)
	}
	return xxhash.Sum64(buf[:])
}

// String renders the glass with the visual top first.
func (g *Glass) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)
	for y := Height - 1; y >= 0; y-- {
		for x := 0; x < Width; x++ {
			if (g.rows[y]>>x)&1 == 1 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Cells is the inverse of Parse.
func (g *Glass) Cells() string {
	return strings.ReplaceAll(g.String(), "\n", "")
}
