package board

import (
	"encoding/json"
	"fmt"
)

// Point is a board coordinate. Y grows upwards from the bottom row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// FigureType is one of the seven tetrominoes.
type FigureType uint8

const (
	FigureI FigureType = iota
	FigureO
	FigureL
	FigureJ
	FigureS
	FigureZ
	FigureT

	NumFigureTypes = 7
)

var figureNames = [NumFigureTypes]string{"I", "O", "L", "J", "S", "Z", "T"}

func (ft FigureType) String() string {
	if int(ft) >= NumFigureTypes {
		return fmt.Sprintf("FigureType(%d)", uint8(ft))
	}
	return figureNames[ft]
}

// ParseFigureType turns a one-letter name into a FigureType.
func ParseFigureType(s string) (FigureType, error) {
	for i, n := range figureNames {
		if n == s {
			return FigureType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown figure type %q", s)
}

func (ft FigureType) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.String())
}

func (ft *FigureType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFigureType(s)
	if err != nil {
		return err
	}
	*ft = parsed
	return nil
}

// Snapshot is everything the solver gets to see for one decision.
type Snapshot struct {
	Current FigureType
	// Future holds the queued figures, next one first.
	Future []FigureType
	Glass  Glass
	// Anchor is where the current figure's center sits.
	Anchor Point
}
