package move

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
)

// Command is a primitive instruction for the game server.
type Command uint8

const (
	CommandLeft Command = iota
	CommandRight
	CommandDown
	CommandRotateLeft
	CommandRotateRight
	CommandFlip
	CommandClear
)

// wire names understood by the game server
var commandNames = map[Command]string{
	CommandLeft:        "LEFT",
	CommandRight:       "RIGHT",
	CommandDown:        "DOWN",
	CommandRotateLeft:  "ACT(3)",
	CommandRotateRight: "ACT",
	CommandFlip:        "ACT(2)",
	CommandClear:       "ACT(0,0)",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// ParseCommand is the inverse of Command.String.
func ParseCommand(s string) (Command, error) {
	c, ok := lo.FindKey(commandNames, s)
	if !ok {
		return 0, fmt.Errorf("unknown command %q", s)
	}
	return c, nil
}

func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCommand(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RotationCommand returns the command that turns a figure by r. There is no
// command for figure.RotationNone.
func RotationCommand(r figure.Rotation) (Command, bool) {
	switch r {
	case figure.RotationLeft:
		return CommandRotateLeft, true
	case figure.RotationRight:
		return CommandRotateRight, true
	case figure.RotationFlip:
		return CommandFlip, true
	}
	return 0, false
}

// Plan is a chosen placement: a rotation, then a horizontal shift of the
// anchor by Offset columns (negative is to the left).
type Plan struct {
	Offset   int
	Rotation figure.Rotation
}

func (p Plan) String() string {
	return fmt.Sprintf("<offset: %d rotation: %v>", p.Offset, p.Rotation)
}

// SlideRight is a plan that pushes the figure against the right wall without
// turning it.
var SlideRight = Plan{Offset: board.Width}

// AppendTo writes the commands for p: an optional rotation, shifts in a single
// direction, then one drop per row of the glass.
func (p Plan) AppendTo(b *Batch) {
	if c, ok := RotationCommand(p.Rotation); ok {
		b.Add(c)
	}
	shift := CommandRight
	n := p.Offset
	if n < 0 {
		shift = CommandLeft
		n = -n
	}
	for i := 0; i < n; i++ {
		b.Add(shift)
	}
	for i := 0; i < board.Height; i++ {
		b.Add(CommandDown)
	}
}

// Batch buffers the commands of one answer to the server.
type Batch struct {
	buffer []Command
}

func (b *Batch) Add(c Command) {
	b.buffer = append(b.buffer, c)
}

func (b *Batch) Len() int {
	return len(b.buffer)
}

func (b *Batch) Commands() []Command {
	return b.buffer
}

func (b *Batch) Reset() {
	b.buffer = b.buffer[:0]
}

// Flush serializes the buffered commands as a JSON array of names and empties
// the batch.
func (b *Batch) Flush() ([]byte, error) {
	names := lo.Map(b.buffer, func(c Command, _ int) string {
		return c.String()
	})
	b.Reset()
	return json.Marshal(names)
}
