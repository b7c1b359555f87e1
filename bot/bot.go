package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/move"
	"github.com/domino14/glassbot/stats"
)

const messagePrefix = "board="

var ErrNoLayers = errors.New("board message has no layers")

// Strategy is what the bot asks for moves. Start is called once at the
// beginning of a session, Decide once per board.
type Strategy interface {
	Start(b *move.Batch)
	Decide(b *move.Batch, snap *board.Snapshot) error
}

type LevelProgress struct {
	Total      int `json:"total"`
	Current    int `json:"current"`
	LastPassed int `json:"lastPassed"`
}

// boardMessage is the JSON the game server sends after the prefix.
type boardMessage struct {
	CurrentFigureType  board.FigureType   `json:"currentFigureType"`
	FutureFigures      []board.FigureType `json:"futureFigures"`
	Layers             []string           `json:"layers"`
	CurrentFigurePoint board.Point        `json:"currentFigurePoint"`
	LevelProgress      LevelProgress      `json:"levelProgress"`
}

// Deserialize turns a server message into a snapshot. A glass with the wrong
// number of cells comes back as a *board.FormatError.
func Deserialize(text string) (*board.Snapshot, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), messagePrefix)
	msg := boardMessage{}
	if err := json.Unmarshal([]byte(text), &msg); err != nil {
		return nil, fmt.Errorf("decoding board message: %w", err)
	}
	if len(msg.Layers) == 0 {
		return nil, ErrNoLayers
	}
	g, err := board.Parse(msg.Layers[0])
	if err != nil {
		return nil, err
	}
	log.Debug().Interface("level-progress", msg.LevelProgress).Msg("board-message")
	return &board.Snapshot{
		Current: msg.CurrentFigureType,
		Future:  msg.FutureFigures,
		Glass:   g,
		Anchor:  msg.CurrentFigurePoint,
	}, nil
}

// Session answers the messages of one connection. It is not safe for
// concurrent use.
type Session struct {
	strategy Strategy
	batch    move.Batch
	started  bool
	timing   stats.Running
}

func NewSession(strategy Strategy) *Session {
	return &Session{strategy: strategy}
}

// Handle answers one message. The first message of a session, whatever it
// holds, gets the Start commands; every later one is treated as a board.
func (s *Session) Handle(text string) ([]byte, error) {
	if !s.started {
		s.started = true
		s.strategy.Start(&s.batch)
		return s.batch.Flush()
	}
	return s.Decide(text)
}

// Decide answers a board message without the session handshake.
func (s *Session) Decide(text string) ([]byte, error) {
	snap, err := Deserialize(text)
	if err != nil {
		return nil, err
	}
	tstart := time.Now()
	if err := s.strategy.Decide(&s.batch, snap); err != nil {
		s.batch.Reset()
		return nil, err
	}
	s.timing.PushDuration(time.Since(tstart))
	return s.batch.Flush()
}

// Timing reports decision times in milliseconds.
func (s *Session) Timing() *stats.Running {
	return &s.timing
}
