package bot

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client plays a session against the game server over a websocket.
type Client struct {
	url          string
	session      *Session
	dialAttempts uint
	dialDelay    time.Duration

	conn *websocket.Conn
}

func NewClient(url string, session *Session) *Client {
	return &Client{
		url:          url,
		session:      session,
		dialAttempts: 5,
		dialDelay:    time.Second,
	}
}

func (c *Client) SetDialRetry(attempts int, delay time.Duration) {
	c.dialAttempts = uint(max(1, attempts))
	c.dialDelay = delay
}

// Connect dials the server, retrying with backoff.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	err := retry.Do(
		func() error {
			conn, _, err := dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				return err
			}
			c.conn = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.dialAttempts),
		retry.Delay(c.dialDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("dial-failed")
		}),
	)
	if err != nil {
		return err
	}
	log.Info().Msg("connected")
	return nil
}

var emptyReply = []byte("[]")

// Run answers messages until the server closes the connection or ctx is
// done. A message that fails to decode is logged and answered with an empty
// command list.
func (c *Client) Run(ctx context.Context) error {
	defer c.conn.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info().Msg("connection-closed")
				return nil
			}
			log.Error().Err(err).Msg("read-error")
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		reply, err := c.session.Handle(string(data))
		if err != nil {
			// The server waits for an answer to every board, so a bad one
			// gets an empty command list and the figure just falls.
			log.Error().Err(err).Msg("bad-board-message")
			reply = emptyReply
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Error().Err(err).Msg("write-error")
			return err
		}
		log.Debug().Str("commands", string(reply)).Msg("sent")
	}
}
