package bot

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type errorReply struct {
	Error string `json:"error"`
}

// Main answers decision requests on a NATS subject until ctx is done. Each
// request carries one board message; there is no handshake.
func Main(ctx context.Context, natsURL, subject string, session *Session) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	// Callbacks for one subscription run one at a time, so the session is
	// never used concurrently.
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("recv")
		reply, err := session.Decide(string(m.Data))
		if err != nil {
			log.Error().Err(err).Msg("bad-board-message")
			reply, _ = json.Marshal(errorReply{Error: err.Error()})
		}
		if err := m.Respond(reply); err != nil {
			log.Error().Err(err).Msg("respond-error")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		log.Warn().Err(err).Msg("unsubscribe")
	}
	return nc.Drain()
}
