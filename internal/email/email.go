package email

import (
	"context"
	"errors"

	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/rs/zerolog"
)

var ErrNoRecipient = errors.New("ticket event has no recipient")

// Sender delivers ticket receipts. Delivery is a structured log line until a
// mail relay is configured.
type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log.With().Str("component", "email").Logger()}
}

func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	if event.Username == "" {
		return ErrNoRecipient
	}
	s.log.Info().
		Str("to", event.Username).
		Str("type", event.Type).
		Str("ticket", event.TicketUUID).
		Str("event_id", event.EventID).
		Str("price", event.Price.StringFixed(2)).
		Msg("receipt sent")
	return nil
}
