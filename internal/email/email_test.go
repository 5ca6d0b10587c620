package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	var buf bytes.Buffer
	s := NewSender(zerolog.New(&buf))

	err := s.Send(context.Background(), kafka.TicketEvent{
		Type:       kafka.EventTicketPurchased,
		Username:   "alice",
		TicketUUID: "TICKET-1-42",
		Price:      decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"to":"alice"`)
	assert.Contains(t, buf.String(), `"price":"50.00"`)
}

func TestSender_NoRecipient(t *testing.T) {
	s := NewSender(zerolog.Nop())
	assert.ErrorIs(t, s.Send(context.Background(), kafka.TicketEvent{}), ErrNoRecipient)
}
