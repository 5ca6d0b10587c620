package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Domenick1991/matchtickets/internal/domain"
)

type PurchaseRequest struct {
	EventID  domain.ID       `json:"event_id"`
	Category domain.Category `json:"category"`
	Quantity int             `json:"quantity"`
}

func decode(path string, data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *Client) MyTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.call(ctx, http.MethodGet, "/user/tickets/", nil, token, nil, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Purchase returns the created rows. The API answers with an array of
// tickets, a single ticket, or a confirmation object wrapping "tickets".
func (c *Client) Purchase(ctx context.Context, token string, req PurchaseRequest) ([]domain.Ticket, error) {
	const path = "/tickets/purchase/"
	data, err := c.do(ctx, http.MethodPost, path, nil, token, req)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []domain.Ticket{}, nil
	}
	if trimmed[0] == '[' {
		var tickets []domain.Ticket
		if err := decode(path, trimmed, &tickets); err != nil {
			return nil, err
		}
		return tickets, nil
	}

	var wrapped struct {
		Tickets []domain.Ticket `json:"tickets"`
		ID      domain.ID       `json:"id"`
	}
	if err := decode(path, trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Tickets != nil {
		return wrapped.Tickets, nil
	}
	if wrapped.ID.IsZero() {
		return []domain.Ticket{}, nil
	}
	var single domain.Ticket
	if err := decode(path, trimmed, &single); err != nil {
		return nil, err
	}
	return []domain.Ticket{single}, nil
}

func (c *Client) DeleteTicket(ctx context.Context, token string, id domain.ID) error {
	return c.call(ctx, http.MethodDelete, "/tickets/"+url.PathEscape(id.String())+"/", nil, token, nil, nil)
}
