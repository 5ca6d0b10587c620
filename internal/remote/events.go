package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Domenick1991/matchtickets/internal/domain"
)

func (c *Client) ListEvents(ctx context.Context, access string) ([]domain.Event, error) {
	var query url.Values
	if access != "" {
		query = url.Values{"access": {access}}
	}
	var events []domain.Event
	if err := c.call(ctx, http.MethodGet, "/events/", query, "", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id domain.ID) (*domain.Event, error) {
	var event domain.Event
	if err := c.call(ctx, http.MethodGet, "/events/"+url.PathEscape(id.String())+"/", nil, "", nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
