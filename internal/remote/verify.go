package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Domenick1991/matchtickets/internal/domain"
)

type VerifyResult struct {
	Valid   bool           `json:"valid"`
	Message string         `json:"message"`
	Ticket  *domain.Ticket `json:"ticket,omitempty"`
	UsedAt  *time.Time     `json:"used_at,omitempty"`
}

type ConfirmResult struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	AlreadyUsed bool       `json:"-"`
}

func verifyPath(code string) string {
	return "/tickets/verify/" + url.PathEscape(code) + "/"
}

// VerifyTicket maps 200 to a valid ticket and 400 to an already used one.
// A 404 is returned as an *APIError matching ErrNotFound.
func (c *Client) VerifyTicket(ctx context.Context, code string) (*VerifyResult, error) {
	path := verifyPath(code)
	data, err := c.do(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			var used VerifyResult
			if derr := decode(path, apiErr.Body, &used); derr != nil {
				return nil, derr
			}
			used.Valid = false
			return &used, nil
		}
		return nil, err
	}

	var result VerifyResult
	if err := decode(path, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ConfirmTicket(ctx context.Context, token, code string) (*ConfirmResult, error) {
	path := verifyPath(code)
	data, err := c.do(ctx, http.MethodPost, path, nil, token, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			var used ConfirmResult
			if derr := decode(path, apiErr.Body, &used); derr != nil {
				return nil, derr
			}
			used.Success = false
			used.AlreadyUsed = true
			return &used, nil
		}
		return nil, err
	}

	var result ConfirmResult
	if err := decode(path, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
