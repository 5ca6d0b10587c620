package remote

import (
	"context"
	"net/http"

	"github.com/Domenick1991/matchtickets/internal/domain"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// AuthResult is returned by login and register. Register may succeed
// without a token, in which case the user has to log in.
type AuthResult struct {
	Token string
	User  domain.User
}

type authResponse struct {
	Success *bool  `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID       domain.ID `json:"id"`
		Username string    `json:"username"`
	} `json:"user"`
}

func (c *Client) authenticate(ctx context.Context, path string, in any, username string) (*AuthResult, error) {
	data, err := c.do(ctx, http.MethodPost, path, nil, "", in)
	if err != nil {
		return nil, err
	}
	var resp authResponse
	if err := decode(path, data, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, &APIError{Status: http.StatusBadRequest, Message: errorMessage(data), Body: data}
	}

	name := resp.User.Username
	if name == "" {
		name = username
	}
	return &AuthResult{
		Token: resp.Token,
		User:  domain.User{ID: resp.User.ID, Username: name, Token: resp.Token},
	}, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	in := map[string]string{"username": username, "password": password}
	return c.authenticate(ctx, "/user/login/", in, username)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	return c.authenticate(ctx, "/user/register/", req, req.Username)
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodPost, "/user/logout/", nil, token, nil, nil)
}
