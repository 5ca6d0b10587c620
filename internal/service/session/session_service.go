package session

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const offlineTokenPrefix = "offline-"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")
)

type SessionUseCase interface {
	Current(ctx context.Context) (State, error)
	Login(ctx context.Context, input LoginInput) (State, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	Logout(ctx context.Context) error
	Expire(ctx context.Context) error
}

// API is the part of the remote client the session needs.
type API interface {
	Login(ctx context.Context, username, password string) (*remote.AuthResult, error)
	Register(ctx context.Context, req remote.RegisterRequest) (*remote.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type State struct {
	LoggedIn bool        `json:"is_logged_in"`
	User     domain.User `json:"user"`
	Offline  bool        `json:"offline"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type RegisterResult struct {
	State  State           `json:"state"`
	Source fallback.Source `json:"source"`
}

type Service struct {
	api      API
	sessions repository.SessionRepository
	accounts repository.AccountRepository
	runner   *fallback.Runner
	clock    clock.Clock
	offline  bool
	log      zerolog.Logger
}

type ServiceOption func(*Service)

// WithOfflineAccounts enables login and registration against the local users
// collection when the API is unreachable.
func WithOfflineAccounts(accounts repository.AccountRepository) ServiceOption {
	return func(s *Service) {
		s.accounts = accounts
		s.offline = accounts != nil
	}
}

func WithRunner(r *fallback.Runner) ServiceOption {
	return func(s *Service) {
		s.runner = r
	}
}

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = c
	}
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

func NewSessionService(api API, sessions repository.SessionRepository, opts ...ServiceOption) *Service {
	s := &Service{
		api:      api,
		sessions: sessions,
		clock:    clock.Real(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current re-reads the identity from the store on every call.
func (s *Service) Current(ctx context.Context) (State, error) {
	user, err := s.sessions.Load(ctx)
	if err != nil {
		return State{}, err
	}
	return State{
		LoggedIn: user.Token != "",
		User:     user,
		Offline:  strings.HasPrefix(user.Token, offlineTokenPrefix),
	}, nil
}

// unreachable reports whether err means the API could not answer, as opposed
// to an answer rejecting the request.
func unreachable(err error) bool {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ServerSide()
	}
	return !errors.Is(err, context.Canceled)
}

func (in LoginInput) Validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Username) == "" {
		verr.Add("username", "username is required")
	}
	if in.Password == "" {
		verr.Add("password", "password is required")
	}
	return verr.OrNil()
}

func (s *Service) Login(ctx context.Context, input LoginInput) (State, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := input.Validate(); err != nil {
		return State{}, err
	}

	op := fallback.Op[domain.User]{
		Name: "login",
		Remote: func(ctx context.Context) (domain.User, error) {
			res, err := s.api.Login(ctx, input.Username, input.Password)
			if err != nil {
				return domain.User{}, err
			}
			return res.User, nil
		},
		ShouldFallback: unreachable,
	}
	if s.offline {
		op.Local = func(ctx context.Context) (domain.User, error) {
			return s.offlineLogin(ctx, input)
		}
	}

	res, err := fallback.Run(ctx, s.runner, op)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && !apiErr.ServerSide() {
			return State{}, ErrInvalidCredentials
		}
		return State{}, err
	}

	if err := s.sessions.Save(ctx, res.Value); err != nil {
		return State{}, err
	}
	s.log.Info().Str("username", res.Value.Username).Str("source", string(res.Source)).Msg("logged in")
	return s.Current(ctx)
}

func (s *Service) offlineLogin(ctx context.Context, input LoginInput) (domain.User, error) {
	account, err := s.accounts.Find(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(input.Password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return domain.User{
		Username: account.Username,
		Token:    offlineTokenPrefix + uuid.NewString(),
	}, nil
}

func (in RegisterInput) Validate() error {
	verr := &domain.ValidationError{}
	if in.Username == "" || in.Email == "" || in.Password == "" || in.PasswordConfirm == "" {
		return domain.NewValidationError("all fields are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		verr.Add("email", "email address is invalid")
	}
	if in.Password != in.PasswordConfirm {
		verr.Add("password_confirm", "passwords do not match")
	}
	return verr.OrNil()
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	op := fallback.Op[*remote.AuthResult]{
		Name: "register",
		Remote: func(ctx context.Context) (*remote.AuthResult, error) {
			return s.api.Register(ctx, remote.RegisterRequest{
				Username:        input.Username,
				Email:           input.Email,
				Password:        input.Password,
				PasswordConfirm: input.PasswordConfirm,
			})
		},
		ShouldFallback: unreachable,
	}
	if s.offline {
		op.Local = func(ctx context.Context) (*remote.AuthResult, error) {
			return nil, s.offlineRegister(ctx, input)
		}
	}

	res, err := fallback.Run(ctx, s.runner, op)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && !apiErr.ServerSide() {
			return nil, domain.NewValidationError(apiErr.Message)
		}
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, domain.NewValidationError(repository.ErrDuplicateAccount.Error())
		}
		return nil, err
	}

	out := &RegisterResult{Source: res.Source}
	if res.Value != nil && res.Value.Token != "" {
		if err := s.sessions.Save(ctx, res.Value.User); err != nil {
			return nil, err
		}
		state, err := s.Current(ctx)
		if err != nil {
			return nil, err
		}
		out.State = state
	}
	return out, nil
}

func (s *Service) offlineRegister(ctx context.Context, input RegisterInput) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.Create(ctx, domain.LocalAccount{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hash),
		CreatedAt: s.clock.Now(),
	})
}

// Logout tells the API when it can and always clears the stored identity.
func (s *Service) Logout(ctx context.Context) error {
	user, err := s.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if user.Token != "" && !strings.HasPrefix(user.Token, offlineTokenPrefix) {
		if err := s.api.Logout(ctx, user.Token); err != nil {
			s.log.Warn().Err(err).Msg("remote logout failed")
		}
	}
	return s.sessions.Clear(ctx)
}

// Expire drops the token after the API answered 401.
func (s *Service) Expire(ctx context.Context) error {
	s.log.Info().Msg("session expired")
	return s.sessions.ClearToken(ctx)
}

var _ SessionUseCase = (*Service)(nil)
