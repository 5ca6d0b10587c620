package validation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/rs/zerolog"
)

const (
	MessageNotFound    = "not found"
	MessageValid       = "ticket is valid"
	MessageAlreadyUsed = "ticket already used"
	MessageConfirmed   = "ticket marked as used"
)

var (
	ErrNotFound  = errors.New("ticket not found")
	ErrEmptyCode = errors.New("empty ticket code")

	// ErrRejected is a confirmation the API refused for a reason other than
	// prior use.
	ErrRejected = errors.New("confirmation rejected")
)

type ScanState string

const (
	StateUnscanned        ScanState = "UNSCANNED"
	StateChecking         ScanState = "CHECKING"
	StateValidActive      ScanState = "VALID_ACTIVE"
	StateInvalidUsed      ScanState = "INVALID_USED"
	StateInvalidNotFound  ScanState = "INVALID_NOT_FOUND"
	StateInvalidScanError ScanState = "INVALID_SCAN_ERROR"
)

type ValidationUseCase interface {
	Verify(ctx context.Context, code string) (*Verdict, error)
	ConfirmUse(ctx context.Context, code string) (*Confirmation, error)
}

type API interface {
	VerifyTicket(ctx context.Context, code string) (*remote.VerifyResult, error)
	ConfirmTicket(ctx context.Context, token, code string) (*remote.ConfirmResult, error)
}

type Session interface {
	Current(ctx context.Context) (session.State, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Verdict is the outcome of checking one scanned code.
type Verdict struct {
	State   ScanState       `json:"state"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Ticket  *domain.Ticket  `json:"ticket,omitempty"`
	UsedAt  *time.Time      `json:"used_at,omitempty"`
	Source  fallback.Source `json:"source,omitempty"`
	// Minimal is set when the ticket has no event snapshot to show.
	Minimal bool `json:"minimal"`
}

func (v *Verdict) Valid() bool {
	return v != nil && v.State == StateValidActive
}

type Confirmation struct {
	Code         string          `json:"code"`
	Transitioned bool            `json:"transitioned"`
	AlreadyUsed  bool            `json:"already_used"`
	Message      string          `json:"message"`
	UsedAt       *time.Time      `json:"used_at,omitempty"`
	Source       fallback.Source `json:"source"`
}

type Service struct {
	api      API
	tickets  repository.TicketRepository
	session  Session
	runner   *fallback.Runner
	producer Producer
	topic    string
	clock    clock.Clock
	log      zerolog.Logger
}

type ServiceOption func(*Service)

func WithRunner(r *fallback.Runner) ServiceOption {
	return func(s *Service) {
		s.runner = r
	}
}

func WithSession(sess Session) ServiceOption {
	return func(s *Service) {
		s.session = sess
	}
}

func WithProducer(p Producer, topic string) ServiceOption {
	return func(s *Service) {
		s.producer = p
		s.topic = topic
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

func NewValidationService(api API, tickets repository.TicketRepository, opts ...ServiceOption) *Service {
	s := &Service{
		api:     api,
		tickets: tickets,
		clock:   clock.Real(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify asks the API first. Any remote failure, a 404 included, is retried
// against the local store because a ticket bought offline only exists there.
// A code found nowhere yields INVALID_NOT_FOUND, not an error.
func (s *Service) Verify(ctx context.Context, code string) (*Verdict, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}

	res, err := fallback.Run(ctx, s.runner, fallback.Op[*Verdict]{
		Name: "verify",
		Remote: func(ctx context.Context) (*Verdict, error) {
			result, err := s.api.VerifyTicket(ctx, code)
			if err != nil {
				return nil, err
			}
			return remoteVerdict(code, result), nil
		},
		Local: func(ctx context.Context) (*Verdict, error) {
			all, err := s.tickets.All(ctx)
			if err != nil {
				return nil, err
			}
			idx := domain.FindTicket(all, domain.LookupOrder(code))
			if idx < 0 {
				return &Verdict{State: StateInvalidNotFound, Code: code, Message: MessageNotFound}, nil
			}
			return ticketVerdict(code, all[idx]), nil
		},
	})
	if err != nil {
		return nil, err
	}
	res.Value.Source = res.Source
	return res.Value, nil
}

func remoteVerdict(code string, result *remote.VerifyResult) *Verdict {
	v := &Verdict{Code: code, Message: result.Message, Ticket: result.Ticket, UsedAt: result.UsedAt}
	if result.Valid {
		v.State = StateValidActive
	} else {
		v.State = StateInvalidUsed
	}
	if v.UsedAt == nil && v.Ticket != nil {
		v.UsedAt = v.Ticket.UsedAt
	}
	if v.Message == "" {
		v.Message = defaultMessage(v.State)
	}
	v.Minimal = v.Ticket == nil || v.Ticket.EventDetails == nil
	return v
}

func ticketVerdict(code string, t domain.Ticket) *Verdict {
	v := &Verdict{Code: code, Ticket: &t, Minimal: t.EventDetails == nil}
	if t.IsUsed() {
		v.State = StateInvalidUsed
		v.UsedAt = t.UsedAt
	} else {
		v.State = StateValidActive
	}
	v.Message = defaultMessage(v.State)
	return v
}

func defaultMessage(state ScanState) string {
	switch state {
	case StateValidActive:
		return MessageValid
	case StateInvalidUsed:
		return MessageAlreadyUsed
	}
	return MessageNotFound
}

// ConfirmUse moves the ticket to USED. Repeating it reports AlreadyUsed and
// leaves used_at as it was. An API answer, positive or not, is final; only
// a failed call falls back to the local store.
func (s *Service) ConfirmUse(ctx context.Context, code string) (*Confirmation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	token := s.token(ctx)

	var confirmed domain.Ticket
	res, err := fallback.Run(ctx, s.runner, fallback.Op[*Confirmation]{
		Name: "confirm_use",
		Remote: func(ctx context.Context) (*Confirmation, error) {
			result, err := s.api.ConfirmTicket(ctx, token, code)
			if err != nil {
				return nil, err
			}
			return &Confirmation{
				Code:         code,
				Transitioned: result.Success,
				AlreadyUsed:  result.AlreadyUsed,
				Message:      result.Message,
				UsedAt:       result.UsedAt,
			}, nil
		},
		Local: func(ctx context.Context) (*Confirmation, error) {
			at := s.clock.Now()
			transitioned := false
			ticket, err := s.tickets.Modify(ctx, domain.LookupOrder(code), func(t *domain.Ticket) bool {
				transitioned = t.MarkUsed(at)
				return transitioned
			})
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			if err != nil {
				return nil, err
			}
			confirmed = *ticket
			return &Confirmation{
				Code:         code,
				Transitioned: transitioned,
				AlreadyUsed:  !transitioned,
				UsedAt:       ticket.UsedAt,
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	c := res.Value
	c.Source = res.Source
	if c.Message == "" {
		if c.Transitioned {
			c.Message = MessageConfirmed
		} else {
			c.Message = MessageAlreadyUsed
		}
	}
	if !c.Transitioned && !c.AlreadyUsed {
		return c, ErrRejected
	}

	if c.Transitioned {
		if confirmed.ID.IsZero() {
			confirmed = domain.Ticket{ID: domain.StringID(code), TicketUUID: code, Status: domain.TicketStatusUsed}
		}
		s.publish(ctx, confirmed, res.Source)
	}
	return c, nil
}

// token is the staff session token when one exists. Offline tokens are not
// sent since the API cannot know them.
func (s *Service) token(ctx context.Context) string {
	if s.session == nil {
		return ""
	}
	state, err := s.session.Current(ctx)
	if err != nil || !state.LoggedIn || state.Offline {
		return ""
	}
	return state.User.Token
}

func (s *Service) publish(ctx context.Context, t domain.Ticket, source fallback.Source) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.TicketEvent{
		Type:       kafka.EventTicketUsed,
		TicketID:   t.ID.String(),
		TicketUUID: t.TicketUUID,
		EventID:    t.EventKey().String(),
		Username:   t.User.String(),
		Category:   string(t.Kind()),
		Price:      t.Price,
		Status:     string(domain.TicketStatusUsed),
		Source:     string(source),
		OccurredAt: s.clock.Now(),
	}
	if err := s.producer.Publish(ctx, s.topic, event.TicketID, event); err != nil {
		s.log.Warn().Err(err).Str("ticket", event.TicketID).Msg("failed to publish ticket_used")
	}
}

var _ ValidationUseCase = (*Service)(nil)
