package tickets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/Domenick1991/matchtickets/internal/qr"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/rs/zerolog"
)

var (
	ErrNotLoggedIn = errors.New("log in to manage tickets")
	ErrCancelled   = errors.New("deletion not confirmed")
	ErrNotFound    = errors.New("ticket not found")

	errOfflineSession = errors.New("offline session")
)

type TicketsUseCase interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	ListMine(ctx context.Context) (*TicketList, error)
	Delete(ctx context.Context, id domain.ID, confirm Confirmer) (fallback.Source, error)
	QRCode(ctx context.Context, code string, size int) ([]byte, *domain.Ticket, error)
}

type API interface {
	MyTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	Purchase(ctx context.Context, token string, req remote.PurchaseRequest) ([]domain.Ticket, error)
	DeleteTicket(ctx context.Context, token string, id domain.ID) error
}

type Session interface {
	Current(ctx context.Context) (session.State, error)
	Expire(ctx context.Context) error
}

type Catalog interface {
	Get(ctx context.Context, id domain.ID) (*domain.Event, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// retryPublisher is the optional side of a Producer that can back off and
// resend. Receipts go through it when available.
type retryPublisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const notifyAttempts = 3

// MaxQuantity bounds how many rows one purchase may create.
const MaxQuantity = 10

// Confirmer guards irreversible actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer for callers that already asked the user.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

type PurchaseInput struct {
	EventID  domain.ID       `json:"event_id"`
	Category domain.Category `json:"category"`
	Quantity int             `json:"quantity"`
}

// NewPurchaseInput turns raw form values into a complete request. Quantity
// is read from its leading digits, so "2.5" buys 2, and defaults to 1 when
// missing or not positive. Category defaults to STANDARD.
func NewPurchaseInput(eventID, category, quantity string) (PurchaseInput, error) {
	return PurchaseInput{
		EventID:  domain.ParseID(strings.TrimSpace(eventID)),
		Category: domain.Category(strings.TrimSpace(category)),
		Quantity: leadingInt(quantity),
	}.normalize()
}

// leadingInt parses an optional sign and the digits that follow it, ignoring
// anything after them. It returns 0 when there are no digits.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// out of range
		if s[0] == '-' {
			return 0
		}
		return MaxQuantity + 1
	}
	return n
}

func (in PurchaseInput) normalize() (PurchaseInput, error) {
	verr := &domain.ValidationError{}
	if in.EventID.IsZero() {
		verr.Add("event_id", "event is required")
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if in.Quantity > MaxQuantity {
		verr.Add("quantity", fmt.Sprintf("quantity must be at most %d", MaxQuantity))
	}
	in.Category = domain.Category(strings.TrimSpace(string(in.Category)))
	if in.Category == "" {
		in.Category = domain.CategoryStandard
	}
	return in, verr.OrNil()
}

type PurchaseResult struct {
	Tickets []domain.Ticket `json:"tickets"`
	Source  fallback.Source `json:"source"`
}

type TicketList struct {
	Tickets []domain.Ticket `json:"tickets"`
	Source  fallback.Source `json:"source"`
}

type Manager struct {
	api                API
	tickets            repository.TicketRepository
	session            Session
	catalog            Catalog
	runner             *fallback.Runner
	producer           Producer
	topic              string
	notificationsTopic string
	clock              clock.Clock
	ids                *idSource
	seat               func() int
	log                zerolog.Logger
}

type ManagerOption func(*Manager)

func WithRunner(r *fallback.Runner) ManagerOption {
	return func(m *Manager) {
		m.runner = r
	}
}

func WithProducer(p Producer, topic string) ManagerOption {
	return func(m *Manager) {
		m.producer = p
		m.topic = topic
	}
}

func WithNotificationsTopic(topic string) ManagerOption {
	return func(m *Manager) {
		m.notificationsTopic = topic
	}
}

func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithSeatSource replaces the random seat number (1..100).
func WithSeatSource(f func() int) ManagerOption {
	return func(m *Manager) {
		m.seat = f
	}
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

func NewManager(api API, tickets repository.TicketRepository, sessions Session, catalog Catalog, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:     api,
		tickets: tickets,
		session: sessions,
		catalog: catalog,
		clock:   clock.Real(),
		seat:    func() int { return rand.Intn(100) + 1 },
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ids = &idSource{clock: m.clock}
	return m
}

func (m *Manager) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	if !input.Category.Known() {
		m.log.Warn().Str("category", string(input.Category)).Msg("unknown category, charging STANDARD price")
	}
	state, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := m.snapshot(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, m.runner, state, fallback.Op[[]domain.Ticket]{
		Name: "purchase",
		Remote: func(ctx context.Context) ([]domain.Ticket, error) {
			created, err := m.api.Purchase(ctx, state.User.Token, remote.PurchaseRequest{
				EventID:  input.EventID,
				Category: input.Category,
				Quantity: input.Quantity,
			})
			m.expireOn(ctx, err)
			return created, err
		},
		Local: func(ctx context.Context) ([]domain.Ticket, error) {
			return m.purchaseLocal(ctx, state.User, input, snapshot)
		},
	})
	if err != nil {
		return nil, err
	}

	for _, t := range res.Value {
		m.publish(ctx, kafka.EventTicketPurchased, t, res.Source, state.User)
	}
	return &PurchaseResult{Tickets: res.Value, Source: res.Source}, nil
}

// snapshot resolves the event copied into event_details. An unknown event
// rejects the purchase. An unreachable catalog leaves only the id.
func (m *Manager) snapshot(ctx context.Context, id domain.ID) (*domain.Event, error) {
	if m.catalog == nil {
		return &domain.Event{ID: id}, nil
	}
	event, err := m.catalog.Get(ctx, id)
	switch {
	case err == nil:
		return event, nil
	case errors.Is(err, remote.ErrNotFound):
		verr := &domain.ValidationError{}
		verr.Add("event_id", fmt.Sprintf("event %s does not exist", id))
		return nil, verr
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		m.log.Warn().Err(err).Str("event_id", id.String()).Msg("catalog unavailable, using minimal event")
		return &domain.Event{ID: id}, nil
	}
}

// purchaseLocal writes one row per unit in a single store update.
func (m *Manager) purchaseLocal(ctx context.Context, user domain.User, input PurchaseInput, snapshot *domain.Event) ([]domain.Ticket, error) {
	now := m.clock.Now()
	base := m.ids.next()

	created := make([]domain.Ticket, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		id := domain.StringID(fmt.Sprintf("%d-%d", base, i))
		details := *snapshot
		created = append(created, domain.Ticket{
			ID:           id,
			TicketUUID:   domain.TicketUUID(id, input.EventID),
			User:         domain.StringID(user.Username),
			UserID:       user.ID,
			Event:        input.EventID,
			EventDetails: &details,
			Category:     input.Category,
			TicketType:   input.Category,
			Quantity:     1,
			Price:        input.Category.Price(),
			PurchaseDate: now,
			Status:       domain.TicketStatusActive,
			Seat:         domain.SeatLabel(input.Category, m.seat()),
		})
	}

	if err := m.tickets.Append(ctx, created...); err != nil {
		return nil, err
	}
	return created, nil
}

// ListMine returns the tickets of whichever store answered. Remote and local
// results are never merged.
func (m *Manager) ListMine(ctx context.Context) (*TicketList, error) {
	state, err := m.current(ctx)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, m.runner, state, fallback.Op[[]domain.Ticket]{
		Name: "list_tickets",
		Remote: func(ctx context.Context) ([]domain.Ticket, error) {
			list, err := m.api.MyTickets(ctx, state.User.Token)
			m.expireOn(ctx, err)
			return list, err
		},
		Local: func(ctx context.Context) ([]domain.Ticket, error) {
			all, err := m.tickets.All(ctx)
			if err != nil {
				return nil, err
			}
			mine := make([]domain.Ticket, 0, len(all))
			for _, t := range all {
				if t.OwnedBy(state.User) {
					mine = append(mine, t)
				}
			}
			return mine, nil
		},
	})
	if err != nil {
		return nil, err
	}
	if res.Value == nil {
		res.Value = []domain.Ticket{}
	}
	return &TicketList{Tickets: res.Value, Source: res.Source}, nil
}

// Delete asks confirm first and does nothing unless it agrees. A ticket
// missing from the local store is reported as ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id domain.ID, confirm Confirmer) (fallback.Source, error) {
	if id.IsZero() {
		return "", ErrNotFound
	}
	if confirm == nil {
		return "", ErrCancelled
	}
	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Delete ticket %s? This cannot be undone.", id))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}

	state, err := m.current(ctx)
	if err != nil {
		return "", err
	}

	res, err := run(ctx, m.runner, state, fallback.Op[*domain.Ticket]{
		Name: "delete_ticket",
		Remote: func(ctx context.Context) (*domain.Ticket, error) {
			err := m.api.DeleteTicket(ctx, state.User.Token, id)
			m.expireOn(ctx, err)
			if err != nil {
				return nil, err
			}
			return &domain.Ticket{ID: id}, nil
		},
		Local: func(ctx context.Context) (*domain.Ticket, error) {
			removed, err := m.tickets.Remove(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return removed, err
		},
	})
	if err != nil {
		return res.Source, err
	}

	m.publish(ctx, kafka.EventTicketDeleted, *res.Value, res.Source, state.User)
	return res.Source, nil
}

// QRCode renders the scan code of one of the caller's tickets. code may be
// either of the ticket's identifiers.
func (m *Manager) QRCode(ctx context.Context, code string, size int) ([]byte, *domain.Ticket, error) {
	list, err := m.ListMine(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx := domain.FindTicket(list.Tickets, domain.LookupOrder(code))
	if idx < 0 {
		return nil, nil, ErrNotFound
	}
	ticket := list.Tickets[idx]

	png, err := qr.Encode(ticket.ScanCode(), size)
	if err != nil {
		return nil, nil, err
	}
	return png, &ticket, nil
}

func (m *Manager) current(ctx context.Context) (session.State, error) {
	state, err := m.session.Current(ctx)
	if err != nil {
		return session.State{}, err
	}
	if !state.LoggedIn {
		return session.State{}, ErrNotLoggedIn
	}
	return state, nil
}

func (m *Manager) expireOn(ctx context.Context, err error) {
	if !errors.Is(err, remote.ErrUnauthorized) {
		return
	}
	if xerr := m.session.Expire(ctx); xerr != nil {
		m.log.Warn().Err(xerr).Msg("failed to clear expired session")
	}
}

func (m *Manager) publish(ctx context.Context, eventType string, t domain.Ticket, source fallback.Source, user domain.User) {
	if m.producer == nil || m.topic == "" {
		return
	}
	event := kafka.TicketEvent{
		Type:       eventType,
		TicketID:   t.ID.String(),
		TicketUUID: t.TicketUUID,
		EventID:    t.EventKey().String(),
		Username:   user.Username,
		Category:   string(t.Kind()),
		Price:      t.Price,
		Status:     string(t.Status),
		Source:     string(source),
		OccurredAt: m.clock.Now(),
	}
	if err := m.producer.Publish(ctx, m.topic, event.TicketID, event); err != nil {
		m.log.Warn().Err(err).Str("type", eventType).Str("ticket", event.TicketID).Msg("failed to publish ticket event")
		return
	}
	if m.notificationsTopic != "" && eventType == kafka.EventTicketPurchased {
		if err := m.notify(ctx, event); err != nil {
			m.log.Warn().Err(err).Str("ticket", event.TicketID).Msg("failed to publish notification")
		}
	}
}

func (m *Manager) notify(ctx context.Context, event kafka.TicketEvent) error {
	if rp, ok := m.producer.(retryPublisher); ok {
		return rp.PublishWithRetry(ctx, m.notificationsTopic, event.TicketID, event, notifyAttempts)
	}
	return m.producer.Publish(ctx, m.notificationsTopic, event.TicketID, event)
}

// run sends offline sessions straight to the local store. Their tokens mean
// nothing to the API.
func run[T any](ctx context.Context, r *fallback.Runner, state session.State, op fallback.Op[T]) (fallback.Result[T], error) {
	if !state.Offline {
		return fallback.Run(ctx, r, op)
	}
	value, err := op.Local(ctx)
	res := fallback.Result[T]{Value: value, Source: fallback.SourceLocal, RemoteErr: errOfflineSession}
	if err != nil {
		return res, fmt.Errorf("%s: %w", op.Name, err)
	}
	return res, nil
}

// idSource hands out millisecond stamps that never repeat, so two purchases
// in the same millisecond still get distinct ids.
type idSource struct {
	mu    sync.Mutex
	last  int64
	clock clock.Clock
}

func (g *idSource) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.clock.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

var _ TicketsUseCase = (*Manager)(nil)
