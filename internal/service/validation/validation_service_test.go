package validation

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/Domenick1991/matchtickets/internal/qr"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/Domenick1991/matchtickets/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) VerifyTicket(ctx context.Context, code string) (*remote.VerifyResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.VerifyResult), args.Error(1)
}

func (m *MockAPI) ConfirmTicket(ctx context.Context, token, code string) (*remote.ConfirmResult, error) {
	args := m.Called(ctx, token, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.ConfirmResult), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Current(ctx context.Context) (session.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.State), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var (
	errOffline = errors.New("dial tcp 127.0.0.1:8000: connection refused")
	notFound   = &remote.APIError{Status: http.StatusNotFound, Message: "Not found."}
	start      = time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
)

func newService(t *testing.T, opts ...ServiceOption) (*Service, *MockAPI, repository.TicketRepository, *clock.FakeClock) {
	t.Helper()
	api := &MockAPI{}
	repo := repository.NewTicketRepository(storage.NewMemoryStore())
	clk := clock.Fake(start)
	opts = append([]ServiceOption{WithClock(clk)}, opts...)
	return NewValidationService(api, repo, opts...), api, repo, clk
}

func localTicket() domain.Ticket {
	return domain.Ticket{
		ID:         domain.StringID("1780338600000-0"),
		TicketUUID: "TICKET-1780338600000-0-42",
		User:       domain.StringID("alice"),
		Event:      domain.NumericID(42),
		Category:   domain.CategoryVIP,
		Quantity:   1,
		Status:     domain.TicketStatusActive,
	}
}

func TestService_VerifyNotFoundAnywhere(t *testing.T) {
	svc, api, _, _ := newService(t)
	api.On("VerifyTicket", mock.Anything, "TICKET-17-42").Return(nil, notFound).Once()

	v, err := svc.Verify(context.Background(), "TICKET-17-42")
	require.NoError(t, err)
	assert.Equal(t, StateInvalidNotFound, v.State)
	assert.Equal(t, MessageNotFound, v.Message)
	assert.False(t, v.Valid())
	assert.Equal(t, fallback.SourceLocal, v.Source)
}

func TestService_VerifyLocalLookupOrder(t *testing.T) {
	svc, api, repo, _ := newService(t)
	numeric := domain.Ticket{ID: domain.NumericID(17), TicketUUID: "TICKET-17-42", Status: domain.TicketStatusActive}
	require.NoError(t, repo.Append(context.Background(), localTicket(), numeric))
	api.On("VerifyTicket", mock.Anything, mock.Anything).Return(nil, errOffline)

	testCases := []struct {
		code     string
		expected string
	}{
		{"TICKET-1780338600000-0-42", "1780338600000-0"},
		{"1780338600000-0", "1780338600000-0"},
		{"17", "17"},
		{" TICKET-17-42 ", "17"},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			v, err := svc.Verify(context.Background(), tc.code)
			require.NoError(t, err)
			assert.Equal(t, StateValidActive, v.State)
			assert.Equal(t, tc.expected, v.Ticket.ID.String())
			assert.True(t, v.Minimal)
		})
	}
}

func TestService_VerifyRemote(t *testing.T) {
	svc, api, _, _ := newService(t)
	used := start.Add(-time.Hour)

	api.On("VerifyTicket", mock.Anything, "good").Return(&remote.VerifyResult{
		Valid:  true,
		Ticket: &domain.Ticket{ID: domain.NumericID(5), EventDetails: &domain.Event{ID: domain.NumericID(1)}},
	}, nil).Once()
	api.On("VerifyTicket", mock.Anything, "used").Return(&remote.VerifyResult{Valid: false, Message: "Ticket already used", UsedAt: &used}, nil).Once()

	v, err := svc.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, StateValidActive, v.State)
	assert.Equal(t, fallback.SourceRemote, v.Source)
	assert.False(t, v.Minimal)

	v, err = svc.Verify(context.Background(), "used")
	require.NoError(t, err)
	assert.Equal(t, StateInvalidUsed, v.State)
	assert.Equal(t, "Ticket already used", v.Message)
	assert.Equal(t, used, *v.UsedAt)
}

func TestService_VerifyEmptyCode(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Verify(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestService_VerifyConfirmVerifyLocal(t *testing.T) {
	svc, api, repo, clk := newService(t)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, localTicket()))
	code := "TICKET-1780338600000-0-42"

	api.On("VerifyTicket", mock.Anything, code).Return(nil, errOffline)
	api.On("ConfirmTicket", mock.Anything, "", code).Return(nil, errOffline)

	v, err := svc.Verify(ctx, code)
	require.NoError(t, err)
	assert.True(t, v.Valid())

	first, err := svc.ConfirmUse(ctx, code)
	require.NoError(t, err)
	assert.True(t, first.Transitioned)
	assert.Equal(t, fallback.SourceLocal, first.Source)
	require.NotNil(t, first.UsedAt)
	assert.Equal(t, start, *first.UsedAt)

	v, err = svc.Verify(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, StateInvalidUsed, v.State)
	require.NotNil(t, v.UsedAt)

	clk.Advance(time.Minute)
	second, err := svc.ConfirmUse(ctx, code)
	require.NoError(t, err)
	assert.False(t, second.Transitioned)
	assert.True(t, second.AlreadyUsed)
	assert.Equal(t, MessageAlreadyUsed, second.Message)
	assert.Equal(t, start, *second.UsedAt)

	stored, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.TicketStatusUsed, stored[0].Status)
	assert.Equal(t, start, *stored[0].UsedAt)
}

func TestService_ConfirmUseNotFoundLocally(t *testing.T) {
	svc, api, _, _ := newService(t)
	api.On("ConfirmTicket", mock.Anything, "", "ghost").Return(nil, notFound).Once()

	_, err := svc.ConfirmUse(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ConfirmUseRemoteAnswers(t *testing.T) {
	sess := &MockSession{}
	sess.On("Current", mock.Anything).Return(session.State{LoggedIn: true, User: domain.User{Username: "staff", Token: "tok"}}, nil)
	svc, api, _, _ := newService(t, WithSession(sess))
	used := start

	api.On("ConfirmTicket", mock.Anything, "tok", "a").Return(&remote.ConfirmResult{Success: true, Message: "Ticket validated", UsedAt: &used}, nil).Once()
	api.On("ConfirmTicket", mock.Anything, "tok", "b").Return(&remote.ConfirmResult{AlreadyUsed: true, Message: "Ticket already used"}, nil).Once()
	api.On("ConfirmTicket", mock.Anything, "tok", "c").Return(&remote.ConfirmResult{Success: false, Message: "Event is over"}, nil).Once()

	c, err := svc.ConfirmUse(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, c.Transitioned)
	assert.Equal(t, fallback.SourceRemote, c.Source)

	c, err = svc.ConfirmUse(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, c.AlreadyUsed)

	c, err = svc.ConfirmUse(context.Background(), "c")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "Event is over", c.Message)

	api.AssertExpectations(t)
}

func TestService_ConfirmUseSkipsOfflineToken(t *testing.T) {
	sess := &MockSession{}
	sess.On("Current", mock.Anything).Return(session.State{LoggedIn: true, Offline: true, User: domain.User{Token: "offline-1"}}, nil)
	svc, api, _, _ := newService(t, WithSession(sess))

	api.On("ConfirmTicket", mock.Anything, "", "a").Return(&remote.ConfirmResult{Success: true}, nil).Once()

	_, err := svc.ConfirmUse(context.Background(), "a")
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestService_ConfirmUsePublishesOnce(t *testing.T) {
	producer := &MockProducer{}
	svc, api, repo, _ := newService(t, WithProducer(producer, "ticket-events"))
	require.NoError(t, repo.Append(context.Background(), localTicket()))
	api.On("ConfirmTicket", mock.Anything, "", "1780338600000-0").Return(nil, errOffline)

	producer.On("Publish", mock.Anything, "ticket-events", "1780338600000-0", mock.MatchedBy(func(e kafka.TicketEvent) bool {
		return e.Type == kafka.EventTicketUsed && e.Username == "alice" && e.Source == "local"
	})).Return(nil).Once()

	_, err := svc.ConfirmUse(context.Background(), "1780338600000-0")
	require.NoError(t, err)
	_, err = svc.ConfirmUse(context.Background(), "1780338600000-0")
	require.NoError(t, err)

	producer.AssertExpectations(t)
}

func TestService_VerifyCorruptStore(t *testing.T) {
	api := &MockAPI{}
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), repository.KeyTickets, []byte("[{")))
	svc := NewValidationService(api, repository.NewTicketRepository(store))
	api.On("VerifyTicket", mock.Anything, "x").Return(nil, errOffline)

	_, err := svc.Verify(context.Background(), "x")
	assert.ErrorIs(t, err, repository.ErrCorrupt)
}

func TestScanner_Flow(t *testing.T) {
	svc, api, repo, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, localTicket()))
	code := "TICKET-1780338600000-0-42"
	api.On("VerifyTicket", mock.Anything, code).Return(nil, errOffline)
	api.On("ConfirmTicket", mock.Anything, "", code).Return(nil, errOffline)

	png, err := qr.Encode(code, 256)
	require.NoError(t, err)

	sc := NewScanner(svc)
	assert.Equal(t, StateUnscanned, sc.State())

	_, err = sc.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNotConfirmable)

	v, err := sc.Scan(ctx, bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, StateValidActive, v.State)

	c, err := sc.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, c.Transitioned)
	assert.Equal(t, StateInvalidUsed, sc.State())
	require.NotNil(t, sc.Verdict().UsedAt)

	_, err = sc.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNotConfirmable)

	sc.Reset()
	assert.Equal(t, StateUnscanned, sc.State())
	assert.Nil(t, sc.Verdict())
}

func TestScanner_ScanError(t *testing.T) {
	svc, api, _, _ := newService(t)
	sc := NewScanner(svc)

	v, err := sc.Scan(context.Background(), strings.NewReader("not an image"))
	require.NoError(t, err)
	assert.Equal(t, StateInvalidScanError, v.State)
	assert.Equal(t, StateInvalidScanError, sc.State())
	api.AssertNotCalled(t, "VerifyTicket", mock.Anything, mock.Anything)
}

func TestScanner_CheckNotFound(t *testing.T) {
	svc, api, _, _ := newService(t)
	api.On("VerifyTicket", mock.Anything, "nope").Return(nil, notFound).Once()
	sc := NewScanner(svc)

	v, err := sc.Check(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, StateInvalidNotFound, v.State)
	assert.Equal(t, StateInvalidNotFound, sc.State())
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Verify(ctx context.Context, code string) (*Verdict, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Verdict), args.Error(1)
}

func (m *MockValidator) ConfirmUse(ctx context.Context, code string) (*Confirmation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Confirmation), args.Error(1)
}

func TestScanner_ConfirmStampsWithInjectedClock(t *testing.T) {
	stamp := time.Date(2026, 6, 1, 21, 15, 0, 0, time.UTC)
	v := &MockValidator{}
	sc := NewScanner(v, WithScannerClock(clock.Fake(stamp)))
	ctx := context.Background()

	active := &Verdict{Code: "TICKET-17-42", State: StateValidActive}
	v.On("Verify", ctx, "TICKET-17-42").Return(active, nil).Once()
	v.On("ConfirmUse", ctx, "TICKET-17-42").Return(&Confirmation{Code: "TICKET-17-42", Transitioned: true}, nil).Once()
	// the re-verify hit the other store and still reports the ticket active
	v.On("Verify", ctx, "TICKET-17-42").Return(&Verdict{Code: "TICKET-17-42", State: StateValidActive}, nil).Once()

	_, err := sc.Check(ctx, "TICKET-17-42")
	require.NoError(t, err)
	_, err = sc.Confirm(ctx)
	require.NoError(t, err)

	assert.Equal(t, StateInvalidUsed, sc.State())
	require.NotNil(t, sc.Verdict().UsedAt)
	assert.Equal(t, stamp, *sc.Verdict().UsedAt)
	v.AssertExpectations(t)
}
