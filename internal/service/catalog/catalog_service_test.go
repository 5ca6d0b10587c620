package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListEvents(ctx context.Context, access string) ([]domain.Event, error) {
	args := m.Called(ctx, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockAPI) GetEvent(ctx context.Context, id domain.ID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetEvents(ctx context.Context, access string) ([]domain.Event, error) {
	args := m.Called(ctx, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockCache) SetEvents(ctx context.Context, access string, events []domain.Event) error {
	args := m.Called(ctx, access, events)
	return args.Error(0)
}

func at(day int) *time.Time {
	t := time.Date(2026, 6, day, 20, 0, 0, 0, time.UTC)
	return &t
}

func fixtures() []domain.Event {
	return []domain.Event{
		{ID: domain.NumericID(1), TeamHomeName: "Nantes", Time: at(3), Accessibility: &domain.StadiumAccessibility{Motor: true}},
		{ID: domain.NumericID(2), TeamHomeName: "Lyon", Time: at(1)},
		{ID: domain.NumericID(3), TeamHomeName: "Lyon", Time: at(3), Accessibility: &domain.StadiumAccessibility{Motor: true, Visual: true}},
	}
}

func ids(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID.String()
	}
	return out
}

func TestSort(t *testing.T) {
	testCases := []struct {
		order    SortOrder
		expected []string
	}{
		{SortDateAsc, []string{"2", "1", "3"}},
		{SortDateDesc, []string{"1", "3", "2"}},
		{SortTeam, []string{"2", "3", "1"}},
		{SortOrder("popularity"), []string{"1", "2", "3"}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.order), func(t *testing.T) {
			input := fixtures()
			sorted := Sort(input, tc.order)

			assert.Equal(t, tc.expected, ids(sorted))
			assert.Equal(t, []string{"1", "2", "3"}, ids(input), "input must not be reordered")
		})
	}
}

func TestFilterAccessible(t *testing.T) {
	assert.Equal(t, []string{"1", "3"}, ids(FilterAccessible(fixtures(), domain.AccessMotor)))
	assert.Equal(t, []string{"3"}, ids(FilterAccessible(fixtures(), domain.AccessVisual)))
	assert.Empty(t, FilterAccessible(fixtures(), domain.AccessHearing))
}

func TestService_ListFetchesAndCaches(t *testing.T) {
	api := &MockAPI{}
	cache := &MockCache{}
	svc := NewCatalogService(api, cache)
	ctx := context.Background()

	cache.On("GetEvents", ctx, "motor").Return(nil, nil).Once()
	api.On("ListEvents", ctx, "motor").Return(fixtures(), nil).Once()
	cache.On("SetEvents", ctx, "motor", fixtures()).Return(nil).Once()

	events, err := svc.List(ctx, Query{Access: domain.AccessMotor, Sort: SortDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(events))

	api.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_ListServesCache(t *testing.T) {
	api := &MockAPI{}
	cache := &MockCache{}
	svc := NewCatalogService(api, cache)
	ctx := context.Background()

	cache.On("GetEvents", ctx, "").Return(fixtures(), nil).Once()

	events, err := svc.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, events, 3)
	api.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything)
}

func TestService_ListLogsCacheFailures(t *testing.T) {
	var buf bytes.Buffer
	api := &MockAPI{}
	cache := &MockCache{}
	svc := NewCatalogService(api, cache, WithLogger(zerolog.New(&buf)))
	ctx := context.Background()

	cache.On("GetEvents", ctx, "").Return(nil, errors.New("redis: connection pool timeout")).Once()
	api.On("ListEvents", ctx, "").Return(fixtures(), nil).Once()
	cache.On("SetEvents", ctx, "", fixtures()).Return(errors.New("READONLY replica")).Once()

	events, err := svc.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Contains(t, buf.String(), "event cache read failed")
	assert.Contains(t, buf.String(), "event cache write failed")
	assert.Contains(t, buf.String(), "READONLY replica")
	cache.AssertExpectations(t)
}

func TestService_ListSurfacesRemoteError(t *testing.T) {
	api := &MockAPI{}
	svc := NewCatalogService(api, nil)
	ctx := context.Background()
	boom := errors.New("connection refused")

	api.On("ListEvents", ctx, "").Return(nil, boom).Once()

	_, err := svc.List(ctx, Query{})
	assert.ErrorIs(t, err, boom)
}

func TestService_Get(t *testing.T) {
	api := &MockAPI{}
	svc := NewCatalogService(api, nil)
	ctx := context.Background()

	api.On("GetEvent", ctx, domain.NumericID(2)).Return(&fixtures()[1], nil).Once()

	event, err := svc.Get(ctx, domain.NumericID(2))
	require.NoError(t, err)
	assert.Equal(t, "Lyon", event.TeamHomeName)
}
