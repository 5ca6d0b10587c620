package catalog

import (
	"context"
	"sort"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/rs/zerolog"
)

type CatalogUseCase interface {
	List(ctx context.Context, query Query) ([]domain.Event, error)
	Get(ctx context.Context, id domain.ID) (*domain.Event, error)
}

type API interface {
	ListEvents(ctx context.Context, access string) ([]domain.Event, error)
	GetEvent(ctx context.Context, id domain.ID) (*domain.Event, error)
}

type Cache interface {
	GetEvents(ctx context.Context, access string) ([]domain.Event, error)
	SetEvents(ctx context.Context, access string, events []domain.Event) error
}

type SortOrder string

const (
	SortDateAsc  SortOrder = "date-asc"
	SortDateDesc SortOrder = "date-desc"
	SortTeam     SortOrder = "team"
)

type Query struct {
	Access domain.AccessibilityFlag
	Sort   SortOrder
}

// Service reads the catalog from the API. There is no local fallback: a
// failure is returned to the caller.
type Service struct {
	api   API
	cache Cache
	log   zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

func NewCatalogService(api API, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{api: api, cache: cache, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, query Query) ([]domain.Event, error) {
	access := string(query.Access)

	var events []domain.Event
	if s.cache != nil {
		cached, err := s.cache.GetEvents(ctx, access)
		if err != nil {
			s.log.Warn().Err(err).Str("access", access).Msg("event cache read failed")
		} else if cached != nil {
			events = cached
		}
	}
	if events == nil {
		fetched, err := s.api.ListEvents(ctx, access)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetEvents(ctx, access, fetched); err != nil {
				s.log.Warn().Err(err).Str("access", access).Msg("event cache write failed")
			}
		}
		events = fetched
	}

	if query.Access != "" {
		events = FilterAccessible(events, query.Access)
	}
	return Sort(events, query.Sort), nil
}

func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Event, error) {
	return s.api.GetEvent(ctx, id)
}

func FilterAccessible(events []domain.Event, flag domain.AccessibilityFlag) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.Accessibility.Has(flag) {
			out = append(out, e)
		}
	}
	return out
}

// Sort returns a sorted copy and leaves events untouched. Ties keep their
// input order. An unknown order returns the copy as is.
func Sort(events []domain.Event, order SortOrder) []domain.Event {
	out := make([]domain.Event, len(events))
	copy(out, events)

	switch order {
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt().Before(out[j].StartsAt()) })
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt().After(out[j].StartsAt()) })
	case SortTeam:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TeamHomeName < out[j].TeamHomeName })
	}
	return out
}

var _ CatalogUseCase = (*Service)(nil)
