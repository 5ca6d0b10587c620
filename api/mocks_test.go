package api

import (
	"context"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/service/catalog"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/Domenick1991/matchtickets/internal/service/tickets"
	"github.com/Domenick1991/matchtickets/internal/service/validation"
	"github.com/stretchr/testify/mock"
)

type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) List(ctx context.Context, query catalog.Query) ([]domain.Event, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockCatalogUseCase) Get(ctx context.Context, id domain.ID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) Current(ctx context.Context) (session.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.State), args.Error(1)
}

func (m *MockSessionUseCase) Login(ctx context.Context, input session.LoginInput) (session.State, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(session.State), args.Error(1)
}

func (m *MockSessionUseCase) Register(ctx context.Context, input session.RegisterInput) (*session.RegisterResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.RegisterResult), args.Error(1)
}

func (m *MockSessionUseCase) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSessionUseCase) Expire(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTicketsUseCase struct {
	mock.Mock
}

func (m *MockTicketsUseCase) Purchase(ctx context.Context, input tickets.PurchaseInput) (*tickets.PurchaseResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickets.PurchaseResult), args.Error(1)
}

func (m *MockTicketsUseCase) ListMine(ctx context.Context) (*tickets.TicketList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickets.TicketList), args.Error(1)
}

func (m *MockTicketsUseCase) Delete(ctx context.Context, id domain.ID, confirm tickets.Confirmer) (fallback.Source, error) {
	args := m.Called(ctx, id, confirm)
	return args.Get(0).(fallback.Source), args.Error(1)
}

func (m *MockTicketsUseCase) QRCode(ctx context.Context, code string, size int) ([]byte, *domain.Ticket, error) {
	args := m.Called(ctx, code, size)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*domain.Ticket), args.Error(2)
}

type MockValidationUseCase struct {
	mock.Mock
}

func (m *MockValidationUseCase) Verify(ctx context.Context, code string) (*validation.Verdict, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validation.Verdict), args.Error(1)
}

func (m *MockValidationUseCase) ConfirmUse(ctx context.Context, code string) (*validation.Confirmation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validation.Confirmation), args.Error(1)
}
