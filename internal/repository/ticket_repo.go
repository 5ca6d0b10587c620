package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/storage"
)

type TicketRepository interface {
	All(ctx context.Context) ([]domain.Ticket, error)
	Append(ctx context.Context, tickets ...domain.Ticket) error
	Remove(ctx context.Context, id domain.ID) (*domain.Ticket, error)
	// Modify applies fn to the ticket found by refs. When fn reports no
	// change nothing is written.
	Modify(ctx context.Context, refs []domain.TicketRef, fn func(*domain.Ticket) bool) (*domain.Ticket, error)
}

type LocalTicketRepository struct {
	store storage.Store
}

func NewTicketRepository(store storage.Store) TicketRepository {
	return &LocalTicketRepository{store: store}
}

func (r *LocalTicketRepository) All(ctx context.Context) ([]domain.Ticket, error) {
	data, exists, err := r.store.Get(ctx, KeyTickets)
	if err != nil {
		return nil, err
	}
	return decodeCollection[domain.Ticket](KeyTickets, data, exists)
}

func (r *LocalTicketRepository) Append(ctx context.Context, tickets ...domain.Ticket) error {
	return r.store.Update(ctx, KeyTickets, func(current []byte, exists bool) ([]byte, error) {
		all, err := decodeCollection[domain.Ticket](KeyTickets, current, exists)
		if err != nil {
			return nil, err
		}
		return encodeCollection(append(all, tickets...))
	})
}

// Remove deletes the first ticket whose id has the same string form as id.
func (r *LocalTicketRepository) Remove(ctx context.Context, id domain.ID) (*domain.Ticket, error) {
	var removed domain.Ticket
	err := r.store.Update(ctx, KeyTickets, func(current []byte, exists bool) ([]byte, error) {
		all, err := decodeCollection[domain.Ticket](KeyTickets, current, exists)
		if err != nil {
			return nil, err
		}
		idx := domain.FindTicket(all, []domain.TicketRef{domain.PrimaryID(id), {Kind: domain.RefPrimaryID, Value: id.String(), Loose: true}})
		if idx < 0 {
			return nil, ErrNotFound
		}
		removed = all[idx]
		all = append(all[:idx], all[idx+1:]...)
		return encodeCollection(all)
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

func (r *LocalTicketRepository) Modify(ctx context.Context, refs []domain.TicketRef, fn func(*domain.Ticket) bool) (*domain.Ticket, error) {
	var result domain.Ticket
	err := r.store.Update(ctx, KeyTickets, func(current []byte, exists bool) ([]byte, error) {
		all, err := decodeCollection[domain.Ticket](KeyTickets, current, exists)
		if err != nil {
			return nil, err
		}
		idx := domain.FindTicket(all, refs)
		if idx < 0 {
			return nil, ErrNotFound
		}
		changed := fn(&all[idx])
		result = all[idx]
		if !changed {
			return nil, errNoWrite
		}
		return encodeCollection(all)
	})
	if err != nil && !errors.Is(err, errNoWrite) {
		return nil, err
	}
	return &result, nil
}

var _ TicketRepository = (*LocalTicketRepository)(nil)
