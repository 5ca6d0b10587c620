package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/matchtickets/internal/metrics"
	"github.com/rs/zerolog"
)

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Op is one durable operation: a remote strategy and the local strategy
// that replaces it when the remote one fails.
type Op[T any] struct {
	Name   string
	Remote func(ctx context.Context) (T, error)
	Local  func(ctx context.Context) (T, error)
	// ShouldFallback decides which remote errors the local strategy may
	// recover. Nil means every error.
	ShouldFallback func(error) bool
}

type Result[T any] struct {
	Value  T
	Source Source
	// RemoteErr is the failure that sent the operation to the local store.
	RemoteErr error
}

type Runner struct {
	breaker *Breaker
	log     zerolog.Logger
}

type Option func(*Runner)

func WithBreaker(b *Breaker) Option {
	return func(r *Runner) {
		r.breaker = b
	}
}

func NewRunner(log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{log: log.With().Str("component", "fallback").Logger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run tries the remote strategy and only after it has failed runs the local
// one. The two never overlap.
func Run[T any](ctx context.Context, r *Runner, op Op[T]) (Result[T], error) {
	if r == nil {
		r = NewRunner(zerolog.Nop())
	}

	value, remoteErr := callRemote(ctx, r, op)
	if remoteErr == nil {
		metrics.OperationsTotal.WithLabelValues(op.Name, string(SourceRemote), "ok").Inc()
		return Result[T]{Value: value, Source: SourceRemote}, nil
	}

	if ctx.Err() != nil || op.Local == nil || (op.ShouldFallback != nil && !op.ShouldFallback(remoteErr)) {
		metrics.OperationsTotal.WithLabelValues(op.Name, string(SourceRemote), "error").Inc()
		var zero T
		return Result[T]{Value: zero, Source: SourceRemote, RemoteErr: remoteErr}, remoteErr
	}

	r.log.Warn().Err(remoteErr).Str("operation", op.Name).Msg("remote failed, using local store")
	metrics.FallbacksTotal.WithLabelValues(op.Name).Inc()

	value, err := op.Local(ctx)
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(op.Name, string(SourceLocal), "error").Inc()
		r.log.Error().Err(err).Str("operation", op.Name).Msg("local fallback failed")
		return Result[T]{Value: value, Source: SourceLocal, RemoteErr: remoteErr}, fmt.Errorf("%s: %w", op.Name, err)
	}
	metrics.OperationsTotal.WithLabelValues(op.Name, string(SourceLocal), "ok").Inc()
	return Result[T]{Value: value, Source: SourceLocal, RemoteErr: remoteErr}, nil
}

func callRemote[T any](ctx context.Context, r *Runner, op Op[T]) (T, error) {
	var zero T
	if op.Remote == nil {
		return zero, errors.New("no remote strategy")
	}
	if r.breaker == nil {
		return op.Remote(ctx)
	}

	var value T
	err := r.breaker.Execute(func() error {
		v, err := op.Remote(ctx)
		value = v
		return err
	}, op.ShouldFallback)
	if err != nil {
		return zero, err
	}
	return value, nil
}
