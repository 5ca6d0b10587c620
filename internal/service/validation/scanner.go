package validation

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/qr"
)

var ErrNotConfirmable = errors.New("only a valid ticket can be confirmed")

// Scanner is the per-operator state machine around one scanned code. It is
// not safe for concurrent use.
type Scanner struct {
	svc     ValidationUseCase
	clock   clock.Clock
	state   ScanState
	verdict *Verdict
}

type ScannerOption func(*Scanner)

// WithScannerClock stamps confirmations the validator returned without a
// used_at.
func WithScannerClock(c clock.Clock) ScannerOption {
	return func(s *Scanner) {
		s.clock = c
	}
}

func NewScanner(svc ValidationUseCase, opts ...ScannerOption) *Scanner {
	s := &Scanner{svc: svc, clock: clock.Real(), state: StateUnscanned}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) State() ScanState { return s.state }

func (s *Scanner) Verdict() *Verdict { return s.verdict }

func (s *Scanner) Reset() {
	s.state = StateUnscanned
	s.verdict = nil
}

// Scan decodes a QR image and checks the code it carries. An unreadable image
// ends in INVALID_SCAN_ERROR without contacting any store.
func (s *Scanner) Scan(ctx context.Context, image io.Reader) (*Verdict, error) {
	code, err := qr.Decode(image)
	if err != nil {
		s.state = StateInvalidScanError
		s.verdict = &Verdict{State: StateInvalidScanError, Message: err.Error()}
		return s.verdict, nil
	}
	return s.Check(ctx, code)
}

// Check verifies a code typed or decoded elsewhere. When verification itself
// fails the scanner returns to UNSCANNED and the error is returned.
func (s *Scanner) Check(ctx context.Context, code string) (*Verdict, error) {
	s.state = StateChecking
	s.verdict = nil

	v, err := s.svc.Verify(ctx, code)
	if err != nil {
		if errors.Is(err, ErrEmptyCode) {
			s.state = StateInvalidScanError
			s.verdict = &Verdict{State: StateInvalidScanError, Message: err.Error()}
			return s.verdict, nil
		}
		s.state = StateUnscanned
		return nil, err
	}
	s.state = v.State
	s.verdict = v
	return v, nil
}

// Confirm marks the checked ticket used and verifies it again, which ends in
// INVALID_USED.
func (s *Scanner) Confirm(ctx context.Context) (*Confirmation, error) {
	if s.state != StateValidActive || s.verdict == nil {
		return nil, ErrNotConfirmable
	}
	code := s.verdict.Code

	c, err := s.svc.ConfirmUse(ctx, code)
	if err != nil {
		return c, err
	}

	v, err := s.svc.Verify(ctx, code)
	if err != nil {
		return c, err
	}
	if v.State == StateValidActive {
		// the confirm landed in the other store
		v.State = StateInvalidUsed
		v.Message = MessageAlreadyUsed
		v.UsedAt = s.usedAt(c)
	}
	s.state = v.State
	s.verdict = v
	return c, nil
}

func (s *Scanner) usedAt(c *Confirmation) *time.Time {
	if c.UsedAt != nil {
		return c.UsedAt
	}
	now := s.clock.Now()
	return &now
}
