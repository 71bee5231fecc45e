package codepool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// reserveAttempts bounds the insert-retry loop when concurrent bookings
// race for the same number.
const reserveAttempts = 5

// Service implements code allocation on top of a reservation Repo.
type Service struct {
	repo    Repo
	logger  zerolog.Logger
	randInt func(n int) int
}

func NewService(repo Repo, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		logger:  logger.With().Str("component", "codepool").Logger(),
		randInt: rand.Intn,
	}
}

// Allocate picks the next code for an actor without reserving it:
// lowest absent number in the primary range, then the secondary range,
// then a random free number in the last-resort range.
func (s *Service) Allocate(ctx context.Context, actor Actor) (string, error) {
	used, err := s.repo.UsedNumbers(ctx)
	if err != nil {
		return "", fmt.Errorf("loading used codes: %w", err)
	}
	n, err := s.pick(actor, used)
	if err != nil {
		return "", err
	}
	return FormatCode(n), nil
}

// Reserve allocates a code and atomically claims it. When a concurrent
// booking wins the same number, the unique constraint rejects the
// insert and the allocation is retried against a fresh snapshot.
func (s *Service) Reserve(ctx context.Context, actor Actor) (string, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		used, err := s.repo.UsedNumbers(ctx)
		if err != nil {
			return "", fmt.Errorf("loading used codes: %w", err)
		}
		n, err := s.pick(actor, used)
		if err != nil {
			return "", err
		}

		code := FormatCode(n)
		err = s.repo.TryReserve(ctx, code, n, actor)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return "", err
		}
		s.logger.Debug().Str("code", code).Int("attempt", attempt+1).
			Msg("code taken by concurrent booking, retrying")
	}
	return "", fmt.Errorf("%w: gave up after %d attempts", ErrPoolExhausted, reserveAttempts)
}

// Release frees a reserved code so the number can be handed out again.
func (s *Service) Release(ctx context.Context, code string) error {
	return s.repo.Release(ctx, code)
}

// pick returns the lowest free number in the actor's primary range,
// falling back to the secondary range and finally to a random draw from
// the shared last-resort range.
func (s *Service) pick(actor Actor, used map[int]bool) (int, error) {
	primary, secondary, err := RangesFor(actor)
	if err != nil {
		return 0, err
	}

	for n := primary.Lo; n <= primary.Hi; n++ {
		if !used[n] {
			return n, nil
		}
	}
	for n := secondary.Lo; n <= secondary.Hi; n++ {
		if !used[n] {
			return n, nil
		}
	}

	// Random probing keeps contention low when several exhausted pools
	// land here at once. The sweep below guarantees termination.
	for i := 0; i < 20; i++ {
		n := LastResortRange.Lo + s.randInt(LastResortRange.Size())
		if !used[n] {
			return n, nil
		}
	}
	for n := LastResortRange.Lo; n <= LastResortRange.Hi; n++ {
		if !used[n] {
			return n, nil
		}
	}
	return 0, ErrPoolExhausted
}
