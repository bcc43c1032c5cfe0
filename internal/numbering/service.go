package numbering

import (
	"context"
	"fmt"
	"time"

	"backend/internal/repository"
)

// Service allocates running numbers for the three aggregate namespaces plus
// NCR reports. Allocation goes through the sequence counter, which increments
// atomically per scope, so two concurrent requests never get the same number.
type Service interface {
	NextReturnNumber(ctx context.Context, branch string) (string, error)
	NextCollectionOrderNumber(ctx context.Context, branch string) (string, error)
	NextShipmentNumber(ctx context.Context, branch string) (string, error)
	NextNCRNumber(ctx context.Context, branch string) (string, error)
}

type service struct {
	counters repository.CounterRepository
	now      func() time.Time
}

func NewService(counters repository.CounterRepository) Service {
	return &service{counters: counters, now: time.Now}
}

func (s *service) next(ctx context.Context, prefix, branch string) (string, error) {
	scope := Scope(prefix, branch, s.now().Year())
	n, err := s.counters.Next(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", prefix, err)
	}
	return Format(scope, n), nil
}

func (s *service) NextReturnNumber(ctx context.Context, branch string) (string, error) {
	return s.next(ctx, PrefixReturn, branch)
}

func (s *service) NextCollectionOrderNumber(ctx context.Context, branch string) (string, error) {
	return s.next(ctx, PrefixCollection, branch)
}

func (s *service) NextShipmentNumber(ctx context.Context, branch string) (string, error) {
	return s.next(ctx, PrefixShipment, branch)
}

func (s *service) NextNCRNumber(ctx context.Context, branch string) (string, error) {
	return s.next(ctx, PrefixNCR, branch)
}
