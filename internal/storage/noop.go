package storage

import (
	"context"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Store defines the storage interface
type Store interface {
	GetEnabledRules(ctx context.Context) ([]types.RoutingRule, error)
	SaveRule(ctx context.Context, rule types.RoutingRule) error
	GetAvailableWorkers(ctx context.Context) ([]types.Worker, error)
	SaveWorker(ctx context.Context, worker types.Worker) error
	SaveRoutingRecord(ctx context.Context, record types.RoutingRecord) error
	GetRoutingRecords(ctx context.Context, dateKey string) ([]types.RoutingRecord, error)
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) GetEnabledRules(_ context.Context) ([]types.RoutingRule, error) { return nil, nil }
func (s *NoopStore) SaveRule(_ context.Context, _ types.RoutingRule) error          { return nil }
func (s *NoopStore) GetAvailableWorkers(_ context.Context) ([]types.Worker, error)  { return nil, nil }
func (s *NoopStore) SaveWorker(_ context.Context, _ types.Worker) error             { return nil }
func (s *NoopStore) SaveRoutingRecord(_ context.Context, _ types.RoutingRecord) error {
	return nil
}
func (s *NoopStore) GetRoutingRecords(_ context.Context, _ string) ([]types.RoutingRecord, error) {
	return nil, nil
}
