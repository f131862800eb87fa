package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// MockQueryRepository is a mock implementation of QueryRepository
type MockQueryRepository struct {
	mock.Mock
}

func (m *MockQueryRepository) History(ctx context.Context, limit, offset int, filter entities.HistoryFilter) ([]entities.ScanHistoryRow, error) {
	args := m.Called(ctx, limit, offset, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ScanHistoryRow), args.Error(1)
}

func (m *MockQueryRepository) SearchThreats(ctx context.Context, text string, limit, offset int) ([]entities.Threat, error) {
	args := m.Called(ctx, text, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Threat), args.Error(1)
}

func (m *MockQueryRepository) FileByHash(ctx context.Context, hash string) (*entities.File, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.File), args.Error(1)
}

func (m *MockQueryRepository) DailyRollups(ctx context.Context, limit int) ([]entities.DailyRollup, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DailyRollup), args.Error(1)
}

func (m *MockQueryRepository) DailyThreats(ctx context.Context, date string, limit int) ([]entities.DailyThreat, error) {
	args := m.Called(ctx, date, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DailyThreat), args.Error(1)
}

func (m *MockQueryRepository) UserActivity(ctx context.Context, limit int) ([]entities.UserActivity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.UserActivity), args.Error(1)
}
