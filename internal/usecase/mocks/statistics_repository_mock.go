package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// MockStatisticsRepository is a mock implementation of StatisticsRepository
type MockStatisticsRepository struct {
	mock.Mock
}

func (m *MockStatisticsRepository) RefreshDay(ctx context.Context, dayStart time.Time) (*entities.Statistics, error) {
	args := m.Called(ctx, dayStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Statistics), args.Error(1)
}

func (m *MockStatisticsRepository) GetStatistics(ctx context.Context, date string) (*entities.Statistics, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Statistics), args.Error(1)
}

func (m *MockStatisticsRepository) RecentStatistics(ctx context.Context, n int) ([]entities.Statistics, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Statistics), args.Error(1)
}

func (m *MockStatisticsRepository) DashboardTotals(ctx context.Context) (entities.DashboardTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.DashboardTotals), args.Error(1)
}

func (m *MockStatisticsRepository) ThreatTotals(ctx context.Context) (entities.ThreatTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.ThreatTotals), args.Error(1)
}

func (m *MockStatisticsRepository) TopThreats(ctx context.Context, limit int) ([]entities.Threat, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Threat), args.Error(1)
}
