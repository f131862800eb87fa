package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
)

// MockResultRepository is a mock implementation of ResultRepository. The
// transaction body is never run; WithinTx returns the configured error.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) WithinTx(ctx context.Context, fn func(tx repository.ResultTx) error) error {
	args := m.Called(ctx)
	return args.Error(0)
}
