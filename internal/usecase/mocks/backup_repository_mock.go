package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// MockBackupRepository is a mock implementation of BackupRepository
type MockBackupRepository struct {
	mock.Mock
}

func (m *MockBackupRepository) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Snapshot), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore. Put drains the
// body into Stored before returning the configured result.
type MockObjectStore struct {
	mock.Mock
	Stored []byte
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.Stored = data
	args := m.Called(ctx, key, body)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockObjectStore) Name() string {
	args := m.Called()
	return args.String(0)
}
