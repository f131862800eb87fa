package repository

import (
	"context"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
)

// UserRepository is the identity collaborator's storage surface
type UserRepository interface {
	// Ensure inserts the user unless the username is taken and returns the stored row
	Ensure(ctx context.Context, user *entities.User) (*entities.User, error)

	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByID(ctx context.Context, id int64) (*entities.User, error)
}
