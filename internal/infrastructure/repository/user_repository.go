package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/entities"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
	"github.com/akumakusss123/DBT-Antivirus/internal/domain/repository"
	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
)

// Quota defaults applied when a user is created without explicit limits
const (
	DefaultMaxFileSize        = 100 << 20
	DefaultMaxFilesPerDay     = 100
	DefaultMaxConcurrentScans = 5
)

// UserRepository stores uploader identities
type UserRepository struct {
	db *storage.DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *storage.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, COALESCE(email, '') AS email, role, max_file_size, max_files_per_day, max_concurrent_scans, created_at`

// Ensure creates the user if the username is free and returns the stored row.
// An existing user is returned unchanged.
func (r *UserRepository) Ensure(ctx context.Context, user *entities.User) (*entities.User, error) {
	const op = "ensure user"

	username := strings.TrimSpace(user.Username)
	if username == "" || len(username) > 50 {
		return nil, errs.Constraint(op, "username must be 1-50 characters")
	}

	role := user.Role
	if role == "" {
		role = entities.RoleUser
	}
	if role != entities.RoleUser && role != entities.RoleAdmin {
		return nil, errs.Constraint(op, "unknown role %q", role)
	}

	var email interface{}
	if user.Email != "" {
		email = user.Email
	}

	maxSize := user.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	maxPerDay := user.MaxFilesPerDay
	if maxPerDay == 0 {
		maxPerDay = DefaultMaxFilesPerDay
	}
	maxScans := user.MaxConcurrentScans
	if maxScans == 0 {
		maxScans = DefaultMaxConcurrentScans
	}

	ctx, cancel := r.db.WriteContext(ctx)
	defer cancel()

	insert := r.db.Rebind(`
		INSERT INTO users (username, email, role, max_file_size, max_files_per_day, max_concurrent_scans, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, insert, username, email, role, maxSize, maxPerDay, maxScans, time.Now().UTC()); err != nil {
		return nil, storage.Classify(op, err)
	}

	return r.GetByUsername(ctx, username)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.get(ctx, "user by name", `username = ?`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return r.get(ctx, "user by id", `id = ?`, id)
}

func (r *UserRepository) get(ctx context.Context, op, where string, arg interface{}) (*entities.User, error) {
	var u entities.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NotFound(op, "user %v does not exist", arg)
		}
		return nil, storage.Classify(op, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
