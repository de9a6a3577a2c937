// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"nextblog/internal/cache"
	"nextblog/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context, userID uint) (*models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// cachedUser is the Redis representation of a user row. The API-facing JSON
// tags on models.User hide the credential columns, so caching the model
// directly would return users with an empty password hash on a cache hit and
// any later Save would persist that. The envelope carries them explicitly.
type cachedUser struct {
	User                models.User `json:"user"`
	Password            string      `json:"password"`
	ResetTokenHash      string      `json:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time  `json:"reset_token_expires_at,omitempty"`
}

func (e *cachedUser) unwrap() *models.User {
	user := e.User
	user.Password = e.Password
	user.ResetTokenHash = e.ResetTokenHash
	user.ResetTokenExpiresAt = e.ResetTokenExpiresAt
	return &user
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var entry cachedUser
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &entry, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&entry.User, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		entry.Password = entry.User.Password
		entry.ResetTokenHash = entry.User.ResetTokenHash
		entry.ResetTokenExpiresAt = entry.User.ResetTokenExpiresAt
		return nil
	})

	if err != nil {
		return nil, err
	}
	return entry.unwrap(), nil
}

// GetByEmail returns (nil, nil) when no user matches; callers that must not
// reveal account existence rely on that.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByResetTokenHash looks up a user by the SHA-256 hash of a password reset
// token, rejecting expired tokens at the query level.
func (r *userRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return models.NewConflictError(field)
		}
		return models.NewInternalError(err)
	}
	return nil
}

const uniqueViolationCode = "23505"

// uniqueViolationField detects a PostgreSQL unique violation and identifies
// which column collided so the caller can report it.
func uniqueViolationField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return "", false
		}
		return constraintField(pgErr.ConstraintName), true
	}

	// Drivers that do not surface *pgconn.PgError only give us message text.
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key") &&
		!strings.Contains(msg, "unique constraint") &&
		!strings.Contains(msg, uniqueViolationCode) {
		return "", false
	}
	return constraintField(msg), true
}

func constraintField(name string) string {
	switch {
	case strings.Contains(name, "email"):
		return "email"
	case strings.Contains(name, "username"):
		return "username"
	default:
		return "account"
	}
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return models.NewConflictError(field)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) Stats(ctx context.Context, userID uint) (*models.UserStats, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, models.NewInternalError(err)
	}

	var totalPosts int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("user_id = ?", userID).
		Count(&totalPosts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return &models.UserStats{
		TotalPosts: totalPosts,
		JoinedDate: user.CreatedAt,
		LastActive: user.UpdatedAt,
	}, nil
}
