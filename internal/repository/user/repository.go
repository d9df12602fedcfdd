package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/humidhub/internal/domains/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormUserRepo struct {
	db *gorm.DB
}

// Create implements user.UserRepository
func (g *GormUserRepo) Create(ctx context.Context, u *user.User) error {
	entity := NewUserEntityFromDomain(u)
	if err := g.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Update domain object with any changes from database (like auto-generated fields)
	*u = *entity.ToDomain()
	return nil
}

// GetByID implements user.UserRepository
func (g *GormUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var entity UserEntity
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return entity.ToDomain(), nil
}

// GetByUsername implements user.UserRepository
func (g *GormUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var entity UserEntity
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return entity.ToDomain(), nil
}

// List implements user.UserRepository
func (g *GormUserRepo) List(ctx context.Context, offset, limit int) ([]user.User, error) {
	var entities []UserEntity

	q := g.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(entities))
	for i := range entities {
		users[i] = *entities[i].ToDomain()
	}
	return users, nil
}

// UsernameExists implements user.UserRepository
func (g *GormUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&UserEntity{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// Mutate implements user.UserRepository. The row is locked for the length of
// the transaction so concurrent edits of one user are applied in turn.
func (g *GormUserRepo) Mutate(ctx context.Context, id string, fn user.MutateFunc) (*user.User, error) {
	var saved *user.User

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity UserEntity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrUserNotFound
			}
			return fmt.Errorf("failed to load user for update: %w", err)
		}

		u := entity.ToDomain()
		if err := fn(u); err != nil {
			return err
		}

		entity.FromDomain(u)
		if err := tx.Save(&entity).Error; err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		saved = entity.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// NewGormUserRepo creates a new GORM-based user repository
func NewGormUserRepo(db *gorm.DB) user.UserRepository {
	return &GormUserRepo{db: db}
}
