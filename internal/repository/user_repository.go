package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userDomain "github.com/toolshed-rental/service-booking/internal/domain/user"
	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// UserModel maps the users table, which the account service owns.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:200;not null"`
	Email     string    `gorm:"size:320;uniqueIndex;not null"`
	Role      string    `gorm:"size:20;not null;default:'user'"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// GormUserRepository reads user summaries.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toUserDomain(&model), nil
}

func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userDomain.User, error) {
	out := make(map[uuid.UUID]*userDomain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	for i := range models {
		out[models[i].ID] = toUserDomain(&models[i])
	}
	return out, nil
}

// Save inserts a user row. Used by local seeding and tests.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model := &UserModel{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func toUserDomain(m *UserModel) *userDomain.User {
	return &userDomain.User{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role}
}
