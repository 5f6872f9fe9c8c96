package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"signet/internal/domain/identity"
)

// AuthEventRepository implements identity.AuthEventRepository using GORM.
type AuthEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) identity.AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Create(ctx context.Context, event *identity.AuthenticationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create authentication event: %w", err)
	}
	return nil
}

func (r *AuthEventRepository) GetByUUID(ctx context.Context, uuid string) (*identity.AuthenticationEvent, error) {
	var event identity.AuthenticationEvent
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get authentication event: %w", err)
	}
	return &event, nil
}
