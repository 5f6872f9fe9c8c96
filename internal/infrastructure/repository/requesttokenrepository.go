package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"signet/internal/domain/identity"
)

// RequestTokenRepository implements identity.RequestTokenRepository using GORM.
type RequestTokenRepository struct {
	db *gorm.DB
}

func NewRequestTokenRepository(db *gorm.DB) identity.RequestTokenRepository {
	return &RequestTokenRepository{db: db}
}

func (r *RequestTokenRepository) Create(ctx context.Context, token *identity.RequestToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create request token: %w", err)
	}
	return nil
}

func (r *RequestTokenRepository) GetByToken(ctx context.Context, token string) (*identity.RequestToken, error) {
	var row identity.RequestToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get request token: %w", err)
	}
	return &row, nil
}
