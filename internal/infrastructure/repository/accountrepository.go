package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"signet/internal/domain/account"
)

// AccountRepository implements account.Repository using GORM.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) account.Repository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	var acct account.Account
	err := r.db.WithContext(ctx).First(&acct, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}
	return &acct, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var acct account.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &acct, nil
}
