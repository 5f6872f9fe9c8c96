// Package account holds the minimal view of platform accounts this
// subsystem needs. Account lifecycle is owned elsewhere; only lookup is
// required here.
package account

import (
	"context"
	"time"
)

type Account struct {
	ID        uint   `gorm:"primarykey"`
	Email     string `gorm:"not null;size:255;uniqueIndex:uk_accounts_email"`
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// Repository is the lookup contract against the account store.
type Repository interface {
	// GetByID returns (nil, nil) when no account exists.
	GetByID(ctx context.Context, id uint) (*Account, error)
	// GetByEmail matches the email exactly (no normalization beyond what the
	// store's collation applies) and returns (nil, nil) when absent.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
