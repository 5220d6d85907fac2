package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Idempotency outcomes
const (
	IdempotencyOutcomeSuccess = "success"
	IdempotencyOutcomeFailed  = "failed"
)

// IdempotencyKey stores the response returned the first time a settlement
// reference reached a terminal outcome. Rows are written once and never updated.
// Response is kept as text so replays are byte-identical.
type IdempotencyKey struct {
	ID         uuid.UUID `gorm:"type:uuid;primarykey"`
	Key        string    `gorm:"size:255;uniqueIndex;not null"`
	Outcome    string    `gorm:"size:20;not null"`
	StatusCode int       `gorm:"not null"`
	Response   string    `gorm:"type:text;not null"`
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"index;not null"`
}

func (k *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

func (k *IdempotencyKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.After(now)
}
