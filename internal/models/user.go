package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's owner record. Only the fields the
// ledger needs for transfer metadata are kept.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
