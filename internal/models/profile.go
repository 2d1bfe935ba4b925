package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the curator/harvester distinction. Every user owns
// exactly one profile; it is created in the same transaction as the user.
type Profile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	IsCurator bool      `json:"isCurator" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}
