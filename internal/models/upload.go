package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is one submitted data-set file. Records are immutable after
// creation; only administrative tooling removes them.
type Upload struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;index;not null"` // owning account
	User             User      `json:"-" gorm:"foreignKey:UserID"`
	Institution      string    `json:"institution" gorm:"not null"`
	Year             string    `json:"year" gorm:"not null"` // reporting period, e.g. "2024-2025"
	URL              *string   `json:"url"`
	Path             string    `json:"path" gorm:"not null"` // storage key, partitioned by upload date
	OriginalFilename string    `json:"originalFilename" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
