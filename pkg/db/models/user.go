package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

// User represents the canonical identity entity. Rank columns are denormalized
// and rewritten by the ranking engine after every purchase and registration.
type User struct {
	ID                      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email                   string          `gorm:"type:text;not null;uniqueIndex"`
	Username                string          `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash            string          `gorm:"column:password_hash;not null"`
	Continent               enums.Continent `gorm:"type:continent;not null;index"`
	CountryCode             *string         `gorm:"column:country_code;type:char(2)"`
	TotalPositionsPurchased int64           `gorm:"column:total_positions_purchased;not null;default:0"`
	ContinentRank           int             `gorm:"column:continent_rank;not null;default:0"`
	GlobalRank              int             `gorm:"column:global_rank;not null;default:0"`
	ResetToken              *string         `gorm:"column:reset_token;type:text;uniqueIndex"`
	ResetTokenExpiresAt     *time.Time      `gorm:"column:reset_token_expires_at;type:timestamptz"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
