package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

// Transaction records a simulated position purchase. Amounts are stored as
// numeric dollars and the credited positions are derived at purchase time.
type Transaction struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	AmountUsd       decimal.Decimal     `gorm:"column:amount_usd;type:numeric(12,2);not null"`
	PositionsBought int64               `gorm:"column:positions_bought;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
