package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

// UserRegisteredEvent fires once after signup so the welcome notification can
// be delivered out of band.
type UserRegisteredEvent struct {
	UserID        uuid.UUID       `json:"userId"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	Continent     enums.Continent `json:"continent"`
	ContinentRank int             `json:"continentRank"`
	GlobalRank    int             `json:"globalRank"`
	RegisteredAt  time.Time       `json:"registeredAt"`
}

// UserOvertakenEvent is emitted once per pushed-down user when a purchase
// reshuffles a continent. Ranks are captured inside the purchase transaction
// so concurrent buys cannot skew the message.
type UserOvertakenEvent struct {
	UserID          uuid.UUID       `json:"userId"`
	Email           string          `json:"email"`
	Username        string          `json:"username"`
	Continent       enums.Continent `json:"continent"`
	NewRank         int             `json:"newRank"`
	OvertakenByID   uuid.UUID       `json:"overtakenById"`
	OvertakenByName string          `json:"overtakenByName"`
	PositionsBought int64           `json:"positionsBought"`
}

// PasswordResetRequestedEvent carries the single-use token for the reset email.
type PasswordResetRequestedEvent struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
