package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and reset state.
type UserDTO struct {
	ID                      uuid.UUID       `json:"id"`
	Email                   string          `json:"email"`
	Username                string          `json:"username"`
	Continent               enums.Continent `json:"continent"`
	CountryCode             *string         `json:"country_code,omitempty"`
	TotalPositionsPurchased int64           `json:"total_positions_purchased"`
	ContinentRank           int             `json:"continent_rank"`
	GlobalRank              int             `json:"global_rank"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	Username      string
	PasswordHash  string
	Continent     enums.Continent
	CountryCode   *string
	ContinentRank int
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                      u.ID,
		Email:                   u.Email,
		Username:                u.Username,
		Continent:               u.Continent,
		CountryCode:             u.CountryCode,
		TotalPositionsPurchased: u.TotalPositionsPurchased,
		ContinentRank:           u.ContinentRank,
		GlobalRank:              u.GlobalRank,
		CreatedAt:               u.CreatedAt,
		UpdatedAt:               u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:         c.Email,
		Username:      c.Username,
		PasswordHash:  c.PasswordHash,
		Continent:     c.Continent,
		CountryCode:   c.CountryCode,
		ContinentRank: c.ContinentRank,
	}
}
