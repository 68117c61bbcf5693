package leaderboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
)

// Entry is one leaderboard row. Continent boards expose the continent rank,
// the global board the global rank.
type Entry struct {
	ID                      uuid.UUID       `json:"id"`
	Username                string          `json:"username"`
	CountryCode             *string         `json:"country_code,omitempty"`
	Continent               enums.Continent `json:"continent"`
	ContinentRank           int             `json:"continent_rank"`
	GlobalRank              int             `json:"global_rank"`
	TotalPositionsPurchased int64           `json:"total_positions_purchased"`
}

// Query selects which board to read and how much of it.
type Query struct {
	Continent *enums.Continent
	Limit     int
}

// Service reads the denormalized standings.
type Service interface {
	Board(ctx context.Context, q Query) ([]Entry, error)
}

type service struct {
	db  *gorm.DB
	cfg config.LeaderboardConfig
}

// NewService builds the leaderboard reader.
func NewService(db *gorm.DB, cfg config.LeaderboardConfig) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: db, cfg: cfg}, nil
}

func (s *service) Board(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if q.Continent != nil {
		if !q.Continent.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid continent")
		}
		query = query.Where("continent = ?", *q.Continent).Order("continent_rank ASC")
	} else {
		query = query.Order("global_rank ASC")
	}

	var rows []models.User
	if err := query.Limit(limit).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load leaderboard")
	}

	entries := make([]Entry, 0, len(rows))
	for _, u := range rows {
		entries = append(entries, Entry{
			ID:                      u.ID,
			Username:                u.Username,
			CountryCode:             u.CountryCode,
			Continent:               u.Continent,
			ContinentRank:           u.ContinentRank,
			GlobalRank:              u.GlobalRank,
			TotalPositionsPurchased: u.TotalPositionsPurchased,
		})
	}
	return entries, nil
}
