package ranking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/metrics"
)

// Standing is the computed placement for one user.
type Standing struct {
	UserID        uuid.UUID
	Continent     enums.Continent
	GlobalRank    int
	ContinentRank int
}

// OvertakenUser describes a user pushed down by a recompute, with the rank
// they hold after it.
type OvertakenUser struct {
	ID            uuid.UUID
	Email         string
	Username      string
	Continent     enums.Continent
	ContinentRank int
}

// Engine recomputes the denormalized rank columns. Every write path that
// changes total_positions_purchased must call Recalculate inside the same
// transaction so ranks never drift from totals.
type Engine struct {
	logg    *logger.Logger
	metrics *metrics.PurchaseMetrics

	// One rank rewrite at a time. Writers hold the lock for their whole
	// transaction, not just the Recalculate call, so a purchase and a
	// registration cannot interleave their read-modify-write of the rank
	// columns.
	mu sync.Mutex
}

func NewEngine(logg *logger.Logger, m *metrics.PurchaseMetrics) *Engine {
	return &Engine{logg: logg, metrics: m}
}

// Serialize runs fn while holding the engine's single-writer lock. Every
// transaction that ends in Recalculate must run inside it.
func (e *Engine) Serialize(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// ComputeStandings derives global and per-continent placements from the given
// rows. Input must already be ordered by the standings sort: positions
// descending, then created_at ascending, then id ascending.
func ComputeStandings(users []models.User) []Standing {
	standings := make([]Standing, 0, len(users))
	continentSeen := make(map[enums.Continent]int, 8)

	for i, u := range users {
		continentSeen[u.Continent]++
		standings = append(standings, Standing{
			UserID:        u.ID,
			Continent:     u.Continent,
			GlobalRank:    i + 1,
			ContinentRank: continentSeen[u.Continent],
		})
	}
	return standings
}

// Recalculate rewrites continent_rank and global_rank for every user. Only
// rows whose placement actually moved are written back.
func (e *Engine) Recalculate(ctx context.Context, tx *gorm.DB) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	started := time.Now()

	var users []models.User
	if err := tx.
		Order("total_positions_purchased DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return err
	}

	current := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		current[u.ID] = u
	}

	updated := 0
	for _, s := range ComputeStandings(users) {
		prev := current[s.UserID]
		if prev.ContinentRank == s.ContinentRank && prev.GlobalRank == s.GlobalRank {
			continue
		}
		err := tx.Model(&models.User{}).
			Where("id = ?", s.UserID).
			Updates(map[string]any{
				"continent_rank": s.ContinentRank,
				"global_rank":    s.GlobalRank,
			}).Error
		if err != nil {
			return err
		}
		updated++
	}

	e.metrics.ObserveRecompute(time.Since(started))
	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"users_ranked":  len(users),
			"users_updated": updated,
		})
		e.logg.Info(logCtx, "leaderboard recomputed")
	}
	return nil
}

// StartingContinentRank returns the rank a brand-new user lands on: one past
// the current continent population.
func StartingContinentRank(tx *gorm.DB, continent enums.Continent) (int, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.User{}).
		Where("continent = ?", continent).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

// Overtaken lists the users the buyer pushed down on their continent: everyone
// other than the buyer whose post-recompute rank sits in [newRank, oldRank).
func Overtaken(tx *gorm.DB, buyerID uuid.UUID, continent enums.Continent, newRank, oldRank int) ([]OvertakenUser, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if newRank >= oldRank {
		return nil, nil
	}

	var rows []models.User
	err := tx.
		Where("continent = ?", continent).
		Where("id <> ?", buyerID).
		Where("continent_rank >= ? AND continent_rank < ?", newRank, oldRank).
		Order("continent_rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]OvertakenUser, 0, len(rows))
	for _, u := range rows {
		out = append(out, OvertakenUser{
			ID:            u.ID,
			Email:         u.Email,
			Username:      u.Username,
			Continent:     u.Continent,
			ContinentRank: u.ContinentRank,
		})
	}
	return out, nil
}
