package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
)

func setupBoardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS users`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  continent TEXT NOT NULL,
  country_code TEXT,
  total_positions_purchased INTEGER NOT NULL DEFAULT 0,
  continent_rank INTEGER NOT NULL DEFAULT 0,
  global_rank INTEGER NOT NULL DEFAULT 0,
  reset_token TEXT,
  reset_token_expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func seedRanked(t *testing.T, db *gorm.DB, username string, continent enums.Continent, positions int64, offset time.Duration) {
	t.Helper()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.User{
		ID:                      uuid.New(),
		Email:                   username + "@example.com",
		Username:                username,
		PasswordHash:            "hash",
		Continent:               continent,
		TotalPositionsPurchased: positions,
		CreatedAt:               base.Add(offset),
	}).Error)
}

func newBoardService(t *testing.T, db *gorm.DB, cfg config.LeaderboardConfig) Service {
	t.Helper()
	svc, err := NewService(db, cfg)
	require.NoError(t, err)
	return svc
}

func TestBoardGlobalOrdering(t *testing.T) {
	db := setupBoardTestDB(t)
	ctx := context.Background()

	seedRanked(t, db, "bronze", enums.ContinentEurope, 10, 0)
	seedRanked(t, db, "gold", enums.ContinentAsia, 90, time.Minute)
	seedRanked(t, db, "silver", enums.ContinentEurope, 40, 2*time.Minute)
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	svc := newBoardService(t, db, config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 100})
	entries, err := svc.Board(ctx, Query{})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "gold", entries[0].Username)
	assert.Equal(t, 1, entries[0].GlobalRank)
	assert.Equal(t, "silver", entries[1].Username)
	assert.Equal(t, "bronze", entries[2].Username)
}

func TestBoardContinentFilter(t *testing.T) {
	db := setupBoardTestDB(t)
	ctx := context.Background()

	seedRanked(t, db, "eu-top", enums.ContinentEurope, 50, 0)
	seedRanked(t, db, "eu-low", enums.ContinentEurope, 5, time.Minute)
	seedRanked(t, db, "as-top", enums.ContinentAsia, 80, 2*time.Minute)
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	svc := newBoardService(t, db, config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 100})
	continent := enums.ContinentEurope
	entries, err := svc.Board(ctx, Query{Continent: &continent})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "eu-top", entries[0].Username)
	assert.Equal(t, 1, entries[0].ContinentRank)
	assert.Equal(t, "eu-low", entries[1].Username)
	assert.Equal(t, 2, entries[1].ContinentRank)
}

func TestBoardLimitClamping(t *testing.T) {
	db := setupBoardTestDB(t)
	ctx := context.Background()

	for i, name := range []string{"one", "two", "three", "four"} {
		seedRanked(t, db, name, enums.ContinentAfrica, int64(40-i), time.Duration(i)*time.Minute)
	}
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	svc := newBoardService(t, db, config.LeaderboardConfig{DefaultLimit: 2, MaxLimit: 3})

	entries, err := svc.Board(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = svc.Board(ctx, Query{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestBoardInvalidContinent(t *testing.T) {
	db := setupBoardTestDB(t)
	svc := newBoardService(t, db, config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 100})

	bogus := enums.Continent("ATLANTIS")
	_, err := svc.Board(context.Background(), Query{Continent: &bogus})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
