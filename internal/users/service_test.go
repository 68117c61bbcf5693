package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, table := range []string{"notifications", "transactions", "users"} {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS "+table).Error)
	}

	stmts := []string{`
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
);`, `
CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount_usd NUMERIC NOT NULL,
  positions_bought INTEGER NOT NULL,
  payment_status TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type stubTransactionLister struct {
	rows []models.Transaction
}

func (s stubTransactionLister) ListRecentByUser(context.Context, uuid.UUID, int) ([]models.Transaction, error) {
	return s.rows, nil
}

type stubNotificationLister struct {
	rows []models.Notification
}

func (s stubNotificationLister) ListRecentByUser(context.Context, uuid.UUID, int) ([]models.Notification, error) {
	return s.rows, nil
}

func TestRepositoryCreateAssignsID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:         "new@example.com",
		Username:      "newcomer",
		PasswordHash:  "hash",
		Continent:     enums.ContinentEurope,
		ContinentRank: 4,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, 4, user.ContinentRank)

	found, err := repo.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRepositoryResetTokenLifecycle(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "reset@example.com",
		Username:     "resetter",
		PasswordHash: "old-hash",
		Continent:    enums.ContinentAsia,
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "tok-live", now.Add(time.Hour)))

	found, err := repo.FindByResetToken(ctx, "tok-live", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByResetToken(ctx, "tok-live", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.ConsumeResetToken(ctx, user.ID, "new-hash"))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)
	assert.Nil(t, reloaded.ResetToken)
	assert.Nil(t, reloaded.ResetTokenExpiresAt)
}

func TestRepositoryClearExpiredResetTokens(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stale, err := repo.Create(ctx, CreateUserDTO{Email: "stale@example.com", Username: "stale", PasswordHash: "h", Continent: enums.ContinentAfrica})
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, CreateUserDTO{Email: "fresh@example.com", Username: "fresh", PasswordHash: "h", Continent: enums.ContinentAfrica})
	require.NoError(t, err)

	require.NoError(t, repo.SetResetToken(ctx, stale.ID, "tok-stale", now.Add(-time.Minute)))
	require.NoError(t, repo.SetResetToken(ctx, fresh.ID, "tok-fresh", now.Add(time.Hour)))

	cleared, err := repo.ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	reloaded, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.ResetToken)
}

func TestProfileAssemblesStats(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "pro@example.com",
		Username:     "pro",
		PasswordHash: "h",
		Continent:    enums.ContinentEurope,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]any{"continent_rank": 1, "global_rank": 2, "total_positions_purchased": 30}).Error)

	rival, err := repo.Create(ctx, CreateUserDTO{Email: "rival@example.com", Username: "rival", PasswordHash: "h", Continent: enums.ContinentEurope})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", rival.ID).
		Updates(map[string]any{"continent_rank": 2, "global_rank": 1}).Error)

	for _, amount := range []string{"10.00", "20.50"} {
		amt, err := decimal.NewFromString(amount)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.Transaction{
			ID:              uuid.New(),
			UserID:          user.ID,
			AmountUsd:       amt,
			PositionsBought: amt.IntPart(),
			PaymentStatus:   enums.PaymentStatusCompleted,
		}).Error)
	}

	txRow := models.Transaction{
		ID:              uuid.New(),
		UserID:          user.ID,
		AmountUsd:       decimal.NewFromInt(10),
		PositionsBought: 10,
		PaymentStatus:   enums.PaymentStatusCompleted,
		CreatedAt:       time.Now(),
	}
	note := models.Notification{
		ID:      uuid.New(),
		UserID:  user.ID,
		Kind:    enums.NotificationKindOvertaken,
		Title:   "Overtaken",
		Message: "someone just overtook you",
	}

	svc, err := NewService(db, repo,
		stubTransactionLister{rows: []models.Transaction{txRow}},
		stubNotificationLister{rows: []models.Notification{note}},
	)
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "pro", profile.Profile.Username)
	assert.True(t, profile.Stats.TotalSpent.Equal(decimal.NewFromFloat(30.50)))
	assert.Equal(t, int64(2), profile.Stats.ContinentUsersCount)
	assert.Equal(t, int64(2), profile.Stats.GlobalUsersCount)
	assert.Equal(t, 100, profile.Stats.ContinentPercentile)
	assert.Equal(t, 50, profile.Stats.GlobalPercentile)
	require.Len(t, profile.Transactions, 1)
	assert.Equal(t, txRow.ID, profile.Transactions[0].ID)
	require.Len(t, profile.Notifications, 1)
	assert.False(t, profile.Notifications[0].Read)
}

func TestProfileUnknownUser(t *testing.T) {
	db := setupUsersTestDB(t)
	svc, err := NewService(db, NewRepository(db), stubTransactionLister{}, stubNotificationLister{})
	require.NoError(t, err)

	_, err = svc.Profile(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
