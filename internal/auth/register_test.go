package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	pkgAuth "github.com/worldleaderio/worldleader-backend/pkg/auth"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
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

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturePublisher struct {
	events []outbox.DomainEvent
}

func (p *capturePublisher) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return assert.AnError
	}
	p.events = append(p.events, event)
	return nil
}

func newRegisterTestService(t *testing.T, db *gorm.DB, publisher *capturePublisher) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             sqliteTxRunner{db: db},
		Engine:         ranking.NewEngine(nil, nil),
		Outbox:         publisher,
		SessionManager: &stubSessionManager{refreshToken: "refresh-token"},
		PasswordConfig: config.PasswordConfig{},
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesRankedUser(t *testing.T) {
	db := setupAuthTestDB(t)
	publisher := &capturePublisher{}
	svc := newRegisterTestService(t, db, publisher)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Email:     "First@Example.com",
		Username:  "first",
		Password:  "Sup3r$ecret",
		Continent: "EUROPE",
	})
	require.NoError(t, err)

	assert.Equal(t, "first@example.com", resp.User.Email)
	assert.Equal(t, 1, resp.User.ContinentRank)
	assert.Equal(t, 1, resp.User.GlobalRank)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.ContinentEurope, claims.Continent)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, enums.EventUserRegistered, event.EventType)
	payload, ok := event.Data.(payloads.UserRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, resp.User.ID, payload.UserID)
	assert.Equal(t, 1, payload.ContinentRank)

	var stored models.User
	require.NoError(t, db.First(&stored, "email = ?", "first@example.com").Error)
	assert.NotEqual(t, "Sup3r$ecret", stored.PasswordHash)
}

func TestRegisterSecondUserStartsBehind(t *testing.T) {
	db := setupAuthTestDB(t)
	publisher := &capturePublisher{}
	svc := newRegisterTestService(t, db, publisher)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "first@example.com", Username: "first", Password: "Sup3r$ecret", Continent: "ASIA",
	})
	require.NoError(t, err)

	resp, err := svc.Register(ctx, RegisterRequest{
		Email: "second@example.com", Username: "second", Password: "Sup3r$ecret", Continent: "ASIA",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.User.ContinentRank)
	assert.Equal(t, 2, resp.User.GlobalRank)
}

func TestRegisterRejectsDuplicateIdentifiers(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newRegisterTestService(t, db, &capturePublisher{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "taken@example.com", Username: "taken", Password: "Sup3r$ecret", Continent: "AFRICA",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		Email: "taken@example.com", Username: "other", Password: "Sup3r$ecret", Continent: "AFRICA",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	_, err = svc.Register(ctx, RegisterRequest{
		Email: "other@example.com", Username: "taken", Password: "Sup3r$ecret", Continent: "AFRICA",
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	db := setupAuthTestDB(t)
	publisher := &capturePublisher{}
	svc := newRegisterTestService(t, db, publisher)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "weak@example.com", Username: "weak", Password: "password123", Continent: "EUROPE",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, publisher.events)
}

func TestRegisterRejectsUnknownContinent(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newRegisterTestService(t, db, &capturePublisher{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "lost@example.com", Username: "lost", Password: "Sup3r$ecret", Continent: "ATLANTIS",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
