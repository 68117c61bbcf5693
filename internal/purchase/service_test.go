package purchase

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

	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
)

func setupPurchaseTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS transactions`).Error)
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS users`).Error)

	users := `
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
);`
	transactions := `
CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount_usd NUMERIC NOT NULL,
  positions_bought INTEGER NOT NULL,
  payment_status TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type memPublisher struct {
	events []outbox.DomainEvent
}

func (p *memPublisher) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return assert.AnError
	}
	p.events = append(p.events, event)
	return nil
}

func seedCompetitor(t *testing.T, db *gorm.DB, username string, continent enums.Continent, positions int64, createdAt time.Time) *models.User {
	t.Helper()
	user := &models.User{
		ID:                      uuid.New(),
		Email:                   username + "@example.com",
		Username:                username,
		PasswordHash:            "hash",
		Continent:               continent,
		TotalPositionsPurchased: positions,
		CreatedAt:               createdAt,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestService(t *testing.T, db *gorm.DB, publisher *memPublisher) Service {
	t.Helper()
	svc, err := NewService(
		testTxRunner{db: db},
		NewRepository(db),
		ranking.NewEngine(nil, nil),
		publisher,
		config.PurchaseConfig{MaxAmountUsd: "10000"},
		nil,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func TestPurchaseRejectsInvalidAmounts(t *testing.T) {
	db := setupPurchaseTestDB(t)
	svc := newTestService(t, db, &memPublisher{})
	ctx := context.Background()

	_, err := svc.Purchase(ctx, uuid.New(), decimal.Zero)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Purchase(ctx, uuid.New(), decimal.NewFromInt(-5))
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Purchase(ctx, uuid.New(), decimal.NewFromInt(10001))
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Purchase(ctx, uuid.Nil, decimal.NewFromInt(10))
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestPurchaseUnknownUser(t *testing.T) {
	db := setupPurchaseTestDB(t)
	svc := newTestService(t, db, &memPublisher{})

	_, err := svc.Purchase(context.Background(), uuid.New(), decimal.NewFromInt(10))
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestPurchaseClimbsAndEmitsOvertakenEvents(t *testing.T) {
	db := setupPurchaseTestDB(t)
	publisher := &memPublisher{}
	svc := newTestService(t, db, publisher)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	leader := seedCompetitor(t, db, "leader", enums.ContinentEurope, 100, base)
	runner := seedCompetitor(t, db, "runner", enums.ContinentEurope, 50, base.Add(time.Minute))
	buyer := seedCompetitor(t, db, "buyer", enums.ContinentEurope, 10, base.Add(2*time.Minute))
	outsider := seedCompetitor(t, db, "outsider", enums.ContinentAsia, 60, base.Add(3*time.Minute))
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	result, err := svc.Purchase(ctx, buyer.ID, decimal.NewFromFloat(200.75))
	require.NoError(t, err)

	assert.Equal(t, int64(200), result.PositionsBought)
	assert.Equal(t, 1, result.User.ContinentRank)
	assert.Equal(t, 1, result.User.GlobalRank)
	assert.Equal(t, int64(210), result.User.TotalPositionsPurchased)
	assert.Equal(t, 2, result.PositionsMoved)
	assert.Equal(t, "You're the Continental Leader!", result.Message)

	var row models.Transaction
	require.NoError(t, db.First(&row, "user_id = ?", buyer.ID).Error)
	assert.Equal(t, int64(200), row.PositionsBought)
	assert.Equal(t, enums.PaymentStatusCompleted, row.PaymentStatus)
	assert.True(t, row.AmountUsd.Equal(decimal.NewFromFloat(200.75)))

	require.Len(t, publisher.events, 2)
	byAggregate := map[uuid.UUID]payloads.UserOvertakenEvent{}
	for _, event := range publisher.events {
		assert.Equal(t, enums.EventUserOvertaken, event.EventType)
		assert.Equal(t, enums.AggregateUser, event.AggregateType)
		payload, ok := event.Data.(payloads.UserOvertakenEvent)
		require.True(t, ok)
		assert.Equal(t, "buyer", payload.OvertakenByName)
		assert.Equal(t, buyer.ID, payload.OvertakenByID)
		byAggregate[event.AggregateID] = payload
	}
	assert.Equal(t, 2, byAggregate[leader.ID].NewRank)
	assert.Equal(t, 3, byAggregate[runner.ID].NewRank)
	assert.NotContains(t, byAggregate, outsider.ID)
}

func TestPurchaseWithoutClimbEmitsNothing(t *testing.T) {
	db := setupPurchaseTestDB(t)
	publisher := &memPublisher{}
	svc := newTestService(t, db, publisher)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	seedCompetitor(t, db, "leader", enums.ContinentAfrica, 100, base)
	buyer := seedCompetitor(t, db, "buyer", enums.ContinentAfrica, 10, base.Add(time.Minute))
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	result, err := svc.Purchase(ctx, buyer.ID, decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.PositionsBought)
	assert.Equal(t, 2, result.User.ContinentRank)
	assert.Equal(t, 0, result.PositionsMoved)
	assert.Equal(t, "You climbed 0 positions!", result.Message)
	assert.Empty(t, publisher.events)
}

func TestPurchaseSubDollarRecordsZeroPositions(t *testing.T) {
	db := setupPurchaseTestDB(t)
	publisher := &memPublisher{}
	svc := newTestService(t, db, publisher)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	buyer := seedCompetitor(t, db, "buyer", enums.ContinentOceania, 3, base)
	require.NoError(t, ranking.NewEngine(nil, nil).Recalculate(ctx, db))

	result, err := svc.Purchase(ctx, buyer.ID, decimal.NewFromFloat(0.50))
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.PositionsBought)
	assert.Equal(t, "You're the Continental Leader!", result.Message)
	assert.Empty(t, publisher.events)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", buyer.ID).Error)
	assert.Equal(t, int64(3), got.TotalPositionsPurchased)

	count, err := NewRepository(db).CountByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
