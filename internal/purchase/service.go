package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/metrics"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result is the outcome of a completed purchase.
type Result struct {
	User            *models.User
	Transaction     *models.Transaction
	PositionsBought int64
	PositionsMoved  int
	OvertakenCount  int
	Message         string
}

// Service executes position purchases.
type Service interface {
	Purchase(ctx context.Context, userID uuid.UUID, amountUsd decimal.Decimal) (*Result, error)
}

type service struct {
	tx      txRunner
	repo    *Repository
	engine  *ranking.Engine
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.PurchaseMetrics

	maxAmount decimal.Decimal
}

// NewService builds the purchase service.
func NewService(
	tx txRunner,
	repo *Repository,
	engine *ranking.Engine,
	publisher outboxPublisher,
	cfg config.PurchaseConfig,
	logg *logger.Logger,
	m *metrics.PurchaseMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ranking engine required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	maxAmount, err := cfg.MaxAmount()
	if err != nil {
		return nil, fmt.Errorf("parsing purchase max amount: %w", err)
	}
	return &service{
		tx:        tx,
		repo:      repo,
		engine:    engine,
		outbox:    publisher,
		logg:      logg,
		metrics:   m,
		maxAmount: maxAmount,
	}, nil
}

// Purchase converts the dollar amount into positions, re-ranks both boards and
// queues an overtaken event for every user the buyer pushed down.
func (s *service) Purchase(ctx context.Context, userID uuid.UUID, amountUsd decimal.Decimal) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if amountUsd.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if amountUsd.GreaterThan(s.maxAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount exceeds the maximum of $%s per purchase", s.maxAmount.StringFixed(0)))
	}

	positions := amountUsd.Floor().IntPart()

	// The engine lock spans the whole transaction so a concurrent
	// registration's recompute cannot interleave with this one.
	var result Result
	err := s.engine.Serialize(func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var user models.User
			if err := tx.First(&user, "id = ?", userID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
				}
				return err
			}
			oldRank := user.ContinentRank

			row := &models.Transaction{
				UserID:          user.ID,
				AmountUsd:       amountUsd,
				PositionsBought: positions,
				PaymentStatus:   enums.PaymentStatusCompleted,
			}
			if err := s.repo.CreateTx(tx, row); err != nil {
				return err
			}
			result.Transaction = row

			if positions == 0 {
				result.User = &user
				result.Message = purchaseMessage(user.ContinentRank, 0)
				return nil
			}

			err := tx.Model(&models.User{}).
				Where("id = ?", user.ID).
				Update("total_positions_purchased", gorm.Expr("total_positions_purchased + ?", positions)).Error
			if err != nil {
				return err
			}

			if err := s.engine.Recalculate(ctx, tx); err != nil {
				return err
			}
			if err := tx.First(&user, "id = ?", userID).Error; err != nil {
				return err
			}
			result.User = &user
			result.PositionsMoved = oldRank - user.ContinentRank
			if result.PositionsMoved < 0 {
				result.PositionsMoved = 0
			}
			result.Message = purchaseMessage(user.ContinentRank, result.PositionsMoved)

			overtaken, err := ranking.Overtaken(tx, user.ID, user.Continent, user.ContinentRank, oldRank)
			if err != nil {
				return err
			}
			result.OvertakenCount = len(overtaken)

			actor := &outbox.ActorRef{UserID: user.ID, Username: user.Username}
			for _, o := range overtaken {
				event := outbox.DomainEvent{
					EventType:     enums.EventUserOvertaken,
					AggregateType: enums.AggregateUser,
					AggregateID:   o.ID,
					Actor:         actor,
					Version:       1,
					OccurredAt:    time.Now(),
					Data: payloads.UserOvertakenEvent{
						UserID:          o.ID,
						Email:           o.Email,
						Username:        o.Username,
						Continent:       o.Continent,
						NewRank:         o.ContinentRank,
						OvertakenByID:   user.ID,
						OvertakenByName: user.Username,
						PositionsBought: positions,
					},
				}
				if err := s.outbox.Emit(ctx, tx, event); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePurchase(string(result.User.Continent), positions)
	if result.OvertakenCount > 0 {
		s.metrics.AddOvertakes(result.OvertakenCount)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"transaction_id":   result.Transaction.ID.String(),
			"positions_bought": positions,
			"positions_moved":  result.PositionsMoved,
			"overtaken":        result.OvertakenCount,
			"continent_rank":   result.User.ContinentRank,
			"global_rank":      result.User.GlobalRank,
		})
		logCtx = s.logg.WithUserID(logCtx, userID.String())
		s.logg.Info(logCtx, "purchase completed")
	}

	result.PositionsBought = positions
	return &result, nil
}

func purchaseMessage(continentRank, positionsMoved int) string {
	if continentRank == 1 {
		return "You're the Continental Leader!"
	}
	return fmt.Sprintf("You climbed %d positions!", positionsMoved)
}
