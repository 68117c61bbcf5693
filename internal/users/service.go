package users

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
)

const (
	profileTransactionLimit  = 10
	profileNotificationLimit = 5
)

type transactionLister interface {
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

type notificationLister interface {
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

// ProfileStats aggregates spend and standing context for the profile screen.
type ProfileStats struct {
	TotalSpent           decimal.Decimal `json:"total_spent"`
	ContinentUsersCount  int64           `json:"continent_users_count"`
	GlobalUsersCount     int64           `json:"global_users_count"`
	ContinentPercentile  int             `json:"continent_percentile"`
	GlobalPercentile     int             `json:"global_percentile"`
}

// ProfileTransaction is the trimmed transaction row shown on the profile.
type ProfileTransaction struct {
	ID              uuid.UUID           `json:"id"`
	AmountUsd       decimal.Decimal     `json:"amount_usd"`
	PositionsBought int64               `json:"positions_bought"`
	Status          enums.PaymentStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ProfileNotification is the trimmed notification row shown on the profile.
type ProfileNotification struct {
	ID        uuid.UUID              `json:"id"`
	Kind      enums.NotificationKind `json:"kind"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// ProfileResponse is the full profile payload.
type ProfileResponse struct {
	Profile       *UserDTO              `json:"profile"`
	Stats         ProfileStats          `json:"stats"`
	Transactions  []ProfileTransaction  `json:"transactions"`
	Notifications []ProfileNotification `json:"notifications"`
}

// Service assembles profile views.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error)
}

type service struct {
	db            *gorm.DB
	repo          *Repository
	transactions  transactionLister
	notifications notificationLister
}

// NewService builds the profile service.
func NewService(db *gorm.DB, repo *Repository, transactions transactionLister, notifications notificationLister) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if transactions == nil {
		return nil, fmt.Errorf("transaction lister required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification lister required")
	}
	return &service{db: db, repo: repo, transactions: transactions, notifications: notifications}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	transactions, err := s.transactions.ListRecentByUser(ctx, userID, profileTransactionLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}
	notifications, err := s.notifications.ListRecentByUser(ctx, userID, profileNotificationLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}

	stats, err := s.stats(ctx, user)
	if err != nil {
		return nil, err
	}

	out := &ProfileResponse{
		Profile:       FromModel(user),
		Stats:         stats,
		Transactions:  make([]ProfileTransaction, 0, len(transactions)),
		Notifications: make([]ProfileNotification, 0, len(notifications)),
	}
	for _, t := range transactions {
		out.Transactions = append(out.Transactions, ProfileTransaction{
			ID:              t.ID,
			AmountUsd:       t.AmountUsd,
			PositionsBought: t.PositionsBought,
			Status:          t.PaymentStatus,
			CreatedAt:       t.CreatedAt,
		})
	}
	for _, n := range notifications {
		out.Notifications = append(out.Notifications, ProfileNotification{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   n.Message,
			Read:      n.ReadAt != nil,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) stats(ctx context.Context, user *models.User) (ProfileStats, error) {
	var stats ProfileStats

	var totalSpent decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("SUM(amount_usd)").
		Where("user_id = ?", user.ID).
		Scan(&totalSpent).Error
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum spend")
	}
	if totalSpent.Valid {
		stats.TotalSpent = totalSpent.Decimal
	} else {
		stats.TotalSpent = decimal.Zero
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("continent = ?", user.Continent).
		Count(&stats.ContinentUsersCount).Error
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count continent users")
	}
	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Count(&stats.GlobalUsersCount).Error
	if err != nil {
		return stats, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}

	stats.ContinentPercentile = percentile(stats.ContinentUsersCount, user.ContinentRank)
	stats.GlobalPercentile = percentile(stats.GlobalUsersCount, user.GlobalRank)
	return stats, nil
}

// percentile reports how far up the board the rank sits, rounded to a whole
// percent. Rank 1 of N is the top, rank N the bottom.
func percentile(total int64, rank int) int {
	if total <= 0 || rank <= 0 {
		return 0
	}
	value := float64(total-int64(rank)+1) / float64(total) * 100
	return int(math.Round(value))
}
