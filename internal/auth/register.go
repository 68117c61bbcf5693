package auth

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/internal/ranking"
	"github.com/worldleaderio/worldleader-backend/internal/users"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
	"github.com/worldleaderio/worldleader-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	Engine         *ranking.Engine
	Outbox         outboxPublisher
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
}

type registerService struct {
	db          txRunner
	engine      *ranking.Engine
	outbox      outboxPublisher
	session     sessionManager
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ranking engine required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	return &registerService{
		db:          params.DB,
		engine:      params.Engine,
		outbox:      params.Outbox,
		session:     params.SessionManager,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	continent, err := enums.ParseContinent(req.Continent)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid continent")
	}

	strength := security.CheckStrength(req.Password)
	if !strength.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password does not meet security requirements").
			WithDetails(map[string]any{"feedback": strength.Feedback})
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	// The engine lock spans the whole transaction so a concurrent purchase's
	// recompute cannot interleave with this one.
	err = s.engine.Serialize(func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			userRepo := users.NewRepository(tx)

			taken, err := userRepo.ExistsByEmailOrUsername(ctx, email, username)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check identifiers")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "user with this email or username already exists")
			}

			startingRank, err := ranking.StartingContinentRank(tx, continent)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute starting rank")
			}

			user, err := userRepo.Create(ctx, users.CreateUserDTO{
				Email:         email,
				Username:      username,
				PasswordHash:  passwordHash,
				Continent:     continent,
				CountryCode:   req.CountryCode,
				ContinentRank: startingRank,
			})
			if err != nil {
				// A concurrent signup can slip past the exists check and land
				// on the unique index instead.
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "user with this email or username already exists")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
			}

			if err := s.engine.Recalculate(ctx, tx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalculate rankings")
			}
			user, err = userRepo.FindByID(ctx, user.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventUserRegistered,
				AggregateType: enums.AggregateUser,
				AggregateID:   user.ID,
				Actor:         &outbox.ActorRef{UserID: user.ID, Username: user.Username},
				Version:       1,
				OccurredAt:    time.Now(),
				Data: payloads.UserRegisteredEvent{
					UserID:        user.ID,
					Email:         user.Email,
					Username:      user.Username,
					Continent:     user.Continent,
					ContinentRank: user.ContinentRank,
					GlobalRank:    user.GlobalRank,
					RegisteredAt:  user.CreatedAt,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue welcome event")
			}

			created = user
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return issueTokens(ctx, s.session, s.jwtCfg, created)
}
