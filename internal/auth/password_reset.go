package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/worldleaderio/worldleader-backend/internal/users"
	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
	"github.com/worldleaderio/worldleader-backend/pkg/security"
)

// ForgotPasswordMessage is returned whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
const ForgotPasswordMessage = "If an account exists with this email, you will receive a password reset link."

// PasswordResetService issues, verifies, and redeems reset tokens.
type PasswordResetService interface {
	Forgot(ctx context.Context, req ForgotPasswordRequest) error
	VerifyToken(ctx context.Context, token string) (*VerifyResetTokenResponse, error)
	Reset(ctx context.Context, req ResetPasswordRequest) error
}

// PasswordResetServiceParams packages the reset flow dependencies.
type PasswordResetServiceParams struct {
	DB             txRunner
	Outbox         outboxPublisher
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type passwordResetService struct {
	db          txRunner
	outbox      outboxPublisher
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewPasswordResetService builds the reset service.
func NewPasswordResetService(params PasswordResetServiceParams) (PasswordResetService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	return &passwordResetService{
		db:          params.DB,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// Forgot stores a fresh single-use token and queues the reset email. Unknown
// emails return nil so callers always answer the same way.
func (s *passwordResetService) Forgot(ctx context.Context, req ForgotPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	expiresAt := time.Now().UTC().Add(s.passwordCfg.ResetTokenTTL)

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if s.logg != nil {
					s.logg.Info(ctx, "password reset requested for unknown email")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}

		if err := userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventUserPasswordReset,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Username: user.Username},
			Version:       1,
			OccurredAt:    time.Now(),
			Data: payloads.PasswordResetRequestedEvent{
				UserID:    user.ID,
				Email:     user.Email,
				Username:  user.Username,
				Token:     token,
				ExpiresAt: expiresAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue reset event")
		}
		return nil
	})
}

// VerifyToken reports whether the token is known and unexpired without
// consuming it.
func (s *passwordResetService) VerifyToken(ctx context.Context, token string) (*VerifyResetTokenResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reset token is required")
	}

	out := &VerifyResetTokenResponse{}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := users.NewRepository(tx).FindByResetToken(ctx, token, time.Now().UTC())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
		}
		out.Valid = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reset redeems the token: the new password must pass the strength gate, and
// the token is cleared in the same write so it cannot be replayed.
func (s *passwordResetService) Reset(ctx context.Context, req ResetPasswordRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reset token is required")
	}

	strength := security.CheckStrength(req.Password)
	if !strength.Valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "password does not meet security requirements").
			WithDetails(map[string]any{"feedback": strength.Feedback})
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByResetToken(ctx, token, time.Now().UTC())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset token")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
		}

		if err := userRepo.ConsumeResetToken(ctx, user.ID, passwordHash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume reset token")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "password reset completed")
		}
		return nil
	})
}
