package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

type ResetTokenSweepJobParams struct {
	Logger     *logger.Logger
	Repository resetTokenRepo
}

type resetTokenRepo interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// NewResetTokenSweepJob clears password reset tokens that passed their expiry
// so stale secrets do not linger in the users table.
func NewResetTokenSweepJob(params ResetTokenSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &resetTokenSweepJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type resetTokenSweepJob struct {
	logg *logger.Logger
	repo resetTokenRepo
	now  func() time.Time
}

func (j *resetTokenSweepJob) Name() string { return "reset-token-sweep" }

func (j *resetTokenSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cleared, err := j.repo.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("reset token sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_cleared": cleared,
	})
	j.logg.Info(logCtx, "reset token sweep complete")
	return nil
}
