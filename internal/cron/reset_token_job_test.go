package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

func TestResetTokenSweepJobClearsExpiredTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeResetTokenRepo{cleared: 3}
	job := newResetTokenSweepJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastNow.Equal(now) {
		t.Fatalf("expected sweep at %s, got %s", now, repo.lastNow)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestResetTokenSweepJobPropagatesError(t *testing.T) {
	repo := &fakeResetTokenRepo{err: errors.New("boom")}
	job := newResetTokenSweepJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newResetTokenSweepJob(t *testing.T, repo *fakeResetTokenRepo) *resetTokenSweepJob {
	t.Helper()
	jobIface, err := NewResetTokenSweepJob(ResetTokenSweepJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewResetTokenSweepJob: %v", err)
	}
	job, ok := jobIface.(*resetTokenSweepJob)
	if !ok {
		t.Fatalf("expected resetTokenSweepJob, got %T", jobIface)
	}
	return job
}

type fakeResetTokenRepo struct {
	lastNow time.Time
	cleared int64
	called  int
	err     error
}

func (f *fakeResetTokenRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	f.called++
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	return f.cleared, nil
}
