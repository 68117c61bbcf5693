package notifications

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/mailer"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
)

type captureSender struct {
	sent []mailer.Message
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func newHandlerConsumer(repo *fakeRepository, sender *captureSender) *Consumer {
	return &Consumer{
		repo:    repo,
		sender:  sender,
		mailCfg: config.MailConfig{FromAddress: "noreply@worldleader.io", AppURL: "https://worldleader.io"},
		logg:    logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
	}
}

func TestConsumerHandleRegistered(t *testing.T) {
	repo := &fakeRepository{}
	sender := &captureSender{}
	c := newHandlerConsumer(repo, sender)

	payload := payloads.UserRegisteredEvent{
		UserID:        uuid.New(),
		Email:         "new@example.com",
		Username:      "newcomer",
		Continent:     enums.ContinentSouthAmerica,
		ContinentRank: 8,
	}
	if err := c.handleRegistered(context.Background(), payload, context.Background()); err != nil {
		t.Fatalf("handle registered: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	note := repo.created[0]
	if note.Kind != enums.NotificationKindWelcome {
		t.Fatalf("expected welcome kind, got %s", note.Kind)
	}
	if !strings.Contains(note.Message, "South America") {
		t.Fatalf("expected display continent in message: %s", note.Message)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "new@example.com" {
		t.Fatalf("expected welcome mail, got %+v", sender.sent)
	}
}

func TestConsumerHandleOvertaken(t *testing.T) {
	repo := &fakeRepository{}
	sender := &captureSender{}
	c := newHandlerConsumer(repo, sender)

	payload := payloads.UserOvertakenEvent{
		UserID:          uuid.New(),
		Email:           "pushed@example.com",
		Username:        "pushed",
		Continent:       enums.ContinentEurope,
		NewRank:         4,
		OvertakenByID:   uuid.New(),
		OvertakenByName: "climber",
	}
	if err := c.handleOvertaken(context.Background(), payload, context.Background()); err != nil {
		t.Fatalf("handle overtaken: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	want := "climber just overtook you on the Europe leaderboard! You're now ranked #4. The world is watching - will you climb back?"
	if repo.created[0].Message != want {
		t.Fatalf("message mismatch:\n got %q\nwant %q", repo.created[0].Message, want)
	}
	if repo.created[0].Kind != enums.NotificationKindOvertaken {
		t.Fatalf("expected overtaken kind, got %s", repo.created[0].Kind)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected overtaken mail, got %d", len(sender.sent))
	}
}

func TestConsumerHandlePasswordResetSkipsInAppRow(t *testing.T) {
	repo := &fakeRepository{}
	sender := &captureSender{}
	c := newHandlerConsumer(repo, sender)

	payload := payloads.PasswordResetRequestedEvent{
		UserID:   uuid.New(),
		Email:    "who@example.com",
		Username: "who",
		Token:    "tok123",
	}
	if err := c.handlePasswordReset(context.Background(), payload, context.Background()); err != nil {
		t.Fatalf("handle password reset: %v", err)
	}

	if len(repo.created) != 0 {
		t.Fatalf("expected no in-app rows, got %d", len(repo.created))
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Body, "token=tok123") {
		t.Fatalf("expected reset mail with token link, got %+v", sender.sent)
	}
}

func TestConsumerHandleRejectsMissingUser(t *testing.T) {
	c := newHandlerConsumer(&fakeRepository{}, &captureSender{})

	if err := c.handleRegistered(context.Background(), payloads.UserRegisteredEvent{}, context.Background()); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if err := c.handleOvertaken(context.Background(), payloads.UserOvertakenEvent{}, context.Background()); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if err := c.handlePasswordReset(context.Background(), payloads.PasswordResetRequestedEvent{}, context.Background()); err == nil {
		t.Fatal("expected error for missing email")
	}
}
