package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
)

var mailCfg = config.MailConfig{
	FromAddress: "noreply@worldleader.io",
	AppURL:      "https://worldleader.io",
}

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage(mailCfg, "new@example.com", "newcomer", enums.ContinentSouthAmerica, 7)
	if msg.To != "new@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Body, "South America") {
		t.Fatalf("expected display continent in body: %s", msg.Body)
	}
	if !strings.Contains(msg.Body, "#7") {
		t.Fatalf("expected starting rank in body: %s", msg.Body)
	}
}

func TestOvertakenMessage(t *testing.T) {
	msg := OvertakenMessage(mailCfg, "pushed@example.com", "pushed", "climber", enums.ContinentEurope, 4)
	if !strings.Contains(msg.Subject, "climber just overtook you") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	want := "climber just overtook you on the Europe leaderboard! You're now ranked #4. The world is watching - will you climb back?"
	if !strings.Contains(msg.Body, want) {
		t.Fatalf("body mismatch: %s", msg.Body)
	}
}

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage(mailCfg, "who@example.com", "who", "tok123")
	if !strings.Contains(msg.Body, "https://worldleader.io/reset-password?token=tok123") {
		t.Fatalf("expected reset link in body: %s", msg.Body)
	}
	if !strings.Contains(msg.Body, "expires in 1 hour") {
		t.Fatalf("expected expiry note in body: %s", msg.Body)
	}
}

func TestLogSenderRequiresRecipient(t *testing.T) {
	sender := NewLogSender(mailCfg, nil)
	if err := sender.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
	if err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
