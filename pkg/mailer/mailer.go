package mailer

import (
	"context"
	"fmt"

	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

// Message is a rendered email ready for transport.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages. The default transport logs instead of
// sending so local and CI runs need no SMTP credentials.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes outgoing mail to the structured log.
type LogSender struct {
	logg *logger.Logger
	from string
}

// NewLogSender builds the logging transport.
func NewLogSender(cfg config.MailConfig, logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg, from: cfg.FromAddress}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"mail_from":    s.from,
			"mail_to":      msg.To,
			"mail_subject": msg.Subject,
		})
		s.logg.Info(ctx, "email dispatched via log transport")
	}
	return nil
}

// WelcomeMessage renders the signup email.
func WelcomeMessage(cfg config.MailConfig, to, username string, continent enums.Continent, startingRank int) Message {
	body := fmt.Sprintf(
		"Welcome to WorldLeader.io, %s! You're now competing in %s at starting rank #%d. Buy positions to climb: $1 = 1 position. %s/leaderboard",
		username, continent.Display(), startingRank, cfg.AppURL,
	)
	return Message{
		To:      to,
		Subject: "Welcome to WorldLeader.io - Your Journey Begins!",
		Body:    body,
	}
}

// OvertakenMessage renders the pushed-down email.
func OvertakenMessage(cfg config.MailConfig, to, username, overtakenBy string, continent enums.Continent, newRank int) Message {
	body := fmt.Sprintf(
		"%s just overtook you on the %s leaderboard! You're now ranked #%d. The world is watching - will you climb back? %s/leaderboard",
		overtakenBy, continent.Display(), newRank, cfg.AppURL,
	)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s just overtook you on WorldLeader.io!", overtakenBy),
		Body:    body,
	}
}

// PasswordResetMessage renders the reset email. The link carries the single-use
// token and expires one hour after issue.
func PasswordResetMessage(cfg config.MailConfig, to, username, token string) Message {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", cfg.AppURL, token)
	body := fmt.Sprintf(
		"Hi %s, we received a request to reset your WorldLeader.io password. This link can be used once and expires in 1 hour: %s. If you didn't request this, ignore this email.",
		username, resetURL,
	)
	return Message{
		To:      to,
		Subject: "Reset Your WorldLeader.io Password",
		Body:    body,
	}
}
