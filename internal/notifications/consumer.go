package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/worldleaderio/worldleader-backend/pkg/config"
	"github.com/worldleaderio/worldleader-backend/pkg/db/models"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
	"github.com/worldleaderio/worldleader-backend/pkg/mailer"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/idempotency"
	"github.com/worldleaderio/worldleader-backend/pkg/outbox/payloads"
)

const notificationConsumer = "notification-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns ranking and account events into in-app notifications and
// outgoing mail.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	sender       mailer.Sender
	mailCfg      config.MailConfig
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(
	repo repository,
	subscription *pubsub.Subscriber,
	manager *idempotency.Manager,
	sender mailer.Sender,
	mailCfg config.MailConfig,
	logg *logger.Logger,
) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		sender:       sender,
		mailCfg:      mailCfg,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case enums.EventUserRegistered, enums.EventUserOvertaken, enums.EventUserPasswordReset:
	default:
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventUserRegistered:
		var payload payloads.UserRegisteredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse registered payload: %w", err)
		}
		return c.handleRegistered(ctx, payload, logCtx)
	case enums.EventUserOvertaken:
		var payload payloads.UserOvertakenEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse overtaken payload: %w", err)
		}
		return c.handleOvertaken(ctx, payload, logCtx)
	case enums.EventUserPasswordReset:
		var payload payloads.PasswordResetRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse reset payload: %w", err)
		}
		return c.handlePasswordReset(ctx, payload, logCtx)
	}
	return nil
}

func (c *Consumer) handleRegistered(ctx context.Context, payload payloads.UserRegisteredEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	notification := &models.Notification{
		UserID:  payload.UserID,
		Kind:    enums.NotificationKindWelcome,
		Title:   "Welcome to WorldLeader.io!",
		Message: fmt.Sprintf("You're now competing in %s. Climb to conquer the world!", payload.Continent.Display()),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	msg := mailer.WelcomeMessage(c.mailCfg, payload.Email, payload.Username, payload.Continent, payload.ContinentRank)
	if err := c.sender.Send(ctx, msg); err != nil {
		return err
	}
	c.logg.Info(logCtx, "welcome notification delivered")
	return nil
}

func (c *Consumer) handleOvertaken(ctx context.Context, payload payloads.UserOvertakenEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	message := fmt.Sprintf(
		"%s just overtook you on the %s leaderboard! You're now ranked #%d. The world is watching - will you climb back?",
		payload.OvertakenByName, payload.Continent.Display(), payload.NewRank,
	)
	notification := &models.Notification{
		UserID:  payload.UserID,
		Kind:    enums.NotificationKindOvertaken,
		Title:   "You've been overtaken!",
		Message: message,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	msg := mailer.OvertakenMessage(c.mailCfg, payload.Email, payload.Username, payload.OvertakenByName, payload.Continent, payload.NewRank)
	if err := c.sender.Send(ctx, msg); err != nil {
		return err
	}
	c.logg.Info(logCtx, "overtaken notification delivered")
	return nil
}

// handlePasswordReset sends mail only. The reset link is a secret, so it never
// lands in the in-app notification table.
func (c *Consumer) handlePasswordReset(ctx context.Context, payload payloads.PasswordResetRequestedEvent, logCtx context.Context) error {
	if payload.Email == "" {
		return fmt.Errorf("email missing")
	}

	msg := mailer.PasswordResetMessage(c.mailCfg, payload.Email, payload.Username, payload.Token)
	if err := c.sender.Send(ctx, msg); err != nil {
		return err
	}
	c.logg.Info(logCtx, "password reset email dispatched")
	return nil
}
