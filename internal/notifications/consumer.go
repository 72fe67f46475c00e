package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/mailer"
	"github.com/orchidcraft/orchid-backend/pkg/outbox"
	"github.com/orchidcraft/orchid-backend/pkg/outbox/payloads"
)

const (
	dedupeScope = "order-mail"
	dedupeTTL   = 7 * 24 * time.Hour
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type ConsumerParams struct {
	Subscription receiver
	Users        userLookup
	Mailer       mailer.Mailer
	Dedupe       dedupeStore
	Logger       *logger.Logger
}

// Consumer turns order lifecycle events into buyer and seller emails.
type Consumer struct {
	subscription receiver
	users        userLookup
	mail         mailer.Mailer
	dedupe       dedupeStore
	logg         *logger.Logger
}

func NewConsumer(p ConsumerParams) (*Consumer, error) {
	switch {
	case p.Subscription == nil:
		return nil, fmt.Errorf("orders subscription required")
	case p.Users == nil:
		return nil, fmt.Errorf("user lookup required")
	case p.Mailer == nil:
		return nil, fmt.Errorf("mailer required")
	case p.Dedupe == nil:
		return nil, fmt.Errorf("dedupe store required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: p.Subscription,
		users:        p.Users,
		mail:         p.Mailer,
		dedupe:       p.Dedupe,
		logg:         p.Logger,
	}, nil
}

// Run receives until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed messages
// are acked so they do not loop; delivery failures are nacked for redelivery.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "notify.bad_envelope", err)
		return true
	}
	if _, err := uuid.Parse(envelope.EventID); err != nil {
		c.logg.Error(logCtx, "notify.bad_event_id", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	messages, err := c.compose(ctx, eventType, envelope.Data)
	if err != nil {
		if errors.Is(err, errSkip) {
			c.logg.Debug(logCtx, "notify.skipped")
			return true
		}
		c.logg.Error(logCtx, "notify.compose_failed", err)
		return !isRetryable(err)
	}
	if len(messages) == 0 {
		return true
	}

	sent, dupes := 0, 0
	for i, m := range messages {
		rcptCtx := c.logg.WithField(logCtx, "to", m.ToEmail)
		// Each recipient is claimed on its own so a redelivery after a partial
		// failure only mails the ones still outstanding.
		key := c.dedupe.LockKey(dedupeScope, fmt.Sprintf("%s:%d", envelope.EventID, i))
		fresh, err := c.dedupe.SetNX(ctx, key, m.ToEmail, dedupeTTL)
		if err != nil {
			c.logg.Error(rcptCtx, "notify.dedupe_failed", err)
			return false
		}
		if !fresh {
			dupes++
			continue
		}
		if err := c.mail.Send(ctx, m); err != nil {
			c.logg.Error(rcptCtx, "notify.send_failed", err)
			if delErr := c.dedupe.Del(context.WithoutCancel(ctx), key); delErr != nil {
				c.logg.Warn(c.logg.WithField(rcptCtx, "error", delErr.Error()), "notify.dedupe_release_failed")
			}
			return false
		}
		sent++
	}
	if sent == 0 {
		c.logg.Info(logCtx, "notify.duplicate")
		return true
	}
	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{"emails": sent, "already_sent": dupes}), "notify.sent")
	return true
}

var errSkip = errors.New("event not notified")

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

func (c *Consumer) compose(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) ([]mailer.Message, error) {
	switch eventType {
	case enums.EventOrderPaid:
		var p payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		buyer, err := c.user(ctx, p.BuyerID)
		if err != nil {
			return nil, err
		}
		out := []mailer.Message{orderPaidBuyer(buyer, p)}
		for _, sellerID := range p.SellerIDs {
			seller, err := c.user(ctx, sellerID)
			if err != nil {
				return nil, err
			}
			out = append(out, orderPaidSeller(seller, p))
		}
		return out, nil

	case enums.EventOrderPaymentFailed:
		var p payloads.OrderPaymentFailedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		buyer, err := c.user(ctx, p.BuyerID)
		if err != nil {
			return nil, err
		}
		return []mailer.Message{paymentFailed(buyer, p)}, nil

	case enums.EventOrderStatusChanged:
		var p payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		switch p.To {
		case enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled:
		default:
			return nil, errSkip
		}
		buyer, err := c.user(ctx, p.BuyerID)
		if err != nil {
			return nil, err
		}
		return []mailer.Message{statusChanged(buyer, p)}, nil

	case enums.EventOrderExpired:
		var p payloads.OrderExpiredEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		buyer, err := c.user(ctx, p.BuyerID)
		if err != nil {
			return nil, err
		}
		return []mailer.Message{orderExpired(buyer, p)}, nil
	}
	return nil, errSkip
}

func (c *Consumer) user(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := c.users.FindByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return nil, retryableError{err: err}
}
