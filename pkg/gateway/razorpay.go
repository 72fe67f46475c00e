package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	razorpay "github.com/razorpay/razorpay-go"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay talks to the Razorpay Orders API.
type Razorpay struct {
	orders  orderCreator
	keyID   string
	secret  string
	timeout time.Duration
	logg    *logger.Logger
}

// NewRazorpay builds a client from the gateway configuration.
func NewRazorpay(cfg config.GatewayConfig, logg *logger.Logger) (*Razorpay, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Razorpay{
		orders:  client.Order,
		keyID:   cfg.KeyID,
		secret:  cfg.KeySecret,
		timeout: cfg.Timeout,
		logg:    logg,
	}, nil
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder creates a Razorpay order. The SDK has no context support, so the
// call runs in its own goroutine and is abandoned when ctx or the timeout fires.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	payload := map[string]interface{}{
		"amount":   req.Amount,
		"currency": string(req.Currency),
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(payload, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeGatewayTimeout, ctx.Err(), "payment gateway timed out")
		}
		return Order{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if r.logg != nil {
				r.logg.Error(r.logg.WithField(ctx, "receipt", req.Receipt), "razorpay.create_order_failed", res.err)
			}
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeGateway, res.err, "payment gateway rejected order")
		}
		return parseOrder(res.body, req)
	}
}

func parseOrder(body map[string]interface{}, req OrderRequest) (Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeGateway, "payment gateway response missing order id")
	}
	out := Order{ID: id, Amount: req.Amount, Currency: req.Currency}
	if cur, ok := body["currency"].(string); ok {
		if parsed, err := enums.ParseCurrency(cur); err == nil {
			out.Currency = parsed
		}
	}
	return out, nil
}

func (r *Razorpay) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(r.secret, gatewayOrderID, paymentID, signature)
}
