package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

// Local is an in-process gateway for development and tests. It issues
// order ids locally and verifies signatures with the configured secret.
type Local struct {
	Secret string
	// Fail makes CreateOrder return a gateway error.
	Fail bool
}

func (l *Local) KeyID() string {
	return "local"
}

func (l *Local) CreateOrder(_ context.Context, req OrderRequest) (Order, error) {
	if l.Fail {
		return Order{}, pkgerrors.New(pkgerrors.CodeGateway, "payment gateway unavailable")
	}
	if req.Amount <= 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	id := "order_local_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return Order{ID: id, Amount: req.Amount, Currency: req.Currency}, nil
}

func (l *Local) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(l.Secret, gatewayOrderID, paymentID, signature)
}

const devSecret = "orchid-dev-secret"

// New returns the Razorpay gateway. Outside prod, missing keys fall back to
// Local so the checkout flow can run without credentials.
func New(cfg config.GatewayConfig, prod bool, logg *logger.Logger) (Gateway, error) {
	if (cfg.KeyID == "" || cfg.KeySecret == "") && !prod {
		secret := cfg.KeySecret
		if secret == "" {
			secret = devSecret
		}
		if logg != nil {
			logg.Warn(context.Background(), "razorpay keys missing, using local payment gateway")
		}
		return &Local{Secret: secret}, nil
	}
	return NewRazorpay(cfg, logg)
}
