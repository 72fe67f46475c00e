package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/orchidcraft/orchid-backend/pkg/enums"
)

// OrderRequest describes a gateway-side order to collect payment against.
type OrderRequest struct {
	Amount   int64
	Currency enums.Currency
	Receipt  string
	Notes    map[string]string
}

// Order is the gateway's handle for a pending payment.
type Order struct {
	ID       string
	Amount   int64
	Currency enums.Currency
}

// Gateway creates orders and verifies payment signatures.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

// Sign computes hex(HMAC-SHA256(secret, gatewayOrderID + "|" + paymentID)).
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the expected signature with the provided one in
// constant time.
func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	if secret == "" || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Sign(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
