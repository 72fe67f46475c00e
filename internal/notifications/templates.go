package notifications

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/mailer"
	"github.com/orchidcraft/orchid-backend/pkg/money"
	"github.com/orchidcraft/orchid-backend/pkg/outbox/payloads"
)

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func to(u *models.User, subject, body string) mailer.Message {
	return mailer.Message{
		ToEmail:   u.Email,
		ToName:    u.Name,
		Subject:   subject,
		PlainText: fmt.Sprintf("Hi %s,\n\n%s\n\nThe Orchid team", u.Name, body),
	}
}

func orderPaidBuyer(u *models.User, p payloads.OrderPaidEvent) mailer.Message {
	return to(u, "Your Orchid order is confirmed",
		fmt.Sprintf("We received your payment of %s for order %s. The makers will start preparing it shortly.",
			money.Format(p.Total, p.Currency), shortID(p.OrderID)))
}

func orderPaidSeller(u *models.User, p payloads.OrderPaidEvent) mailer.Message {
	return to(u, "You made a sale on Orchid",
		fmt.Sprintf("Order %s includes your work and has been paid. Check your sales dashboard to ship it.",
			shortID(p.OrderID)))
}

func paymentFailed(u *models.User, p payloads.OrderPaymentFailedEvent) mailer.Message {
	return to(u, "Payment for your Orchid order failed",
		fmt.Sprintf("We could not confirm payment for order %s. No money was taken; you can place the order again.",
			shortID(p.OrderID)))
}

func statusChanged(u *models.User, p payloads.OrderStatusChangedEvent) mailer.Message {
	id := shortID(p.OrderID)
	switch p.To {
	case enums.OrderStatusShipped:
		body := fmt.Sprintf("Order %s is on its way.", id)
		if p.TrackingNumber != nil && *p.TrackingNumber != "" {
			body += " Tracking number: " + *p.TrackingNumber + "."
		}
		return to(u, "Your Orchid order has shipped", body)
	case enums.OrderStatusDelivered:
		return to(u, "Your Orchid order was delivered",
			fmt.Sprintf("Order %s was marked delivered. We hope you love it.", id))
	default:
		return to(u, "Your Orchid order was cancelled",
			fmt.Sprintf("Order %s has been cancelled.", id))
	}
}

func orderExpired(u *models.User, p payloads.OrderExpiredEvent) mailer.Message {
	return to(u, "Your Orchid order expired",
		fmt.Sprintf("Order %s was not paid in time and has been closed. The items may still be available.",
			shortID(p.OrderID)))
}
