package orders

import "github.com/orchidcraft/orchid-backend/pkg/enums"

// CanTransition reports whether an order may move from current to next.
// Forward moves are one step at a time; failed and cancelled are reachable
// from any non-terminal state.
func CanTransition(current, next enums.OrderStatus) bool {
	if !current.IsValid() || !next.IsValid() || current == next {
		return false
	}
	if current.IsTerminal() {
		return false
	}
	if next == enums.OrderStatusFailed || next == enums.OrderStatusCancelled {
		return true
	}
	return next.Rank() == current.Rank()+1
}

// sellerSettable are the targets a seller may request; payment states are
// only reached through verification.
var sellerSettable = map[enums.OrderStatus]bool{
	enums.OrderStatusShipped:        true,
	enums.OrderStatusOutForDelivery: true,
	enums.OrderStatusDelivered:      true,
	enums.OrderStatusCancelled:      true,
	enums.OrderStatusFailed:         true,
}
