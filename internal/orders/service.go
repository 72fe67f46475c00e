package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/gateway"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/outbox"
	"github.com/orchidcraft/orchid-backend/pkg/outbox/payloads"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressBook resolves a saved address owned by the user.
type AddressBook interface {
	FindAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// Locker provides the short redis lock taken around payment verification.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
	LockKey(scope, id string) string
}

// Service covers checkout, payment confirmation and fulfilment.
type Service interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*CheckoutDTO, error)
	VerifyPayment(ctx context.Context, buyerID uuid.UUID, input VerifyPaymentInput) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, sellerID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error)
	GetMyOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	GetSales(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ExportSales(ctx context.Context, sellerID uuid.UUID) ([]byte, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type ServiceParams struct {
	Repo      Repository
	Artworks  artworks.Repository
	Carts     cart.Repository
	Addresses AddressBook
	Gateway   gateway.Gateway
	Tx        txRunner
	Outbox    outbox.Emitter
	Locker    Locker
	Logger    *logger.Logger
	Config    config.OrdersConfig
}

type service struct {
	repo      Repository
	artworks  artworks.Repository
	carts     cart.Repository
	addresses AddressBook
	gateway   gateway.Gateway
	tx        txRunner
	outbox    outbox.Emitter
	locker    Locker
	logg      *logger.Logger
	cfg       config.OrdersConfig
}

const verifyLockScope = "order-verify"

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Artworks == nil:
		return nil, fmt.Errorf("artwork repository required")
	case p.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case p.Addresses == nil:
		return nil, fmt.Errorf("address book required")
	case p.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      p.Repo,
		artworks:  p.Artworks,
		carts:     p.Carts,
		addresses: p.Addresses,
		gateway:   p.Gateway,
		tx:        p.Tx,
		outbox:    p.Outbox,
		locker:    p.Locker,
		logg:      logg,
		cfg:       p.Config,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*CheckoutDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	address, err := s.resolveAddress(ctx, buyerID, input)
	if err != nil {
		return nil, err
	}

	var (
		lines  []LineRequest
		cartID uuid.UUID
	)
	switch input.Source {
	case SourceCart:
		userCart, err := s.carts.FindByUser(ctx, buyerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if userCart == nil || len(userCart.Items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		cartID = userCart.ID
		for _, item := range userCart.Items {
			lines = append(lines, LineRequest{ArtworkID: item.ArtworkID, Qty: item.Qty})
		}
	case SourceDirect:
		lines = input.Items
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order source")
	}
	lines = MergeLines(lines)
	if err := s.checkLimits(lines); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ArtworkID)
	}
	byID, err := s.artworks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artworks")
	}
	order, err := NewOrder(buyerID, lines, byID, address)
	if err != nil {
		return nil, err
	}

	// Nothing is persisted until the gateway has accepted the order.
	gwOrder, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   order.Total,
		Currency: order.Currency,
		Receipt:  order.ID.String(),
		Notes:    map[string]string{"buyer_id": buyerID.String()},
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	order.GatewayOrderID = gwOrder.ID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: outbox.ActorRoleBuyer},
			Data:          createdPayload(order),
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}
		if input.Source == SourceCart {
			if err := s.carts.WithTx(tx).Clear(ctx, cartID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "order.persist_failed_after_gateway", err)
		return nil, err
	}

	return &CheckoutDTO{
		Order:          FromModel(*order),
		GatewayKeyID:   s.gateway.KeyID(),
		GatewayOrderID: gwOrder.ID,
		Amount:         order.Total,
		Currency:       order.Currency,
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, buyerID uuid.UUID, input VerifyPaymentInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil || input.PaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId, paymentId and signature are required")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())

	release, held, err := s.acquire(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.loadBuyerOrder(ctx, s.repo, buyerID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.AwaitingPayment() {
		if order.Status.Rank() >= enums.OrderStatusPaid.Rank() {
			out := FromModel(*order)
			return &out, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order can no longer be paid").
			WithDetails(map[string]any{"status": order.Status})
	}
	if !held {
		// A concurrent submission owns the lock; report the order as it stands.
		out := FromModel(*order)
		return &out, nil
	}

	if !s.gateway.VerifySignature(order.GatewayOrderID, input.PaymentID, input.Signature) {
		return nil, s.recordPaymentFailure(ctx, order, input.PaymentID)
	}

	var result *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()
		n, err := repo.TransitionStatus(ctx, order.ID, awaitingPayment, enums.OrderStatusPaid, map[string]any{
			"gateway_payment_id": input.PaymentID,
			"gateway_signature":  input.Signature,
			"paid_at":            now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if n == 0 {
			// Another request settled the order first; stock already moved.
			result, err = repo.FindByID(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			return nil
		}

		artworkRepo := s.artworks.WithTx(tx)
		for _, item := range order.Items {
			if _, err := artworkRepo.DecrementStock(ctx, item.ArtworkID, item.Qty); err != nil {
				if errors.Is(err, artworks.ErrInsufficientStock) || errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
						WithDetails(map[string]any{"artworkId": item.ArtworkID, "requested": item.Qty})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: outbox.ActorRoleBuyer},
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				BuyerID:          order.BuyerID,
				GatewayPaymentID: input.PaymentID,
				Total:            order.Total,
				Currency:         order.Currency,
				SellerIDs:        sellerIDs(order.Items),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order paid")
		}
		result, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "order.payment_verified")
	out := FromModel(*result)
	return &out, nil
}

// recordPaymentFailure marks the order failed and always returns the
// verification error, unless persisting the failure itself broke.
func (s *service) recordPaymentFailure(ctx context.Context, order *models.Order, paymentID string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID, awaitingPayment, enums.OrderStatusFailed, map[string]any{
			"gateway_payment_id": paymentID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
		}
		if n == 0 {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: outbox.ActorRoleBuyer},
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:          order.ID,
				BuyerID:          order.BuyerID,
				GatewayPaymentID: paymentID,
				Reason:           "signature_mismatch",
			},
		})
	})
	if err != nil {
		return err
	}
	s.logg.Warn(ctx, "order.payment_signature_mismatch")
	return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment verification failed")
}

func (s *service) UpdateOrderStatus(ctx context.Context, sellerID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	var result *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		item := findItem(order.Items, input.ArtworkID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		if item.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order item does not belong to seller")
		}
		if !sellerSettable[next] || !CanTransition(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "invalid status transition").
				WithDetails(map[string]any{"from": order.Status, "to": next})
		}

		updates := timestampsFor(next, time.Now().UTC())
		if input.TrackingNumber != nil && *input.TrackingNumber != "" {
			updates["tracking_number"] = *input.TrackingNumber
		}
		n, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{order.Status}, next, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}
		if err := s.emitStatusChanged(ctx, tx, order, sellerID, outbox.ActorRoleSeller, next, input.TrackingNumber); err != nil {
			return err
		}
		result, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := SellerView(*result, sellerID)
	return &out, nil
}

func (s *service) CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadBuyerOrder(ctx, repo, buyerID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.AwaitingPayment() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order can only be cancelled before payment").
				WithDetails(map[string]any{"status": order.Status})
		}
		n, err := repo.TransitionStatus(ctx, order.ID, awaitingPayment, enums.OrderStatusCancelled,
			timestampsFor(enums.OrderStatusCancelled, time.Now().UTC()))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}
		if err := s.emitStatusChanged(ctx, tx, order, buyerID, outbox.ActorRoleBuyer, enums.OrderStatusCancelled, nil); err != nil {
			return err
		}
		result, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := FromModel(*result)
	return &out, nil
}

func (s *service) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if order.BuyerID == actorID {
		out := FromModel(*order)
		return &out, nil
	}
	for _, item := range order.Items {
		if item.SellerID == actorID {
			out := SellerView(*order, actorID)
			return &out, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to user")
}

func (s *service) GetMyOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if err := checkCursor(params); err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildPage(rows, params.Limit, FromModel), nil
}

func (s *service) GetSales(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if err := checkCursor(params); err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return buildPage(rows, params.Limit, func(o models.Order) OrderDTO { return SellerView(o, sellerID) }), nil
}

// ExpireStale cancels orders that never reached payment before cutoff.
// Stock is untouched because it only moves on verified payment.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindAwaitingPaymentBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale orders")
	}
	expired := 0
	for _, order := range stale {
		changed := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			n, err := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID, awaitingPayment, enums.OrderStatusCancelled,
				timestampsFor(enums.OrderStatusCancelled, time.Now().UTC()))
			if err != nil || n == 0 {
				return err
			}
			changed = true
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{Role: outbox.ActorRoleSystem},
				Data: payloads.OrderExpiredEvent{
					OrderID:    order.ID,
					BuyerID:    order.BuyerID,
					PrevStatus: order.Status,
				},
			})
		})
		if err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order "+order.ID.String())
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

func (s *service) acquire(ctx context.Context, orderID uuid.UUID) (func(), bool, error) {
	if s.locker == nil {
		return func() {}, true, nil
	}
	key := s.locker.LockKey(verifyLockScope, orderID.String())
	ttl := s.cfg.VerifyLock
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := s.locker.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire verify lock")
	}
	if !ok {
		return func() {}, false, nil
	}
	return func() {
		released, err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token)
		switch {
		case err != nil:
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.verify_lock_release_failed")
		case !released:
			// TTL ran out mid-request and another caller now holds the key.
			s.logg.Warn(ctx, "order.verify_lock_expired")
		}
	}, true, nil
}

func (s *service) resolveAddress(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (types.ShippingAddress, error) {
	if input.AddressID != nil {
		addr, err := s.addresses.FindAddress(ctx, buyerID, *input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeInvalidAddress, "address not found")
			}
			return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		return addr.Shipping(), nil
	}
	if input.ShippingAddress == nil {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeInvalidAddress, "shipping address required")
	}
	return input.ShippingAddress.Normalize(), nil
}

func (s *service) checkLimits(lines []LineRequest) error {
	if s.cfg.MaxLineItem > 0 && len(lines) > s.cfg.MaxLineItem {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many items in order").
			WithDetails(map[string]any{"max": s.cfg.MaxLineItem})
	}
	if s.cfg.MaxLineQty <= 0 {
		return nil
	}
	for _, line := range lines {
		if line.Qty > s.cfg.MaxLineQty {
			return pkgerrors.New(pkgerrors.CodeValidation, "qty exceeds per-line limit").
				WithDetails(map[string]any{"artworkId": line.ArtworkID, "max": s.cfg.MaxLineQty})
		}
	}
	return nil
}

func (s *service) loadBuyerOrder(ctx context.Context, repo Repository, buyerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	return order, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, role string, next enums.OrderStatus, tracking *string) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: role},
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			BuyerID:        order.BuyerID,
			ActorID:        actorID,
			From:           order.Status,
			To:             next,
			TrackingNumber: tracking,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
	}
	return nil
}

func timestampsFor(status enums.OrderStatus, now time.Time) map[string]any {
	updates := map[string]any{}
	switch status {
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	return updates
}

func findItem(items []models.OrderItem, artworkID uuid.UUID) *models.OrderItem {
	for i := range items {
		if items[i].ArtworkID == artworkID {
			return &items[i]
		}
	}
	return nil
}

func sellerIDs(items []models.OrderItem) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		out = append(out, item.SellerID)
	}
	return out
}

func createdPayload(order *models.Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ArtworkID: item.ArtworkID,
			SellerID:  item.SellerID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		GatewayOrderID: order.GatewayOrderID,
		Total:          order.Total,
		Currency:       order.Currency,
		Items:          lines,
	}
}

func buildPage(rows []models.Order, limit int, render func(models.Order) OrderDTO) pagination.Page[OrderDTO] {
	page := pagination.Build(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := pagination.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, row := range page.Items {
		out.Items = append(out.Items, render(row))
	}
	return out
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func checkCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}

func gatewayError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeGateway, pkgerrors.CodeGatewayTimeout:
			return typed
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway error")
}
