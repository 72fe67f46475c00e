package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/db/dbtest"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/gateway"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/outbox"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
)

const testSecret = "rzp_test_secret"

type stubAddresses struct {
	addr *models.Address
}

func (s stubAddresses) FindAddress(_ context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if s.addr == nil || s.addr.ID != addressID || s.addr.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.addr, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
	// onAcquire runs after a successful SetNX, outside the mutex.
	onAcquire func(key string)
}

func (l *fakeLocker) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	l.mu.Lock()
	if _, ok := l.held[key]; ok {
		l.mu.Unlock()
		return false, nil
	}
	l.held[key] = value.(string)
	hook := l.onAcquire
	l.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return false, nil
	}
	delete(l.held, key)
	return true, nil
}

func (l *fakeLocker) LockKey(scope, id string) string {
	return "orchid:lock:" + scope + ":" + id
}

type fixture struct {
	svc     Service
	db      *gorm.DB
	gw      *gateway.Local
	carts   cart.Service
	locker  *fakeLocker
	address *models.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	artworkRepo := artworks.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, artworkRepo, client)
	require.NoError(t, err)

	f := &fixture{
		db:     conn,
		gw:     &gateway.Local{Secret: testSecret},
		carts:  cartSvc,
		locker: &fakeLocker{held: map[string]string{}},
	}
	f.address = &models.Address{
		ID: uuid.New(), Name: "Asha Rao", Phone: "+919800000000", Line1: "12 Temple Street",
		City: "Bhubaneswar", State: "Odisha", PostalCode: "751001", Country: "IN",
	}
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Artworks:  artworkRepo,
		Carts:     cartRepo,
		Addresses: stubAddresses{addr: f.address},
		Gateway:   f.gw,
		Tx:        client,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Locker:    f.locker,
		Config:    config.OrdersConfig{VerifyLock: time.Second, MaxLineQty: 100, MaxLineItem: 50},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) artwork(t *testing.T, seller uuid.UUID, price int64, qty int) models.Artwork {
	t.Helper()
	row := models.Artwork{
		SellerID: seller,
		Title:    "Pattachitra",
		Price:    price,
		Currency: enums.CurrencyINR,
		Quantity: qty,
		Status:   enums.ArtworkStatusPublished,
	}
	require.NoError(t, f.db.Create(&row).Error)
	return row
}

func (f *fixture) reloadArtwork(t *testing.T, id uuid.UUID) models.Artwork {
	t.Helper()
	var row models.Artwork
	require.NoError(t, f.db.First(&row, "id = ?", id).Error)
	return row
}

func (f *fixture) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func (f *fixture) directOrder(t *testing.T, buyer uuid.UUID, lines ...LineRequest) *CheckoutDTO {
	t.Helper()
	addr := validAddress()
	out, err := f.svc.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Source:          SourceDirect,
		Items:           lines,
		ShippingAddress: &addr,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) verify(t *testing.T, buyer uuid.UUID, checkout *CheckoutDTO) (*OrderDTO, error) {
	t.Helper()
	paymentID := "pay_" + checkout.Order.ID.String()[:8]
	return f.svc.VerifyPayment(context.Background(), buyer, VerifyPaymentInput{
		OrderID:   checkout.Order.ID,
		PaymentID: paymentID,
		Signature: gateway.Sign(testSecret, checkout.GatewayOrderID, paymentID),
	})
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCartCheckoutScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer, seller := uuid.New(), uuid.New()
	x := f.artwork(t, seller, 100, 2)

	_, err := f.carts.AddItem(ctx, buyer, cart.AddItemInput{ArtworkID: x.ID, Qty: 2})
	require.NoError(t, err)

	addrID := f.address.ID
	f.address.UserID = buyer
	checkout, err := f.svc.CreateOrder(ctx, buyer, CreateOrderInput{Source: SourceCart, AddressID: &addrID})
	require.NoError(t, err)
	assert.EqualValues(t, 200, checkout.Amount)
	assert.Equal(t, enums.OrderStatusCreated, checkout.Order.Status)
	assert.Equal(t, "local", checkout.GatewayKeyID)
	assert.Equal(t, "Bhubaneswar", checkout.Order.ShippingAddress.City)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderCreated))

	view, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, view.Items, "cart is cleared after checkout")
	assert.Equal(t, 2, f.reloadArtwork(t, x.ID).Quantity, "stock untouched until payment")

	paid, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	after := f.reloadArtwork(t, x.ID)
	assert.Equal(t, 0, after.Quantity)
	assert.Equal(t, enums.ArtworkStatusOutOfStock, after.Status)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderPaid))
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 2})

	_, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)
	again, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaid, again.Status)
	assert.Equal(t, 3, f.reloadArtwork(t, x.ID).Quantity)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderPaid))
}

// staleRepo serves a pre-payment snapshot outside transactions, as a replica
// or a racing request would see it.
type staleRepo struct {
	Repository
	snapshot *models.Order
}

func (r staleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if r.snapshot != nil && r.snapshot.ID == id {
		cp := *r.snapshot
		return &cp, nil
	}
	return r.Repository.FindByID(ctx, id)
}

func TestVerifyPaymentConditionalUpdateGuardsStaleReads(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 2})

	svc := f.svc.(*service)
	snapshot, err := svc.repo.FindByID(context.Background(), checkout.Order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCreated, snapshot.Status)

	_, err = f.verify(t, buyer, checkout)
	require.NoError(t, err)

	svc.repo = staleRepo{Repository: svc.repo, snapshot: snapshot}
	svc.locker = nil
	again, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaid, again.Status)
	assert.Equal(t, 3, f.reloadArtwork(t, x.ID).Quantity, "stock moves once")
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderPaid))
}

func TestVerifyLockReleaseKeepsForeignHolder(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})
	key := f.locker.LockKey(verifyLockScope, checkout.Order.ID.String())

	// Simulate the TTL lapsing mid-request and a second caller taking the key.
	f.locker.onAcquire = func(k string) {
		f.locker.mu.Lock()
		f.locker.held[k] = "second-caller"
		f.locker.mu.Unlock()
	}

	_, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)
	assert.Equal(t, "second-caller", f.locker.held[key])
}

func TestVerifyPaymentWhileLockedReturnsCurrentOrder(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})

	f.locker.held[f.locker.LockKey(verifyLockScope, checkout.Order.ID.String())] = "other-request"
	out, err := f.verify(t, buyer, checkout)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCreated, out.Status)
	assert.Equal(t, 5, f.reloadArtwork(t, x.ID).Quantity)
}

func TestVerifyPaymentSignatureMismatch(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})

	_, err := f.svc.VerifyPayment(context.Background(), buyer, VerifyPaymentInput{
		OrderID:   checkout.Order.ID,
		PaymentID: "pay_forged",
		Signature: "deadbeef",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePaymentVerification, pkgerrors.CodeOf(err))

	order, err := f.svc.GetOrder(context.Background(), buyer, checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFailed, order.Status)
	assert.Equal(t, 5, f.reloadArtwork(t, x.ID).Quantity)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderPaymentFailed))
}

func TestVerifyPaymentOwnership(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})

	_, err := f.verify(t, uuid.New(), checkout)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.VerifyPayment(context.Background(), buyer, VerifyPaymentInput{OrderID: uuid.New(), PaymentID: "p", Signature: "s"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestVerifyPaymentInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 500, 2)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 2})

	require.NoError(t, f.db.Model(&models.Artwork{}).Where("id = ?", x.ID).Update("quantity", 1).Error)

	_, err := f.verify(t, buyer, checkout)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.CodeOf(err))

	order, err := f.svc.GetOrder(context.Background(), buyer, checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCreated, order.Status)
	assert.Equal(t, 1, f.reloadArtwork(t, x.ID).Quantity)
}

func TestCreateOrderInsufficientStockPersistsNothing(t *testing.T) {
	f := newFixture(t)
	addr := validAddress()
	x := f.artwork(t, uuid.New(), 500, 1)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Source:          SourceDirect,
		Items:           []LineRequest{{ArtworkID: x.ID, Qty: 2}},
		ShippingAddress: &addr,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.CodeOf(err))

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, f.events(t, enums.EventOrderCreated))
}

func TestCreateOrderGatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.gw.Fail = true
	addr := validAddress()
	x := f.artwork(t, uuid.New(), 500, 3)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Source:          SourceDirect,
		Items:           []LineRequest{{ArtworkID: x.ID, Qty: 1}},
		ShippingAddress: &addr,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeGateway, pkgerrors.CodeOf(err))

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateOrderValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.artwork(t, uuid.New(), 500, 3)

	_, err := f.svc.CreateOrder(ctx, uuid.New(), CreateOrderInput{Source: SourceDirect, Items: []LineRequest{{ArtworkID: x.ID, Qty: 1}}})
	assert.Equal(t, pkgerrors.CodeInvalidAddress, pkgerrors.CodeOf(err))

	missing := uuid.New()
	_, err = f.svc.CreateOrder(ctx, uuid.New(), CreateOrderInput{Source: SourceDirect, AddressID: &missing, Items: []LineRequest{{ArtworkID: x.ID, Qty: 1}}})
	assert.Equal(t, pkgerrors.CodeInvalidAddress, pkgerrors.CodeOf(err))

	addr := validAddress()
	_, err = f.svc.CreateOrder(ctx, uuid.New(), CreateOrderInput{Source: SourceCart, ShippingAddress: &addr})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.CreateOrder(ctx, uuid.New(), CreateOrderInput{Source: SourceDirect, ShippingAddress: &addr, Items: []LineRequest{{ArtworkID: x.ID, Qty: 101}}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateOrderStatusBySeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer, sellerA, sellerB := uuid.New(), uuid.New(), uuid.New()
	x := f.artwork(t, sellerB, 100, 5)
	y := f.artwork(t, sellerA, 300, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1}, LineRequest{ArtworkID: y.ID, Qty: 1})

	_, err := f.svc.UpdateOrderStatus(ctx, sellerB, checkout.Order.ID, UpdateStatusInput{ArtworkID: x.ID, Status: "shipped"})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err), "created -> shipped is not one step")

	_, err = f.svc.UpdateOrderStatus(ctx, sellerB, checkout.Order.ID, UpdateStatusInput{ArtworkID: x.ID, Status: "paid"})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))

	_, err = f.verify(t, buyer, checkout)
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, sellerA, checkout.Order.ID, UpdateStatusInput{ArtworkID: x.ID, Status: "shipped"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateOrderStatus(ctx, sellerB, checkout.Order.ID, UpdateStatusInput{ArtworkID: uuid.New(), Status: "shipped"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	tracking := "AWB123"
	out, err := f.svc.UpdateOrderStatus(ctx, sellerB, checkout.Order.ID, UpdateStatusInput{ArtworkID: x.ID, Status: "shipped", TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, out.Status)
	require.NotNil(t, out.ShippedAt)
	require.NotNil(t, out.TrackingNumber)
	assert.Equal(t, "AWB123", *out.TrackingNumber)
	require.Len(t, out.Items, 1, "seller sees only their own lines")
	require.NotNil(t, out.SellerSubtotal)
	assert.EqualValues(t, 100, *out.SellerSubtotal)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderStatusChanged))

	_, err = f.svc.UpdateOrderStatus(ctx, sellerB, checkout.Order.ID, UpdateStatusInput{ArtworkID: x.ID, Status: "bogus"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 100, 5)

	first := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})
	out, err := f.svc.CancelOrder(ctx, buyer, first.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, out.Status)
	assert.NotNil(t, out.CancelledAt)

	second := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})
	_, err = f.verify(t, buyer, second)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, buyer, second.Order.ID)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))

	_, err = f.svc.CancelOrder(ctx, uuid.New(), first.Order.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer, sellerA, sellerB := uuid.New(), uuid.New(), uuid.New()
	x := f.artwork(t, sellerA, 100, 5)
	y := f.artwork(t, sellerB, 200, 5)
	checkout := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1}, LineRequest{ArtworkID: y.ID, Qty: 2})

	full, err := f.svc.GetOrder(ctx, buyer, checkout.Order.ID)
	require.NoError(t, err)
	assert.Len(t, full.Items, 2)
	assert.EqualValues(t, 500, full.Total)

	partial, err := f.svc.GetOrder(ctx, sellerB, checkout.Order.ID)
	require.NoError(t, err)
	require.Len(t, partial.Items, 1)
	assert.Equal(t, y.ID, partial.Items[0].ArtworkID)

	_, err = f.svc.GetOrder(ctx, uuid.New(), checkout.Order.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestListsAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer, seller := uuid.New(), uuid.New()
	x := f.artwork(t, seller, 100, 10)
	other := f.artwork(t, uuid.New(), 900, 10)

	for i := 0; i < 3; i++ {
		f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1}, LineRequest{ArtworkID: other.ID, Qty: 1})
	}
	f.directOrder(t, uuid.New(), LineRequest{ArtworkID: other.ID, Qty: 1})

	page, err := f.svc.GetMyOrders(ctx, buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.False(t, page.Items[0].CreatedAt.Before(page.Items[1].CreatedAt), "newest first")

	next, err := f.svc.GetMyOrders(ctx, buyer, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.GetMyOrders(ctx, buyer, pagination.Params{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	sales, err := f.svc.GetSales(ctx, seller, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sales.Items, 3)
	for _, sale := range sales.Items {
		require.Len(t, sale.Items, 1)
		assert.Equal(t, x.ID, sale.Items[0].ArtworkID)
		assert.EqualValues(t, 100, *sale.SellerSubtotal)
	}

	data, err := f.svc.ExportSales(ctx, seller)
	require.NoError(t, err)
	book, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	sheet := book.Sheet[salesSheet]
	require.NotNil(t, sheet)
	assert.Len(t, sheet.Rows, 4)
	assert.Equal(t, "Order ID", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "1.00", sheet.Rows[1].Cells[6].Value)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	x := f.artwork(t, uuid.New(), 100, 10)

	stale := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})
	paid := f.directOrder(t, buyer, LineRequest{ArtworkID: x.ID, Qty: 1})
	_, err := f.verify(t, buyer, paid)
	require.NoError(t, err)

	n, err := f.svc.ExpireStale(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	order, err := f.svc.GetOrder(ctx, buyer, stale.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderExpired))
	assert.Equal(t, 9, f.reloadArtwork(t, x.ID).Quantity)

	n, err = f.svc.ExpireStale(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}
