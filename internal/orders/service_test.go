package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
)

type fakeRepository struct {
	orders   map[uuid.UUID]*models.Order
	timeline []models.OrderTimelineEntry
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.orders[id], nil
}

func (f *fakeRepository) GetBySlug(ctx context.Context, slug string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.orders[id], nil
}

func (f *fakeRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeRepository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return nil
}

func (f *fakeRepository) AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error {
	f.timeline = append(f.timeline, *entry)
	return nil
}

func (f *fakeRepository) ListTimeline(ctx context.Context, orderID uuid.UUID) ([]models.OrderTimelineEntry, error) {
	var out []models.OrderTimelineEntry
	for _, e := range f.timeline {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		for _, item := range o.Items {
			if item.SellerID == sellerID {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) ListPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, o := range f.orders {
		if o.Status == enums.OrderStatusPlaced && o.CreatedAt.Before(cutoff) {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeGate struct {
	denied map[uuid.UUID]bool
}

func (f *fakeGate) IsApproved(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (bool, error) {
	return !f.denied[subjectID], nil
}

type fakeSettler struct {
	delivered int
	returned  int
	cancelled int
}

func (f *fakeSettler) OnDelivered(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	f.delivered++
	return nil
}

func (f *fakeSettler) OnReturned(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) error {
	f.returned++
	return nil
}

func (f *fakeSettler) OnCancelled(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	f.cancelled++
	return nil
}

type fakeEventEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEventEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	svc     Service
	repo    *fakeRepository
	gate    *fakeGate
	settler *fakeSettler
	emitter *fakeEventEmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := newFakeRepository()
	gate := &fakeGate{denied: map[uuid.UUID]bool{}}
	settler := &fakeSettler{}
	emitter := &fakeEventEmitter{}
	svc, err := NewService(repo, fakeTxRunner{}, gate, settler, emitter, config.EngineConfig{
		Currency:         "USD",
		ReturnableDays:   7,
		DeadlockAttempts: 1,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return &harness{svc: svc, repo: repo, gate: gate, settler: settler, emitter: emitter}
}

func placeInput(customerID uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		CustomerID:     customerID,
		Currency:       enums.CurrencyUSD,
		PaymentStatus:  enums.PaymentStatusCaptured,
		DeliveryCharge: decimal.NewFromInt(5),
		DeliveryZone:   "north",
		Items: []PlaceOrderItemInput{
			{
				ProductID:  uuid.New(),
				SellerID:   uuid.New(),
				StoreID:    uuid.New(),
				Title:      "widget",
				Qty:        2,
				UnitPrice:  decimal.NewFromInt(50),
				Returnable: true,
			},
		},
	}
}

func (h *harness) placeOrder(t *testing.T, input PlaceOrderInput) *models.Order {
	t.Helper()
	order, err := h.svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	return order
}

// storedOrder seeds the repository with an order already mid-lifecycle,
// bypassing the placement path.
func (h *harness) storedOrder(t *testing.T, status enums.OrderStatus, mutate func(*models.Order)) *models.Order {
	t.Helper()
	sellerID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Slug:          "ord-" + uuid.NewString()[:8],
		CustomerID:    uuid.New(),
		Status:        status,
		PaymentStatus: enums.PaymentStatusCaptured,
		Currency:      enums.CurrencyUSD,
		Subtotal:      decimal.NewFromInt(100),
		FinalTotal:    decimal.NewFromInt(100),
		CreatedAt:     time.Now().UTC(),
		Items: []models.OrderItem{
			{
				ID:         uuid.New(),
				ProductID:  uuid.New(),
				SellerID:   sellerID,
				StoreID:    uuid.New(),
				Title:      "widget",
				Qty:        1,
				UnitPrice:  decimal.NewFromInt(100),
				Subtotal:   decimal.NewFromInt(100),
				Status:     enums.OrderItemStatusPending,
				Returnable: true,
			},
		},
	}
	if mutate != nil {
		mutate(order)
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	h.repo.orders[order.ID] = order
	return order
}

func TestPlaceOrder_CreatesPlacedWithTimeline(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t, placeInput(uuid.New()))

	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed, got %s", order.Status)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected subtotal 100, got %s", order.Subtotal)
	}
	if !order.FinalTotal.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("expected final total 105, got %s", order.FinalTotal)
	}
	if order.Slug == "" {
		t.Fatal("expected generated slug")
	}
	if len(h.repo.timeline) != 1 {
		t.Fatalf("expected one timeline entry, got %d", len(h.repo.timeline))
	}
	entry := h.repo.timeline[0]
	if entry.FromStatus != enums.OrderStatusDraft || entry.ToStatus != enums.OrderStatusPlaced {
		t.Fatalf("unexpected timeline edge %s -> %s", entry.FromStatus, entry.ToStatus)
	}
	if entry.Event != enums.OrderEventPlace {
		t.Fatalf("expected place event on the timeline, got %s", entry.Event)
	}
	if len(h.emitter.events) != 1 || h.emitter.events[0].EventType != enums.EventOrderTransitioned {
		t.Fatalf("expected one transition event, got %+v", h.emitter.events)
	}
}

func TestPlaceOrder_RejectsUnapprovedSeller(t *testing.T) {
	h := newHarness(t)
	input := placeInput(uuid.New())
	h.gate.denied[input.Items[0].SellerID] = true

	_, err := h.svc.PlaceOrder(context.Background(), input)
	if !apperrors.HasCode(err, apperrors.CodeNotApproved) {
		t.Fatalf("expected not approved, got %v", err)
	}
	if len(h.repo.orders) != 0 {
		t.Fatal("expected no order persisted")
	}
}

func TestPlaceOrder_RejectsNegativeFinalTotal(t *testing.T) {
	h := newHarness(t)
	input := placeInput(uuid.New())
	input.PromoDiscount = decimal.NewFromInt(500)

	_, err := h.svc.PlaceOrder(context.Background(), input)
	if !apperrors.HasCode(err, apperrors.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestTransition_FullLifecycleToDelivered(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, nil)
	sellerID := order.Items[0].SellerID
	agentID := uuid.New()
	ctx := context.Background()

	fire := func(event enums.OrderEvent, actor Actor, agent *uuid.UUID) *models.Order {
		t.Helper()
		got, err := h.svc.Transition(ctx, TransitionInput{
			OrderID: order.ID,
			Event:   event,
			Actor:   actor,
			AgentID: agent,
		})
		if err != nil {
			t.Fatalf("%s error: %v", event, err)
		}
		return got
	}

	fire(enums.OrderEventAccept, Actor{Role: enums.ActorRoleSeller, ID: sellerID}, nil)
	fire(enums.OrderEventAssignAgent, Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()}, &agentID)
	fire(enums.OrderEventMarkPrepared, Actor{Role: enums.ActorRoleSeller, ID: sellerID}, nil)
	fire(enums.OrderEventMarkShipped, Actor{Role: enums.ActorRoleSeller, ID: sellerID}, nil)
	fire(enums.OrderEventMarkOutForDelivery, Actor{Role: enums.ActorRoleDeliveryAgent, ID: agentID}, nil)
	final := fire(enums.OrderEventMarkDelivered, Actor{Role: enums.ActorRoleDeliveryAgent, ID: agentID}, nil)

	if final.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", final.Status)
	}
	if final.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be set")
	}
	if final.DeliveryAgentID == nil || *final.DeliveryAgentID != agentID {
		t.Fatal("expected agent assignment to persist")
	}
	if h.settler.delivered != 1 {
		t.Fatalf("expected one settlement call, got %d", h.settler.delivered)
	}
	if len(h.repo.timeline) != 6 {
		t.Fatalf("expected six timeline entries, got %d", len(h.repo.timeline))
	}
}

func TestTransition_RejectsSkippingStates(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, nil)

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventMarkDelivered,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if h.settler.delivered != 0 {
		t.Fatal("settlement must not run on a rejected transition")
	}
	if len(h.repo.timeline) != 0 {
		t.Fatal("rejected transition must not write timeline entries")
	}
}

func TestTransition_RoleGate(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, nil)

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventAccept,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
	})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestTransition_AcceptRequiresPayment(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusUnpaid
	})

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventAccept,
		Actor:   Actor{Role: enums.ActorRoleSeller, ID: order.Items[0].SellerID},
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestTransition_AssignAgentGatesApproval(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusAccepted, nil)
	agentID := uuid.New()
	h.gate.denied[agentID] = true

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventAssignAgent,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		AgentID: &agentID,
	})
	if !apperrors.HasCode(err, apperrors.CodeNotApproved) {
		t.Fatalf("expected not approved, got %v", err)
	}
}

func TestTransition_AssignAgentChecksZone(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusAccepted, func(o *models.Order) {
		o.DeliveryZone = "north"
	})
	agentID := uuid.New()

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID:   order.ID,
		Event:     enums.OrderEventAssignAgent,
		Actor:     Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		AgentID:   &agentID,
		AgentZone: "south",
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransition_AssignAgentRequiresZoneForZonedOrder(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusAccepted, func(o *models.Order) {
		o.DeliveryZone = "north"
	})
	agentID := uuid.New()

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventAssignAgent,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		AgentID: &agentID,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error without an agent zone, got %v", err)
	}

	got, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID:   order.ID,
		Event:     enums.OrderEventAssignAgent,
		Actor:     Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		AgentID:   &agentID,
		AgentZone: "north",
	})
	if err != nil {
		t.Fatalf("assign_agent error: %v", err)
	}
	if got.AgentZone != "north" {
		t.Fatalf("expected agent zone persisted, got %q", got.AgentZone)
	}
}

func TestTransition_OutForDeliveryChecksStoredZone(t *testing.T) {
	h := newHarness(t)
	agentID := uuid.New()
	order := h.storedOrder(t, enums.OrderStatusShipped, func(o *models.Order) {
		o.DeliveryZone = "north"
		o.AgentZone = "south"
		o.DeliveryAgentID = &agentID
	})

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventMarkOutForDelivery,
		Actor:   Actor{Role: enums.ActorRoleDeliveryAgent, ID: agentID},
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition on zone mismatch, got %v", err)
	}

	got, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventMarkOutForDelivery,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("admin override error: %v", err)
	}
	if got.Status != enums.OrderStatusOutForDelivery {
		t.Fatalf("expected out_for_delivery, got %s", got.Status)
	}
}

func TestTransition_CustomerCancelBeforeShipment(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, nil)

	got, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventCancel,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
		Reason:  "changed my mind",
	})
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if got.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if got.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}
	if h.settler.cancelled != 1 {
		t.Fatalf("expected cancel settlement for captured payment, got %d", h.settler.cancelled)
	}
}

func TestTransition_CustomerCancelAfterShipmentRejected(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusShipped, nil)

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventCancel,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestTransition_CancelUnpaidSkipsSettlement(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, func(o *models.Order) {
		o.PaymentStatus = enums.PaymentStatusAuthorized
	})

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventCancel,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
	})
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if h.settler.cancelled != 0 {
		t.Fatal("uncaptured payment must not trigger cancel settlement")
	}
}

func TestTransition_CancelForeignOrderForbidden(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusPlaced, nil)

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventCancel,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: uuid.New()},
	})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func deliveredAt(o *models.Order, ago time.Duration) {
	ts := time.Now().UTC().Add(-ago)
	o.DeliveredAt = &ts
	for i := range o.Items {
		o.Items[i].Status = enums.OrderItemStatusDelivered
	}
}

func TestTransition_ReturnFlowRefundsOrder(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusDelivered, func(o *models.Order) {
		deliveredAt(o, 24*time.Hour)
	})
	itemID := order.Items[0].ID
	ctx := context.Background()

	_, err := h.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventRequestReturn,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
		ItemID:  &itemID,
		Reason:  "damaged on arrival",
	})
	if err != nil {
		t.Fatalf("request_return error: %v", err)
	}
	if order.Items[0].Status != enums.OrderItemStatusReturnRequested {
		t.Fatalf("expected return_requested, got %s", order.Items[0].Status)
	}
	if order.Items[0].ReturnReason == nil {
		t.Fatal("expected return reason to be recorded")
	}

	got, err := h.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventApproveReturn,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		ItemID:  &itemID,
	})
	if err != nil {
		t.Fatalf("approve_return error: %v", err)
	}
	if order.Items[0].Status != enums.OrderItemStatusReturned {
		t.Fatalf("expected returned, got %s", order.Items[0].Status)
	}
	if h.settler.returned != 1 {
		t.Fatalf("expected one return settlement, got %d", h.settler.returned)
	}
	if got.Status != enums.OrderStatusRefunded {
		t.Fatalf("expected refunded once all items returned, got %s", got.Status)
	}
}

func TestTransition_PartialReturnLeavesRefundInProgress(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusDelivered, func(o *models.Order) {
		o.Items = append(o.Items, models.OrderItem{
			ID:         uuid.New(),
			ProductID:  uuid.New(),
			SellerID:   uuid.New(),
			StoreID:    uuid.New(),
			Title:      "second widget",
			Qty:        1,
			UnitPrice:  decimal.NewFromInt(40),
			Subtotal:   decimal.NewFromInt(40),
			Returnable: true,
		})
		deliveredAt(o, 24*time.Hour)
	})
	itemID := order.Items[0].ID
	ctx := context.Background()

	if _, err := h.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventRequestReturn,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
		ItemID:  &itemID,
	}); err != nil {
		t.Fatalf("request_return error: %v", err)
	}
	got, err := h.svc.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventApproveReturn,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
		ItemID:  &itemID,
	})
	if err != nil {
		t.Fatalf("approve_return error: %v", err)
	}
	if got.Status != enums.OrderStatusRefundInProgress {
		t.Fatalf("expected refund_in_progress with a live item remaining, got %s", got.Status)
	}
}

func TestTransition_ReturnWindowClosed(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusDelivered, func(o *models.Order) {
		deliveredAt(o, 8*24*time.Hour)
	})
	itemID := order.Items[0].ID

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventRequestReturn,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
		ItemID:  &itemID,
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition past the window, got %v", err)
	}
}

func TestTransition_NonReturnableItemRejected(t *testing.T) {
	h := newHarness(t)
	order := h.storedOrder(t, enums.OrderStatusDelivered, func(o *models.Order) {
		deliveredAt(o, 24*time.Hour)
		o.Items[0].Returnable = false
	})
	itemID := order.Items[0].ID

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Event:   enums.OrderEventRequestReturn,
		Actor:   Actor{Role: enums.ActorRoleCustomer, ID: order.CustomerID},
		ItemID:  &itemID,
	})
	if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestTransition_OrderNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: uuid.New(),
		Event:   enums.OrderEventCancel,
		Actor:   Actor{Role: enums.ActorRoleAdmin, ID: uuid.New()},
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpirePlaced_CancelsStaleOrders(t *testing.T) {
	h := newHarness(t)
	stale := h.storedOrder(t, enums.OrderStatusPlaced, func(o *models.Order) {
		o.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	})
	fresh := h.storedOrder(t, enums.OrderStatusPlaced, nil)
	accepted := h.storedOrder(t, enums.OrderStatusAccepted, func(o *models.Order) {
		o.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	})

	expired, err := h.svc.ExpirePlaced(context.Background(), 24*time.Hour, 100)
	if err != nil {
		t.Fatalf("ExpirePlaced error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected one expired order, got %d", expired)
	}
	if stale.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected stale order cancelled, got %s", stale.Status)
	}
	if fresh.Status != enums.OrderStatusPlaced {
		t.Fatalf("fresh order must stay placed, got %s", fresh.Status)
	}
	if accepted.Status != enums.OrderStatusAccepted {
		t.Fatalf("accepted order must be untouched, got %s", accepted.Status)
	}
}
