package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/config"
	dbpkg "github.com/nearcart/nearcart-backend/pkg/db"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/money"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// approvalGate answers whether a counterparty may transact.
type approvalGate interface {
	IsApproved(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (bool, error)
}

// Settler is invoked inside the transition transaction on revenue-final
// transitions. Implemented by the settlement package.
type Settler interface {
	OnDelivered(ctx context.Context, tx *gorm.DB, order *models.Order) error
	OnReturned(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) error
	OnCancelled(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// Service drives the order lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderBySlug(ctx context.Context, slug string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ExpirePlaced(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// PlaceOrderItemInput is one tenderised line handed over by checkout.
type PlaceOrderItemInput struct {
	ProductID    uuid.UUID
	SellerID     uuid.UUID
	StoreID      uuid.UUID
	CategoryID   *uuid.UUID
	Title        string
	SKU          string
	Qty          int
	UnitPrice    decimal.Decimal
	LineDiscount decimal.Decimal
	TaxAmount    decimal.Decimal
	Returnable   bool
}

// PlaceOrderInput registers an already-tenderised order with the engine.
type PlaceOrderInput struct {
	Slug             string
	CustomerID       uuid.UUID
	Currency         enums.Currency
	FulfillmentType  enums.FulfillmentType
	PaymentStatus    enums.PaymentStatus
	DeliveryCharge   decimal.Decimal
	PromoDiscount    decimal.Decimal
	GiftCardDiscount decimal.Decimal
	WalletApplied    decimal.Decimal
	DeliveryZone     string
	Items            []PlaceOrderItemInput
}

// Actor identifies who fires a transition.
type Actor struct {
	Role enums.ActorRole
	ID   uuid.UUID
}

// TransitionInput carries one state machine event.
type TransitionInput struct {
	OrderID   uuid.UUID
	Event     enums.OrderEvent
	Actor     Actor
	AgentID   *uuid.UUID
	AgentZone string
	ItemID    *uuid.UUID
	Reason    string
}

type service struct {
	repo    Repository
	tx      txRunner
	gate    approvalGate
	settler Settler
	events  outboxEmitter
	cfg     config.EngineConfig
}

// NewService wires the order lifecycle service.
func NewService(repo Repository, tx txRunner, gate approvalGate, settler Settler, events outboxEmitter, cfg config.EngineConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("orders tx runner required")
	}
	if gate == nil {
		return nil, fmt.Errorf("orders approval gate required")
	}
	if settler == nil {
		return nil, fmt.Errorf("orders settler required")
	}
	if events == nil {
		return nil, fmt.Errorf("orders outbox emitter required")
	}
	return &service{repo: repo, tx: tx, gate: gate, settler: settler, events: events, cfg: cfg}, nil
}

// PlaceOrder validates the tender, gates every counterparty through
// verification, and stores the order in `placed` with a draft→placed
// timeline record.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "an order requires at least one item")
	}
	if !input.Currency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if !input.PaymentStatus.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid payment status %q", input.PaymentStatus))
	}
	if input.FulfillmentType == "" {
		input.FulfillmentType = enums.FulfillmentTypeDelivery
	}
	for _, amount := range []decimal.Decimal{input.DeliveryCharge, input.PromoDiscount, input.GiftCardDiscount, input.WalletApplied} {
		if amount.IsNegative() {
			return nil, apperrors.New(apperrors.CodeInvalidAmount, "order adjustments cannot be negative")
		}
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, line := range input.Items {
		if line.Qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if line.UnitPrice.IsNegative() || line.LineDiscount.IsNegative() || line.TaxAmount.IsNegative() {
			return nil, apperrors.New(apperrors.CodeInvalidAmount, fmt.Sprintf("item %d: amounts cannot be negative", i))
		}
		if line.ProductID == uuid.Nil || line.SellerID == uuid.Nil || line.StoreID == uuid.Nil {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("item %d: product, seller and store ids are required", i))
		}
		if strings.TrimSpace(line.Title) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("item %d: title snapshot is required", i))
		}

		if err := s.requireApproved(ctx, enums.VerificationKindSeller, line.SellerID); err != nil {
			return nil, err
		}
		if err := s.requireApproved(ctx, enums.VerificationKindStore, line.StoreID); err != nil {
			return nil, err
		}
		if err := s.requireApproved(ctx, enums.VerificationKindProduct, line.ProductID); err != nil {
			return nil, err
		}

		lineSubtotal := money.RoundStorage(
			line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))).Sub(line.LineDiscount))
		if lineSubtotal.IsNegative() {
			return nil, apperrors.New(apperrors.CodeInvalidAmount, fmt.Sprintf("item %d: discount exceeds line total", i))
		}
		subtotal = subtotal.Add(lineSubtotal)

		items = append(items, models.OrderItem{
			ProductID:    line.ProductID,
			SellerID:     line.SellerID,
			StoreID:      line.StoreID,
			CategoryID:   line.CategoryID,
			Title:        line.Title,
			SKU:          line.SKU,
			Qty:          line.Qty,
			UnitPrice:    line.UnitPrice,
			LineDiscount: line.LineDiscount,
			Subtotal:     lineSubtotal,
			TaxAmount:    line.TaxAmount,
			Status:       enums.OrderItemStatusPending,
			Returnable:   line.Returnable,
		})
	}

	finalTotal := subtotal.
		Add(input.DeliveryCharge).
		Sub(input.PromoDiscount).
		Sub(input.GiftCardDiscount).
		Sub(input.WalletApplied)
	if finalTotal.IsNegative() {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "final total cannot be negative")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = "ord-" + uuid.NewString()[:8]
	}

	order := &models.Order{
		Slug:             slug,
		CustomerID:       input.CustomerID,
		Status:           enums.OrderStatusPlaced,
		PaymentStatus:    input.PaymentStatus,
		FulfillmentType:  input.FulfillmentType,
		Currency:         input.Currency,
		Subtotal:         money.RoundStorage(subtotal),
		DeliveryCharge:   money.RoundStorage(input.DeliveryCharge),
		PromoDiscount:    money.RoundStorage(input.PromoDiscount),
		GiftCardDiscount: money.RoundStorage(input.GiftCardDiscount),
		WalletApplied:    money.RoundStorage(input.WalletApplied),
		FinalTotal:       money.RoundStorage(finalTotal),
		DeliveryZone:     input.DeliveryZone,
		Items:            items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_orders_slug") {
				return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("order slug %q already exists", slug))
			}
			return err
		}
		if err := repo.AppendTimeline(ctx, &models.OrderTimelineEntry{
			OrderID:    order.ID,
			FromStatus: enums.OrderStatusDraft,
			ToStatus:   enums.OrderStatusPlaced,
			Event:      enums.OrderEventPlace,
			ActorRole:  enums.ActorRoleCustomer,
			ActorID:    &order.CustomerID,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderTransitioned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ActorID: &order.CustomerID, Role: enums.ActorRoleCustomer},
			Data: map[string]any{
				"from":  enums.OrderStatusDraft,
				"to":    enums.OrderStatusPlaced,
				"event": enums.OrderEventPlace,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) requireApproved(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) error {
	approved, err := s.gate.IsApproved(ctx, kind, subjectID)
	if err != nil {
		return err
	}
	if !approved {
		return apperrors.New(apperrors.CodeNotApproved,
			fmt.Sprintf("%s %s is not approved to transact", kind, subjectID)).
			WithDetails(map[string]string{"kind": string(kind), "subject_id": subjectID.String()})
	}
	return nil
}

// Transition fires one state machine event inside a retried transaction.
// The row lock on the order serializes concurrent transitions; deadlocks
// and serialization conflicts re-run the whole closure.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	if !input.Event.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid order event %q", input.Event))
	}
	if !input.Actor.Role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid actor role %q", input.Actor.Role))
	}
	if !roleMayFire(input.Event, input.Actor.Role) {
		return nil, apperrors.New(apperrors.CodeForbidden,
			fmt.Sprintf("role %s may not fire %s", input.Actor.Role, input.Event))
	}

	var result *models.Order
	err := dbpkg.WithTxRetry(ctx, s.tx, s.cfg.DeadlockAttempts, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		from := order.Status
		to, err := nextStatus(from, input.Event)
		if err != nil {
			return err
		}

		if err := s.applyEvent(ctx, tx, repo, order, input, to); err != nil {
			return err
		}

		if err := repo.AppendTimeline(ctx, &models.OrderTimelineEntry{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   order.Status,
			Event:      input.Event,
			ActorRole:  input.Actor.Role,
			ActorID:    actorIDPtr(input.Actor),
			Note:       notePtr(input.Reason),
		}); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderTransitioned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ActorID: actorIDPtr(input.Actor), Role: input.Actor.Role},
			Data: map[string]any{
				"from":  from,
				"to":    order.Status,
				"event": input.Event,
			},
		}); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyEvent mutates the locked order for one event. The order status is
// already validated against the machine; this layer enforces the
// event-specific preconditions and the item-level effects.
func (s *service) applyEvent(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input TransitionInput, to enums.OrderStatus) error {
	switch input.Event {
	case enums.OrderEventAccept:
		if order.PaymentStatus != enums.PaymentStatusAuthorized && order.PaymentStatus != enums.PaymentStatusCaptured {
			return apperrors.New(apperrors.CodeIllegalTransition,
				fmt.Sprintf("cannot accept an order with payment status %s", order.PaymentStatus))
		}
		if err := s.requireActorSeller(order, input.Actor); err != nil {
			return err
		}
		for i := range order.Items {
			if order.Items[i].Status != enums.OrderItemStatusCancelled {
				order.Items[i].Status = enums.OrderItemStatusAccepted
				if err := repo.SaveItem(ctx, &order.Items[i]); err != nil {
					return err
				}
			}
		}

	case enums.OrderEventAssignAgent:
		if input.AgentID == nil || *input.AgentID == uuid.Nil {
			return apperrors.New(apperrors.CodeValidation, "agent id is required")
		}
		if err := s.requireApproved(ctx, enums.VerificationKindDeliveryAgent, *input.AgentID); err != nil {
			return err
		}
		if order.DeliveryZone != "" {
			if input.AgentZone == "" {
				return apperrors.New(apperrors.CodeValidation, "agent zone is required for zoned orders")
			}
			if input.AgentZone != order.DeliveryZone {
				return apperrors.New(apperrors.CodeValidation,
					fmt.Sprintf("agent zone %q does not cover order zone %q", input.AgentZone, order.DeliveryZone))
			}
		}
		order.DeliveryAgentID = input.AgentID
		order.AgentZone = input.AgentZone

	case enums.OrderEventMarkPrepared:
		if err := s.requireActorSeller(order, input.Actor); err != nil {
			return err
		}
		for _, item := range order.Items {
			if item.Status != enums.OrderItemStatusCancelled && item.Status != enums.OrderItemStatusAccepted {
				return apperrors.New(apperrors.CodeIllegalTransition,
					fmt.Sprintf("item %s is %s, all items must be accepted", item.ID, item.Status))
			}
		}

	case enums.OrderEventMarkShipped:
		if order.DeliveryAgentID == nil {
			return apperrors.New(apperrors.CodeIllegalTransition, "cannot ship without an assigned agent")
		}
		for i := range order.Items {
			if order.Items[i].Status == enums.OrderItemStatusAccepted {
				order.Items[i].Status = enums.OrderItemStatusShipped
				if err := repo.SaveItem(ctx, &order.Items[i]); err != nil {
					return err
				}
			}
		}

	case enums.OrderEventMarkOutForDelivery:
		if err := s.requireActorAgent(order, input.Actor); err != nil {
			return err
		}
		// Admins may push a mis-zoned order through; agents may not.
		if input.Actor.Role != enums.ActorRoleAdmin && order.DeliveryZone != "" && order.AgentZone != order.DeliveryZone {
			return apperrors.New(apperrors.CodeIllegalTransition,
				fmt.Sprintf("assigned agent zone %q does not cover order zone %q", order.AgentZone, order.DeliveryZone))
		}

	case enums.OrderEventMarkDelivered:
		if err := s.requireActorAgent(order, input.Actor); err != nil {
			return err
		}
		now := time.Now().UTC()
		order.DeliveredAt = &now
		for i := range order.Items {
			if order.Items[i].Status != enums.OrderItemStatusCancelled {
				order.Items[i].Status = enums.OrderItemStatusDelivered
				if err := repo.SaveItem(ctx, &order.Items[i]); err != nil {
					return err
				}
			}
		}
		order.Status = to
		if err := repo.SaveOrder(ctx, order); err != nil {
			return err
		}
		return s.settler.OnDelivered(ctx, tx, order)

	case enums.OrderEventCancel:
		if !cancelAllowed(order.Status, input.Actor.Role) {
			return apperrors.New(apperrors.CodeIllegalTransition,
				fmt.Sprintf("role %s may not cancel an order in state %s", input.Actor.Role, order.Status))
		}
		if input.Actor.Role == enums.ActorRoleCustomer && order.CustomerID != input.Actor.ID {
			return apperrors.New(apperrors.CodeForbidden, "customers may only cancel their own orders")
		}
		now := time.Now().UTC()
		order.CancelledAt = &now
		for i := range order.Items {
			if order.Items[i].Status != enums.OrderItemStatusCancelled {
				order.Items[i].Status = enums.OrderItemStatusCancelled
				if err := repo.SaveItem(ctx, &order.Items[i]); err != nil {
					return err
				}
			}
		}
		order.Status = to
		if err := repo.SaveOrder(ctx, order); err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusCaptured {
			return s.settler.OnCancelled(ctx, tx, order)
		}
		return nil

	case enums.OrderEventRequestReturn:
		return s.applyRequestReturn(ctx, repo, order, input)

	case enums.OrderEventApproveReturn:
		return s.applyApproveReturn(ctx, tx, repo, order, input)

	default:
		return illegalTransition(order.Status, input.Event)
	}

	order.Status = to
	return repo.SaveOrder(ctx, order)
}

func (s *service) applyRequestReturn(ctx context.Context, repo Repository, order *models.Order, input TransitionInput) error {
	item, err := findItem(order, input.ItemID)
	if err != nil {
		return err
	}
	if input.Actor.Role == enums.ActorRoleCustomer && order.CustomerID != input.Actor.ID {
		return apperrors.New(apperrors.CodeForbidden, "customers may only return their own orders")
	}
	if item.Status != enums.OrderItemStatusDelivered {
		return apperrors.New(apperrors.CodeIllegalTransition,
			fmt.Sprintf("item is %s, only delivered items can be returned", item.Status))
	}
	if !item.Returnable {
		return apperrors.New(apperrors.CodeIllegalTransition, "item is not returnable")
	}
	if order.DeliveredAt == nil {
		return apperrors.New(apperrors.CodeInvariant, "delivered order has no delivered_at")
	}
	window := time.Duration(s.cfg.ReturnableDays) * 24 * time.Hour
	if time.Since(*order.DeliveredAt) > window {
		return apperrors.New(apperrors.CodeIllegalTransition,
			fmt.Sprintf("return window of %d days has closed", s.cfg.ReturnableDays))
	}
	item.Status = enums.OrderItemStatusReturnRequested
	item.ReturnReason = notePtr(input.Reason)
	return repo.SaveItem(ctx, item)
}

func (s *service) applyApproveReturn(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input TransitionInput) error {
	item, err := findItem(order, input.ItemID)
	if err != nil {
		return err
	}
	if item.Status != enums.OrderItemStatusReturnRequested {
		return apperrors.New(apperrors.CodeIllegalTransition,
			fmt.Sprintf("item is %s, only requested returns can be approved", item.Status))
	}
	item.Status = enums.OrderItemStatusReturned
	if err := repo.SaveItem(ctx, item); err != nil {
		return err
	}
	if err := s.settler.OnReturned(ctx, tx, order, item); err != nil {
		return err
	}

	// The order tracks the refund branch: in progress while any live item
	// remains, refunded once every non-cancelled item has come back.
	allReturned := true
	for _, it := range order.Items {
		if it.ID == item.ID {
			continue
		}
		if it.Status != enums.OrderItemStatusCancelled &&
			it.Status != enums.OrderItemStatusReturned &&
			it.Status != enums.OrderItemStatusRefunded {
			allReturned = false
			break
		}
	}
	if allReturned {
		order.Status = enums.OrderStatusRefunded
	} else {
		order.Status = enums.OrderStatusRefundInProgress
	}
	return repo.SaveOrder(ctx, order)
}

func (s *service) requireActorSeller(order *models.Order, actor Actor) error {
	if actor.Role != enums.ActorRoleSeller {
		return nil
	}
	for _, item := range order.Items {
		if item.SellerID == actor.ID {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeForbidden, "seller has no items on this order")
}

func (s *service) requireActorAgent(order *models.Order, actor Actor) error {
	if actor.Role != enums.ActorRoleDeliveryAgent {
		return nil
	}
	if order.DeliveryAgentID == nil || *order.DeliveryAgentID != actor.ID {
		return apperrors.New(apperrors.CodeForbidden, "order is assigned to a different agent")
	}
	return nil
}

func findItem(order *models.Order, itemID *uuid.UUID) (*models.OrderItem, error) {
	if itemID == nil || *itemID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "item id is required")
	}
	for i := range order.Items {
		if order.Items[i].ID == *itemID {
			return &order.Items[i], nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "order item not found")
}

func actorIDPtr(actor Actor) *uuid.UUID {
	if actor.ID == uuid.Nil {
		return nil
	}
	id := actor.ID
	return &id
}

func notePtr(note string) *string {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetOrderBySlug(ctx context.Context, slug string) (*models.Order, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order slug is required")
	}
	order, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if customerID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", err
	}
	page, next := trimOrders(rows, params.Limit)
	return page, next, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if sellerID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "seller id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", err
	}
	page, next := trimOrders(rows, params.Limit)
	return page, next, nil
}

func trimOrders(rows []models.Order, limit int) ([]models.Order, string) {
	return pagination.TrimPage(rows, limit,
		func(o models.Order) time.Time { return o.CreatedAt },
		func(o models.Order) uuid.UUID { return o.ID })
}

// ExpirePlaced cancels placed orders the seller never accepted within the
// TTL. Each order is cancelled through the normal transition path so the
// timeline and refund postings stay consistent.
func (s *service) ExpirePlaced(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	ids, err := s.repo.ListPlacedBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs []error
	for _, id := range ids {
		_, err := s.Transition(ctx, TransitionInput{
			OrderID: id,
			Event:   enums.OrderEventCancel,
			Actor:   Actor{Role: enums.ActorRoleSystem},
			Reason:  "placed order expired without acceptance",
		})
		if err != nil {
			// Racing transitions are fine, the next sweep will re-check.
			if apperrors.HasCode(err, apperrors.CodeIllegalTransition) || apperrors.HasCode(err, apperrors.CodeNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		expired++
	}
	return expired, multierr.Combine(errs...)
}
