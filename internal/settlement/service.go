package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/internal/commission"
	"github.com/nearcart/nearcart-backend/internal/ledger"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/money"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type policyResolver interface {
	ResolveTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error)
}

type ledgerPoster interface {
	PostIdempotent(ctx context.Context, tx *gorm.DB, input ledger.PostEntryInput) (*models.LedgerEntry, bool, error)
}

// Service turns revenue-final order transitions into ledger postings.
// Every posting carries a correlation id derived from the trigger, so a
// replayed trigger finds its entries already posted and changes nothing.
type Service struct {
	repo     Repository
	ledger   ledgerPoster
	policies policyResolver
	events   outboxEmitter
}

// NewService wires the settlement processor.
func NewService(repo Repository, ledgerSvc ledgerPoster, policies policyResolver, events outboxEmitter) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("settlement ledger service required")
	}
	if policies == nil {
		return nil, fmt.Errorf("settlement policy resolver required")
	}
	if events == nil {
		return nil, fmt.Errorf("settlement outbox emitter required")
	}
	return &Service{repo: repo, ledger: ledgerSvc, policies: policies, events: events}, nil
}

func deliverCorrelation(itemID uuid.UUID, leg string) string {
	return fmt.Sprintf("deliver:%s:%s", itemID, leg)
}

func returnCorrelation(itemID uuid.UUID, leg string) string {
	return fmt.Sprintf("return:%s:%s", itemID, leg)
}

// OnDelivered settles every unsettled delivered item: resolve the policy
// in force at delivery time, split the commissionable amount (the line
// subtotal less its tax portion), credit the seller and the platform, and
// credit the agent the order's delivery charge once across all items.
func (s *Service) OnDelivered(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	deliveredAt := time.Now().UTC()
	if order.DeliveredAt != nil {
		deliveredAt = *order.DeliveredAt
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.Status != enums.OrderItemStatusDelivered {
			continue
		}
		if item.CommissionSettled != enums.SettlementStatusUnsettled {
			continue
		}

		snapshot, err := s.policies.ResolveTx(ctx, tx, item.SellerID, item.CategoryID, deliveredAt)
		if err != nil {
			return err
		}
		// Tax is collected, not earned; it never enters the split.
		commissionable := item.Subtotal.Sub(item.TaxAmount)
		if commissionable.IsNegative() {
			commissionable = decimal.Zero
		}
		platformCut, sellerNet := commission.Compute(commissionable, *snapshot)

		if money.IsPositive(sellerNet) {
			if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
				Party:         types.SellerParty(item.SellerID),
				Direction:     enums.LedgerDirectionCredit,
				Amount:        sellerNet,
				Currency:      order.Currency,
				Reason:        enums.LedgerReasonSaleEarning,
				CorrelationID: deliverCorrelation(item.ID, "seller"),
				OrderID:       &order.ID,
				OrderItemID:   &item.ID,
			}); err != nil {
				return err
			}
		}
		if money.IsPositive(platformCut) {
			if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
				Party:         types.Platform(),
				Direction:     enums.LedgerDirectionCredit,
				Amount:        platformCut,
				Currency:      order.Currency,
				Reason:        enums.LedgerReasonPlatformCommission,
				CorrelationID: deliverCorrelation(item.ID, "platform"),
				OrderID:       &order.ID,
				OrderItemID:   &item.ID,
			}); err != nil {
				return err
			}
		}

		item.AdminCommissionAmount = platformCut
		item.SellerCommissionAmount = sellerNet
		item.CommissionSettled = enums.SettlementStatusSettled
		item.PolicySnapshot = snapshot
		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
	}

	// One delivery-fee credit per order, keyed on the order id so item
	// loops and replays cannot double-pay the agent.
	if order.DeliveryAgentID != nil && money.IsPositive(order.DeliveryCharge) {
		if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         types.DeliveryAgentParty(*order.DeliveryAgentID),
			Direction:     enums.LedgerDirectionCredit,
			Amount:        order.DeliveryCharge,
			Currency:      order.Currency,
			Reason:        enums.LedgerReasonDeliveryFee,
			CorrelationID: fmt.Sprintf("deliver-fee:%s", order.ID),
			OrderID:       &order.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// OnReturned reverses the item's settlement: the seller and platform give
// back what the delivery credited them, direction flipped, reason refund.
// The customer's money comes back through the payment gateway, signalled
// by a refund-instruction event rather than a ledger entry.
func (s *Service) OnReturned(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) error {
	if item.CommissionSettled != enums.SettlementStatusSettled {
		// Nothing was settled for the item, so there is nothing to reverse.
		if item.CommissionSettled == enums.SettlementStatusReversed {
			return nil
		}
		return s.emitRefundInstruction(ctx, tx, order, item)
	}

	if money.IsPositive(item.SellerCommissionAmount) {
		if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         types.SellerParty(item.SellerID),
			Direction:     enums.LedgerDirectionDebit,
			Amount:        item.SellerCommissionAmount,
			Currency:      order.Currency,
			Reason:        enums.LedgerReasonRefund,
			CorrelationID: returnCorrelation(item.ID, "seller"),
			OrderID:       &order.ID,
			OrderItemID:   &item.ID,
		}); err != nil {
			return err
		}
	}
	if money.IsPositive(item.AdminCommissionAmount) {
		if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         types.Platform(),
			Direction:     enums.LedgerDirectionDebit,
			Amount:        item.AdminCommissionAmount,
			Currency:      order.Currency,
			Reason:        enums.LedgerReasonRefund,
			CorrelationID: returnCorrelation(item.ID, "platform"),
			OrderID:       &order.ID,
			OrderItemID:   &item.ID,
		}); err != nil {
			return err
		}
	}

	item.CommissionSettled = enums.SettlementStatusReversed
	if err := s.repo.WithTx(tx).SaveItem(ctx, item); err != nil {
		return err
	}
	return s.emitRefundInstruction(ctx, tx, order, item)
}

func (s *Service) emitRefundInstruction(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) error {
	if order.PaymentStatus != enums.PaymentStatusCaptured &&
		order.PaymentStatus != enums.PaymentStatusPartiallyRefunded {
		return nil
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundInstruction,
		AggregateType: enums.AggregateOrderItem,
		AggregateID:   item.ID,
		Data: map[string]any{
			"order_id": order.ID,
			"item_id":  item.ID,
			"amount":   item.Subtotal,
			"currency": order.Currency,
		},
	})
}

// OnCancelled reverses any item that slipped through to settled before the
// cancellation, and refunds the customer when payment was captured.
func (s *Service) OnCancelled(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		if item.CommissionSettled != enums.SettlementStatusSettled {
			continue
		}
		if err := s.OnReturned(ctx, tx, order, item); err != nil {
			return err
		}
	}

	if order.PaymentStatus != enums.PaymentStatusCaptured {
		return nil
	}
	// FinalTotal is the tender after the wallet was drawn down, so the
	// wallet portion comes back through the same refund credit.
	refund := order.FinalTotal.Add(order.WalletApplied)
	if !money.IsPositive(refund) {
		return nil
	}
	if _, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
		Party:         types.CustomerParty(order.CustomerID),
		Direction:     enums.LedgerDirectionCredit,
		Amount:        refund,
		Currency:      order.Currency,
		Reason:        enums.LedgerReasonRefund,
		CorrelationID: fmt.Sprintf("cancel-refund:%s", order.ID),
		OrderID:       &order.ID,
	}); err != nil {
		if apperrors.HasCode(err, apperrors.CodeDuplicateCorrelation) {
			return nil
		}
		return err
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundInstruction,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: map[string]any{
			"order_id":        order.ID,
			"amount":          refund,
			"captured_amount": order.FinalTotal,
			"wallet_applied":  order.WalletApplied,
			"currency":        order.Currency,
		},
	})
}
