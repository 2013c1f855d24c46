package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/api/responses"
	"github.com/nearcart/nearcart-backend/api/validators"
	"github.com/nearcart/nearcart-backend/internal/authz"
	internalorders "github.com/nearcart/nearcart-backend/internal/orders"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	pkgerrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/logger"
	"github.com/nearcart/nearcart-backend/pkg/metrics"
)

type placeOrderItemRequest struct {
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	SellerID     string  `json:"seller_id" validate:"required,uuid"`
	StoreID      string  `json:"store_id" validate:"required,uuid"`
	CategoryID   *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Title        string  `json:"title" validate:"required"`
	SKU          string  `json:"sku"`
	Qty          int     `json:"qty" validate:"required,min=1"`
	UnitPrice    string  `json:"unit_price" validate:"required"`
	LineDiscount string  `json:"line_discount"`
	TaxAmount    string  `json:"tax_amount"`
	Returnable   bool    `json:"returnable"`
}

type placeOrderRequest struct {
	Slug             string                  `json:"slug"`
	Currency         string                  `json:"currency" validate:"required"`
	FulfillmentType  string                  `json:"fulfillment_type"`
	PaymentStatus    string                  `json:"payment_status" validate:"required"`
	DeliveryCharge   string                  `json:"delivery_charge"`
	PromoDiscount    string                  `json:"promo_discount"`
	GiftCardDiscount string                  `json:"gift_card_discount"`
	WalletApplied    string                  `json:"wallet_applied"`
	DeliveryZone     string                  `json:"delivery_zone"`
	Items            []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder registers a tenderised order and returns it in `placed`.
func PlaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildPlaceInput(customerID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func buildPlaceInput(customerID uuid.UUID, req placeOrderRequest) (*internalorders.PlaceOrderInput, error) {
	currency, err := enums.ParseCurrency(req.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	paymentStatus, err := enums.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
	}
	fulfillment := enums.FulfillmentTypeDelivery
	if req.FulfillmentType != "" {
		fulfillment, err = enums.ParseFulfillmentType(req.FulfillmentType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment type")
		}
	}

	deliveryCharge, err := parseAmount(req.DeliveryCharge, "delivery_charge")
	if err != nil {
		return nil, err
	}
	promoDiscount, err := parseAmount(req.PromoDiscount, "promo_discount")
	if err != nil {
		return nil, err
	}
	giftCardDiscount, err := parseAmount(req.GiftCardDiscount, "gift_card_discount")
	if err != nil {
		return nil, err
	}
	walletApplied, err := parseAmount(req.WalletApplied, "wallet_applied")
	if err != nil {
		return nil, err
	}

	items := make([]internalorders.PlaceOrderItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := parsePathUUID(line.ProductID, "product_id")
		if err != nil {
			return nil, err
		}
		sellerID, err := parsePathUUID(line.SellerID, "seller_id")
		if err != nil {
			return nil, err
		}
		storeID, err := parsePathUUID(line.StoreID, "store_id")
		if err != nil {
			return nil, err
		}
		categoryID, err := optionalUUID(line.CategoryID, "category_id")
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseAmount(line.UnitPrice, "unit_price")
		if err != nil {
			return nil, err
		}
		lineDiscount, err := parseAmount(line.LineDiscount, "line_discount")
		if err != nil {
			return nil, err
		}
		taxAmount, err := parseAmount(line.TaxAmount, "tax_amount")
		if err != nil {
			return nil, err
		}
		items = append(items, internalorders.PlaceOrderItemInput{
			ProductID:    productID,
			SellerID:     sellerID,
			StoreID:      storeID,
			CategoryID:   categoryID,
			Title:        line.Title,
			SKU:          line.SKU,
			Qty:          line.Qty,
			UnitPrice:    unitPrice,
			LineDiscount: lineDiscount,
			TaxAmount:    taxAmount,
			Returnable:   line.Returnable,
		})
	}

	return &internalorders.PlaceOrderInput{
		Slug:             req.Slug,
		CustomerID:       customerID,
		Currency:         currency,
		FulfillmentType:  fulfillment,
		PaymentStatus:    paymentStatus,
		DeliveryCharge:   deliveryCharge,
		PromoDiscount:    promoDiscount,
		GiftCardDiscount: giftCardDiscount,
		WalletApplied:    walletApplied,
		DeliveryZone:     req.DeliveryZone,
		Items:            items,
	}, nil
}

type transitionRequest struct {
	Event     string  `json:"event" validate:"required"`
	AgentID   *string `json:"agent_id,omitempty" validate:"omitempty,uuid"`
	AgentZone string  `json:"agent_zone"`
	ItemID    *string `json:"item_id,omitempty" validate:"omitempty,uuid"`
	Reason    string  `json:"reason"`
}

// transitionAction maps a lifecycle event onto the permission matrix. Cancel
// and return have their own grants so customers can fire them without
// holding the blanket transition permission.
func transitionAction(event enums.OrderEvent) string {
	switch event {
	case enums.OrderEventCancel:
		return authz.ActionCancel
	case enums.OrderEventRequestReturn:
		return authz.ActionReturn
	default:
		return authz.ActionTransition
	}
}

// TransitionOrder fires one state machine event against an order. The
// permission check happens here rather than on the route because the
// required grant depends on the event in the body.
func TransitionOrder(svc internalorders.Service, matrix authz.Service, engineMetrics *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := enums.ParseOrderEvent(req.Event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order event"))
			return
		}

		role := actorRole(r)
		allowed, err := matrix.Allowed(r.Context(), role, authz.ResourceOrders, transitionAction(event))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check permission"))
			return
		}
		if !allowed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
			return
		}

		agentID, err := optionalUUID(req.AgentID, "agent_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := optionalUUID(req.ItemID, "item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID:   orderID,
			Event:     event,
			Actor:     internalorders.Actor{Role: role, ID: id},
			AgentID:   agentID,
			AgentZone: req.AgentZone,
			ItemID:    itemID,
			Reason:    req.Reason,
		})
		if err != nil {
			engineMetrics.IncTransition(string(event), "error")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engineMetrics.IncTransition(string(event), "ok")
		responses.WriteSuccess(w, order)
	}
}

// requireOrderAccess restricts reads to the parties on the order. Admins
// and the system role see everything.
func requireOrderAccess(r *http.Request, order *models.Order) error {
	role := actorRole(r)
	if role == enums.ActorRoleAdmin || role == enums.ActorRoleSystem {
		return nil
	}
	id, err := actorID(r)
	if err != nil {
		return err
	}
	switch role {
	case enums.ActorRoleCustomer:
		if order.CustomerID == id {
			return nil
		}
	case enums.ActorRoleSeller:
		for _, item := range order.Items {
			if item.SellerID == id {
				return nil
			}
		}
	case enums.ActorRoleDeliveryAgent:
		if order.DeliveryAgentID != nil && *order.DeliveryAgentID == id {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
}

// GetOrder returns one order by id, restricted to parties on the order.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireOrderAccess(r, order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// GetOrderBySlug resolves the human-facing order reference.
func GetOrderBySlug(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		order, err := svc.GetOrderBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireOrderAccess(r, order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListMyOrders pages the caller's orders: customers see what they bought,
// sellers what they sold.
func ListMyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch actorRole(r) {
		case enums.ActorRoleCustomer:
			rows, next, err := svc.ListByCustomer(r.Context(), id, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, pageEnvelope{Items: rows, NextCursor: next})
		case enums.ActorRoleSeller:
			rows, next, err := svc.ListBySeller(r.Context(), id, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, pageEnvelope{Items: rows, NextCursor: next})
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role has no order listing"))
		}
	}
}
