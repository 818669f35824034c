package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furnistore/furnistore-backend/api/middleware"
	"github.com/furnistore/furnistore-backend/api/responses"
	"github.com/furnistore/furnistore-backend/api/validators"
	internalorders "github.com/furnistore/furnistore-backend/internal/orders"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/logger"
)

type orderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Img       *string         `json:"img,omitempty"`
	Color     *string         `json:"color,omitempty"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	FullName      string             `json:"full_name" validate:"required"`
	Phone         string             `json:"phone" validate:"required"`
	Country       string             `json:"country" validate:"required"`
	City          string             `json:"city" validate:"required"`
	Address       string             `json:"address" validate:"required"`
	Note          *string            `json:"note,omitempty"`
	PaymentMethod string             `json:"payment_method" validate:"required"`
	SubTotal      decimal.Decimal    `json:"sub_total"`
	VAT           decimal.Decimal    `json:"vat"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"`
	TotalOrder    decimal.Decimal    `json:"total_order"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder places an order for the authenticated actor.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.PlaceOrderInput{
			UserID:        actorID,
			FullName:      req.FullName,
			Phone:         req.Phone,
			Country:       req.Country,
			City:          req.City,
			Address:       req.Address,
			Note:          req.Note,
			PaymentMethod: req.PaymentMethod,
			SubTotal:      req.SubTotal,
			VAT:           req.VAT,
			DeliveryFee:   req.DeliveryFee,
			TotalOrder:    req.TotalOrder,
			ActorID:       &actorID,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalorders.PlaceOrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Img:       item.Img,
				Color:     item.Color,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order with its items.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListMyOrders returns the authenticated actor's orders.
func ListMyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}
		list, err := svc.ListByUser(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus advances the order's fulfillment state.
func UpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
			return
		}

		order, err := svc.UpdateOrderStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdatePaymentStatus advances the order's payment state.
func UpdatePaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status"))
			return
		}

		order, err := svc.UpdatePaymentStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
