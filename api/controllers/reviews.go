package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/furnistore/furnistore-backend/api/middleware"
	"github.com/furnistore/furnistore-backend/api/responses"
	"github.com/furnistore/furnistore-backend/api/validators"
	internalreviews "github.com/furnistore/furnistore-backend/internal/reviews"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/logger"
)

type recordReviewRequest struct {
	ProductID uuid.UUID      `json:"product_id" validate:"required"`
	OrderID   *uuid.UUID     `json:"order_id,omitempty"`
	Star      float64        `json:"star" validate:"required"`
	Message   *string        `json:"message,omitempty"`
	Img       []string       `json:"img,omitempty"`
	Service   map[string]int `json:"service,omitempty"`
}

// RecordReview writes a review as the authenticated actor.
func RecordReview(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}

		var req recordReviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Record(r.Context(), internalreviews.RecordInput{
			ProductID: req.ProductID,
			UserID:    actorID,
			OrderID:   req.OrderID,
			Star:      req.Star,
			Message:   req.Message,
			Img:       req.Img,
			Service:   req.Service,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

type editReviewRequest struct {
	Star    *float64       `json:"star,omitempty"`
	Message *string        `json:"message,omitempty"`
	Img     []string       `json:"img,omitempty"`
	Service map[string]int `json:"service,omitempty"`
}

// EditReview updates the actor's own review.
func EditReview(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}
		reviewID, err := uuid.Parse(chi.URLParam(r, "reviewID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid review id"))
			return
		}

		var req editReviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Edit(r.Context(), internalreviews.EditInput{
			ReviewID: reviewID,
			ActorID:  actorID,
			Star:     req.Star,
			Message:  req.Message,
			Img:      req.Img,
			Service:  req.Service,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// DeleteReview removes the actor's own review.
func DeleteReview(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}
		reviewID, err := uuid.Parse(chi.URLParam(r, "reviewID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid review id"))
			return
		}

		if err := svc.Delete(r.Context(), reviewID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListProductReviews returns a product's reviews with allow-listed sorting.
func ListProductReviews(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		list, err := svc.ListByProduct(r.Context(), internalreviews.ListInput{
			ProductID:  productID,
			SortKey:    strings.TrimSpace(r.URL.Query().Get("sort")),
			Descending: strings.EqualFold(r.URL.Query().Get("order"), "desc"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
