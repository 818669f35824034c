package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/furnistore/furnistore-backend/api/responses"
	"github.com/furnistore/furnistore-backend/api/validators"
	internalsuppliers "github.com/furnistore/furnistore-backend/internal/suppliers"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/logger"
)

type supplierRequest struct {
	Name          string  `json:"name"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	TaxCode       *string `json:"tax_code,omitempty"`
	BankAccount   *string `json:"bank_account,omitempty"`
	BankName      *string `json:"bank_name,omitempty"`
	Note          *string `json:"note,omitempty"`
}

func (req supplierRequest) toInput() internalsuppliers.UpsertInput {
	return internalsuppliers.UpsertInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		TaxCode:       req.TaxCode,
		BankAccount:   req.BankAccount,
		BankName:      req.BankName,
		Note:          req.Note,
	}
}

// CreateSupplier registers a supplier.
func CreateSupplier(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req supplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

// GetSupplier returns one supplier.
func GetSupplier(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := uuid.Parse(chi.URLParam(r, "supplierID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
			return
		}
		supplier, err := svc.Get(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// ListSuppliers returns suppliers ordered by name.
func ListSuppliers(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := validators.SanitizeString(r.URL.Query().Get("search"), 100)
		list, err := svc.List(r.Context(), search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateSupplier patches supplier fields.
func UpdateSupplier(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := uuid.Parse(chi.URLParam(r, "supplierID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
			return
		}
		var req supplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.Update(r.Context(), supplierID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// DeleteSupplier removes a supplier.
func DeleteSupplier(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := uuid.Parse(chi.URLParam(r, "supplierID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
			return
		}
		if err := svc.Delete(r.Context(), supplierID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
