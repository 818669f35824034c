package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/furnistore/furnistore-backend/api/responses"
	"github.com/furnistore/furnistore-backend/api/validators"
	internalreports "github.com/furnistore/furnistore-backend/internal/reports"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/logger"
)

func reportWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, err := validators.ParseQueryDate(r, "from", now.AddDate(0, -1, 0))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryDate(r, "to", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// RevenueReport buckets revenue by day, month, or year.
func RevenueReport(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = string(enums.ReportPeriodDaily)
		}
		parsed, err := enums.ParseReportPeriod(period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid report period"))
			return
		}

		from, to, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Revenue(r.Context(), internalreports.RevenueInput{
			Period: parsed,
			From:   from,
			To:     to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// OrderDetailReport flattens one order for export.
func OrderDetailReport(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}
		detail, err := svc.OrderDetail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrdersReport flattens every order in the window.
func OrdersReport(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListOrders(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// TopProductsReport ranks products by units sold in the window.
func TopProductsReport(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, err := reportWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.TopProducts(r.Context(), limit, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LowStockReport lists inventory rows needing replenishment, worst-first.
func LowStockReport(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.LowStockAlerts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alerts)
	}
}
