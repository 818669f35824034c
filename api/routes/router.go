package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furnistore/furnistore-backend/api/controllers"
	"github.com/furnistore/furnistore-backend/api/middleware"
	"github.com/furnistore/furnistore-backend/internal/inventory"
	"github.com/furnistore/furnistore-backend/internal/orders"
	"github.com/furnistore/furnistore-backend/internal/reports"
	"github.com/furnistore/furnistore-backend/internal/reviews"
	"github.com/furnistore/furnistore-backend/internal/suppliers"
	"github.com/furnistore/furnistore-backend/pkg/config"
	"github.com/furnistore/furnistore-backend/pkg/db"
	"github.com/furnistore/furnistore-backend/pkg/logger"
	"github.com/furnistore/furnistore-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Inventory inventory.Service
	Orders    orders.Service
	Reviews   reviews.Service
	Reports   reports.Service
	Suppliers suppliers.Service
}

// NewRouter wires middleware and routes.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		var redisPinger redis.Pinger
		if deps.Redis != nil {
			redisPinger = deps.Redis
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventory(deps.Inventory, logg))
			r.Post("/movements", controllers.ApplyMovement(deps.Inventory, logg))
			r.Get("/transactions", controllers.InventoryHistory(deps.Inventory, logg))
			r.Get("/{productID}", controllers.GetInventory(deps.Inventory, logg))
			r.Patch("/{productID}/settings", controllers.UpdateInventorySettings(deps.Inventory, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Patch("/{orderID}/payment", controllers.UpdatePaymentStatus(deps.Orders, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.RecordReview(deps.Reviews, logg))
			r.Patch("/{reviewID}", controllers.EditReview(deps.Reviews, logg))
			r.Delete("/{reviewID}", controllers.DeleteReview(deps.Reviews, logg))
		})
		r.Get("/products/{productID}/reviews", controllers.ListProductReviews(deps.Reviews, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", controllers.RevenueReport(deps.Reports, logg))
			r.Get("/orders", controllers.OrdersReport(deps.Reports, logg))
			r.Get("/orders/{orderID}", controllers.OrderDetailReport(deps.Reports, logg))
			r.Get("/top-products", controllers.TopProductsReport(deps.Reports, logg))
			r.Get("/low-stock", controllers.LowStockReport(deps.Reports, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplier(deps.Suppliers, logg))
			r.Get("/", controllers.ListSuppliers(deps.Suppliers, logg))
			r.Get("/{supplierID}", controllers.GetSupplier(deps.Suppliers, logg))
			r.Patch("/{supplierID}", controllers.UpdateSupplier(deps.Suppliers, logg))
			r.Delete("/{supplierID}", controllers.DeleteSupplier(deps.Suppliers, logg))
		})
	})

	return r
}
