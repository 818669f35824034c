package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics counts the business operations of the stock and order core.
// A nil receiver is safe everywhere so tests can pass nil.
type CoreMetrics struct {
	stockMovements    *prometheus.CounterVec
	insufficientStock prometheus.Counter
	ordersPlaced      prometheus.Counter
	reviewsWritten    prometheus.Counter
}

// NewCoreMetrics registers the core counters on the provided registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Applied stock ledger movements by transaction type.",
	}, []string{"type"})
	insufficientStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_movements_rejected_total",
		Help: "Movements rejected because on-hand stock would go negative.",
	})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Successfully committed orders.",
	})
	reviewsWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_written_total",
		Help: "Review create/edit/delete operations applied.",
	})
	reg.MustRegister(stockMovements, insufficientStock, ordersPlaced, reviewsWritten)
	return &CoreMetrics{
		stockMovements:    stockMovements,
		insufficientStock: insufficientStock,
		ordersPlaced:      ordersPlaced,
		reviewsWritten:    reviewsWritten,
	}
}

// IncStockMovement records an applied movement of the given type.
func (m *CoreMetrics) IncStockMovement(transactionType string) {
	if m == nil || m.stockMovements == nil {
		return
	}
	m.stockMovements.WithLabelValues(transactionType).Inc()
}

// IncInsufficientStock records a rejected movement.
func (m *CoreMetrics) IncInsufficientStock() {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.Inc()
}

// IncOrderPlaced records a committed order.
func (m *CoreMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncReviewWritten records a review mutation.
func (m *CoreMetrics) IncReviewWritten() {
	if m == nil || m.reviewsWritten == nil {
		return
	}
	m.reviewsWritten.Inc()
}
