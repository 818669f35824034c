package enums

import "fmt"

// PaymentStatus maps to the payment_status enum in Postgres.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusRefunded,
}

// IsValid reports whether the value matches the canonical payment status enum.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the payment machine permits moving to next.
// Refunds are only reachable from paid.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusUnpaid:
		return next == PaymentStatusPaid
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
