package enums

import "fmt"

// PaymentStatus maps to the payment_status enum in Postgres. Payments are
// simulated, so every recorded transaction completes.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusCompleted,
}

// IsValid checks whether the given status matches the canonical enum.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw strings into PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
