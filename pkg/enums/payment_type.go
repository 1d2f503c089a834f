package enums

import "fmt"

// PaymentType is the classification assigned to a payment from the
// event's balance state at the time it is recorded.
type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "advance"
	PaymentTypePartial PaymentType = "partial"
	PaymentTypeFinal   PaymentType = "final"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeAdvance,
	PaymentTypePartial,
	PaymentTypeFinal,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
