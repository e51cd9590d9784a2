package checkout

import (
	"errors"
	"fmt"

	"bookpasal/pkg/domain"
)

// ValidationError is raised before any network mutation: missing shipping
// fields or an empty cart. Surfaced inline, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a pre-flight validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalPaymentError is a widget- or gateway-reported failure. The order
// already exists server-side and is left in its created state for admin
// reconciliation; the client does not try to cancel it.
type ExternalPaymentError struct {
	Method domain.PaymentMethod
	Err    error
}

func (e *ExternalPaymentError) Error() string {
	return fmt.Sprintf("%s payment failed: %v", e.Method, e.Err)
}

func (e *ExternalPaymentError) Unwrap() error {
	return e.Err
}
