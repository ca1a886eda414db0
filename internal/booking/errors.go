package booking

import "fmt"

// PaymentRecordedError marks the one failure mode that must never be
// swallowed: the payment collaborator captured money but the booking
// store refused the record. The reference is what the admin needs to
// find the charge and reconcile by hand.
type PaymentRecordedError struct {
	Reference string
	Err       error
}

func (e *PaymentRecordedError) Error() string {
	return fmt.Sprintf("payment %s was captured but the booking could not be recorded: %v", e.Reference, e.Err)
}

func (e *PaymentRecordedError) Unwrap() error {
	return e.Err
}
