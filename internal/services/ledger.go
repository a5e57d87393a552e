package services

import (
	"fmt"

	"scadenze/internal/core"
)

// Payment mutations work on instance values and return the updated copy;
// a validation failure leaves the caller's instance untouched. Status is
// never written anywhere: it derives from the canonical fields through
// core.Instance.Status.

// MarkPaid records a payment on the instance.
func MarkPaid(inst core.Instance, amount core.Money, date core.Date) (core.Instance, error) {
	if err := amount.Validate(); err != nil {
		return inst, fmt.Errorf("payment amount: %w", err)
	}
	if err := date.Validate(); err != nil {
		return inst, fmt.Errorf("payment date: %w", err)
	}
	inst.Paid = &amount
	inst.PaymentDate = &date
	return inst, nil
}

// MarkUnpaid clears a recorded payment. The derived status falls back to
// overdue or pending depending on the due date.
func MarkUnpaid(inst core.Instance) core.Instance {
	inst.Paid = nil
	inst.PaymentDate = nil
	return inst
}

// Annotate replaces the free-form notes on the instance.
func Annotate(inst core.Instance, notes string) core.Instance {
	inst.Notes = notes
	return inst
}
