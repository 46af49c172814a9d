// Package payment wraps the payment processor behind a narrow
// contract: look up a payment intent, create a refund. Amounts are in
// minor units (cents, paise) as the processor reports them.
package payment

import (
	"context"
	"fmt"
)

// Intent is a payment intent as the processor sees it.
type Intent struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
}

// Refundable returns the remaining refundable amount in minor units.
func (i *Intent) Refundable() int64 {
	return i.Amount - i.AmountRefunded
}

// Refund is the processor's record of a refund.
type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Valid refund reasons accepted by the processor.
const (
	ReasonRequestedByCustomer = "requested_by_customer"
	ReasonDuplicate           = "duplicate"
	ReasonFraudulent          = "fraudulent"
)

// Processor is the payment-processor contract.
type Processor interface {
	// Intent retrieves a payment intent by id.
	Intent(ctx context.Context, id string) (*Intent, error)

	// Refund refunds the remaining amount of a payment intent.
	Refund(ctx context.Context, intentID, reason string) (*Refund, error)
}

// APIError is a structured error returned by the processor API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("payment API error %d (%s): %s", e.StatusCode, e.Type, e.Message)
}
