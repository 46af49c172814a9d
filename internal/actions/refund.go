package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calyx-systems/deskagent/internal/notify"
	"github.com/calyx-systems/deskagent/internal/payment"
	"github.com/calyx-systems/deskagent/internal/store"
)

// currencySymbol picks the display symbol for customer-facing amounts.
func currencySymbol(currency string) string {
	if currency == "INR" {
		return "₹"
	}
	return "$"
}

func registerPaymentActions(r *Registry, deps Deps) {
	db := deps.Store
	proc := deps.Processor

	r.Register(Action{
		Name:        "check_payment_status",
		Description: "Check the status of a payment by payment intent id.",
		Params:      []string{"payment_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			intent, err := proc.Intent(ctx, args["payment_id"])
			if err != nil {
				var apiErr *payment.APIError
				if errors.As(err, &apiErr) {
					return fmt.Sprintf("Unable to look up payment %s: %s.", args["payment_id"], apiErr.Message), err
				}
				return "", err
			}
			sym := currencySymbol(intent.Currency)
			return fmt.Sprintf("Payment %s\n- Status: %s\n- Amount: %s%.2f %s\n- Refunded so far: %s%.2f",
				intent.ID, intent.Status,
				sym, float64(intent.Amount)/100, intent.Currency,
				sym, float64(intent.AmountRefunded)/100), nil
		},
	})

	r.Register(Action{
		Name:        "check_refund_eligibility",
		Description: "Check whether an order is eligible for a refund, without processing one.",
		Params:      []string{"order_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orderID := args["order_id"]

			o, err := db.Order(orderID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Order %s not found.", orderID), err
			}
			if err != nil {
				return "", err
			}

			if o.Status == store.StatusCancelled || o.Status == store.StatusRefunded {
				return fmt.Sprintf("Order %s is already %s. No refund needed.", orderID, o.Status), errors.New("order not refundable")
			}

			pay, err := db.LatestPayment(orderID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("No payment information found for order %s.", orderID), err
			}
			if err != nil {
				return "", err
			}

			intent, err := proc.Intent(ctx, pay.ProviderPaymentID)
			if err != nil {
				return fmt.Sprintf("Error checking payment status: %v.", err), err
			}
			if intent.Status != "succeeded" {
				return fmt.Sprintf("Payment status is %q. Only successful payments can be refunded.", intent.Status), errors.New("payment not refundable")
			}

			refundable := float64(intent.Refundable()) / 100
			if refundable <= 0 {
				return fmt.Sprintf("Order %s has already been fully refunded.", orderID), errors.New("already refunded")
			}

			sym := currencySymbol(intent.Currency)
			return fmt.Sprintf(`**Order %s is eligible for refund**

**Refundable Amount:** %s%.2f %s
**Order Status:** %s
**Payment Status:** %s

Would you like me to proceed with processing the refund?`,
				orderID, sym, refundable, intent.Currency, o.Status, intent.Status), nil
		},
	})

	r.Register(Action{
		Name:        "process_refund_for_order",
		Description: "Process a complete refund for an order: lookup, validation, processor refund, status update, customer notification. Use only after the customer confirms.",
		Params:      []string{"order_id", "customer_email", "reason"},
		Defaults:    map[string]string{"reason": payment.ReasonRequestedByCustomer},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			return processRefund(ctx, deps, args["order_id"], args["customer_email"], args["reason"])
		},
	})
}

// processRefund runs the full refund workflow. Each gate rejects with
// a customer-facing message; nothing past the processor call can
// silently double-refund because the final status update is a
// compare-and-set on the order row.
func processRefund(ctx context.Context, deps Deps, orderID, customerEmail, reason string) (string, error) {
	db := deps.Store

	o, err := db.Order(orderID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("I couldn't find order %s in our system. Could you please verify the order ID?", orderID), err
	}
	if err != nil {
		return "", err
	}

	if o.Status == store.StatusCancelled {
		return fmt.Sprintf("Order %s has already been cancelled. No further action needed.", orderID), errors.New("order cancelled")
	}
	if o.Status == store.StatusRefunded {
		return fmt.Sprintf("Order %s has already been refunded. No further action needed.", orderID), errors.New("order refunded")
	}

	pay, err := db.LatestPayment(orderID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("I couldn't find any payment information for order %s. Please contact our support team for assistance.", orderID), err
	}
	if err != nil {
		return "", err
	}

	if pay.Status != "succeeded" {
		return fmt.Sprintf("This payment cannot be refunded because its status is %q. Only successful payments can be refunded.", pay.Status), errors.New("payment not succeeded")
	}

	intent, err := deps.Processor.Intent(ctx, pay.ProviderPaymentID)
	if err != nil {
		return fmt.Sprintf("Unable to validate the payment with our payment provider: %v. Please contact our support team.", err), err
	}
	if intent.Status != "succeeded" {
		return fmt.Sprintf("This payment cannot be refunded because its status is %q. Only successful payments can be refunded.", intent.Status), errors.New("payment not succeeded")
	}
	if intent.Refundable() <= 0 {
		return fmt.Sprintf("Order %s has already been fully refunded.", orderID), errors.New("already refunded")
	}

	amount := float64(intent.Refundable()) / 100
	currency := intent.Currency
	sym := currencySymbol(currency)

	if limit, capped := deps.RefundLimits[currency]; capped && amount > limit {
		return refundOverLimit(ctx, deps, o, customerEmail, amount, limit, currency)
	}

	refund, err := deps.Processor.Refund(ctx, pay.ProviderPaymentID, reason)
	if err != nil {
		return fmt.Sprintf("The refund could not be processed: %v. Please contact our support team.", err), err
	}

	marked, err := db.MarkRefunded(orderID)
	if err != nil {
		return "", err
	}
	if !marked {
		// Another request closed the order between our status check
		// and the update.
		return fmt.Sprintf("Order %s has already been refunded. No further action needed.", orderID), errors.New("lost refund race")
	}

	customerName := db.CustomerNameForOrder(orderID)
	if customerEmail == "" {
		deps.Logger.Warn("no customer email for refund notification", "order_id", orderID)
	}

	deps.Notifier.Emit(ctx, notify.Event{
		Type:     notify.EventRefundProcessed,
		OrderID:  orderID,
		Email:    customerEmail,
		Amount:   intent.Refundable(),
		Currency: currency,
		Subject:  fmt.Sprintf("Refund Processing for Order %s", orderID),
		Body:     refundEmailBody(customerName, orderID, amount, currency),
	})

	emailConfirmation := ""
	if customerEmail != "" {
		emailConfirmation = fmt.Sprintf("\n\nA confirmation email has been sent to %s with all the refund details.", customerEmail)
	}

	return fmt.Sprintf(`**Refund Processed Successfully**

I've processed your refund for order %s. Here are the details:

**Order Details:**
- Order ID: %s
- Product: %s
- Amount Refunded: %s%.2f %s

**Refund Information:**
- Refund ID: %s
- Status: %s
- Payment Method: The refund will be credited to your original payment method

The refund will appear in your account within **5-7 business days**, depending on your bank or card issuer.%s

Is there anything else I can help you with?`,
		orderID, orderID, o.ProductName, sym, amount, currency,
		refund.ID, refund.Status, emailConfirmation), nil
}

// refundOverLimit handles refunds above the automated per-currency
// cap: a high-priority ticket for finance review plus a chat-ops
// alert, no processor call.
func refundOverLimit(ctx context.Context, deps Deps, o *store.Order, customerEmail string, amount, limit float64, currency string) (string, error) {
	sym := currencySymbol(currency)

	ticketID, err := deps.Store.CreateTicket(store.Ticket{
		SessionID:  fmt.Sprintf("SESSION_%s", time.Now().Format("20060102150405")),
		CustomerID: o.CustomerID,
		IssueType:  "high_value_refund",
		Description: fmt.Sprintf("Refund of %s%.2f %s for order %s exceeds the automated limit of %s%.2f. Finance review required.",
			sym, amount, currency, o.OrderID, sym, limit),
		Priority: store.PriorityHigh,
	})
	if err != nil {
		return "", fmt.Errorf("create high-value refund ticket: %w", err)
	}

	deps.Notifier.Emit(ctx, notify.Event{
		Type:     notify.EventHighValueRefund,
		OrderID:  o.OrderID,
		TicketID: ticketID,
		Email:    customerEmail,
		Amount:   int64(amount * 100),
		Currency: currency,
		Subject:  fmt.Sprintf("High-value refund requires review - Order %s", o.OrderID),
		Body: fmt.Sprintf("A refund of %s%.2f %s for order %s exceeds the automated limit of %s%.2f and needs finance approval. Ticket %s.",
			sym, amount, currency, o.OrderID, sym, limit, ticketID),
	})

	return fmt.Sprintf(`I understand you'd like to process a refund for order %s. However, the refund amount of %s%.2f exceeds our automated limit of %s%.2f.

I've created support ticket %s for this high-value refund, and our finance team will review it within 4 hours. You'll receive an email confirmation once the refund is approved and processed.

Is there anything else I can help you with?`,
		o.OrderID, sym, amount, sym, limit, ticketID), nil
}

// refundEmailBody is the markdown body of the refund confirmation
// email.
func refundEmailBody(customerName, orderID string, amount float64, currency string) string {
	return fmt.Sprintf(`Dear %s,

We are processing your refund request for order %s.

**Refund Details:**
- Order ID: %s
- Refund Amount: %s %.2f
- Processing Date: %s

The refund has been initiated and will be credited to your original payment method within 5-7 business days, though it may appear sooner depending on your bank's processing time.

If you have any questions or concerns, please don't hesitate to reach out to our support team.

Thank you for your patience and understanding.

Best regards,
Customer Support Team`,
		customerName, orderID, orderID, currency, amount,
		time.Now().Format("January 2, 2006"))
}
