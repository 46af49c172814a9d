package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calyx-systems/deskagent/internal/notify"
	"github.com/calyx-systems/deskagent/internal/store"
)

// replacementReasons maps reason codes to the wording used in tickets
// and confirmations. Unknown codes pass through as given.
var replacementReasons = map[string]string{
	"defective_product": "Defective Product",
	"wrong_item":        "Wrong Item Received",
	"damaged_delivery":  "Damaged During Delivery",
	"quality_issue":     "Quality Issue",
}

func registerTicketActions(r *Registry, deps Deps) {
	db := deps.Store

	r.Register(Action{
		Name:        "create_support_ticket",
		Description: "Create a support ticket for issues that need human attention.",
		Params:      []string{"issue_description", "order_id", "customer_email", "priority"},
		Defaults:    map[string]string{"priority": store.PriorityMedium},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			ticketID, err := db.CreateTicket(store.Ticket{
				SessionID:   fmt.Sprintf("SESSION_%s", time.Now().Format("20060102150405")),
				IssueType:   "complex_query",
				Description: args["issue_description"],
				Priority:    args["priority"],
			})
			if err != nil {
				return "", fmt.Errorf("create ticket: %w", err)
			}

			orderID := args["order_id"]
			email := args["customer_email"]

			deps.Notifier.Emit(ctx, notify.Event{
				Type:     notify.EventTicketCreated,
				OrderID:  orderID,
				TicketID: ticketID,
				Email:    email,
				Subject:  fmt.Sprintf("Support Ticket Created - %s", ticketID),
				Body:     ticketEmailBody("Customer", ticketID, orderID),
			})

			emailConfirmation := ""
			if email != "" {
				emailConfirmation = fmt.Sprintf("\n\nA confirmation email has been sent to %s with your ticket details.", email)
			}

			return fmt.Sprintf(`**Support Ticket Created**

**Ticket ID:** %s
**Priority:** %s
**Status:** Open

A human support representative will review your case and contact you shortly. You can reference this ticket ID for any follow-ups.

**Expected Response Time:**
- Urgent: Within 1 hour
- High: Within 4 hours
- Medium: Within 24 hours
- Low: Within 48 hours%s

Is there anything else I can help you with in the meantime?`,
				ticketID, args["priority"], emailConfirmation), nil
		},
	})

	r.Register(Action{
		Name:        "check_ticket_status",
		Description: "Check the status of a support ticket by ticket id.",
		Params:      []string{"ticket_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			t, err := db.Ticket(args["ticket_id"])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Ticket %s not found in the system.", args["ticket_id"]), err
			}
			if err != nil {
				return "", err
			}

			text := fmt.Sprintf(`**Ticket Status for %s**

**Status:** %s
**Priority:** %s
**Issue Type:** %s
**Created:** %s
`,
				t.TicketID, t.Status, t.Priority, t.IssueType, t.CreatedAt.Format("2006-01-02 15:04"))

			if t.AssignedTo != "" {
				text += fmt.Sprintf("**Assigned To:** %s\n", t.AssignedTo)
			}
			if t.ResolvedAt != nil {
				text += fmt.Sprintf("**Resolved:** %s\n", t.ResolvedAt.Format("2006-01-02 15:04"))
			}

			if t.Status == store.TicketOpen {
				text += "\nYour ticket is being processed. A support agent will contact you soon."
			} else {
				text += "\nThis ticket has been resolved."
			}
			return text, nil
		},
	})

	r.Register(Action{
		Name:        "request_product_replacement",
		Description: "Request a replacement for a shipped or delivered order. Reasons: defective_product, wrong_item, damaged_delivery, quality_issue.",
		Params:      []string{"order_id", "customer_email", "reason"},
		Defaults:    map[string]string{"reason": "defective_product"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			return requestReplacement(ctx, deps, args["order_id"], args["customer_email"], args["reason"])
		},
	})
}

func requestReplacement(ctx context.Context, deps Deps, orderID, customerEmail, reason string) (string, error) {
	db := deps.Store

	o, err := db.Order(orderID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Order %s not found. Please check the order number and try again.", orderID), err
	}
	if err != nil {
		return "", err
	}

	if o.Status != store.StatusShipped && o.Status != store.StatusDelivered {
		return fmt.Sprintf("Order %s is not eligible for replacement. Current status: %s. Only delivered orders can be replaced.",
			orderID, o.Status), errors.New("order not replaceable")
	}

	reasonDescription := reason
	if desc, ok := replacementReasons[reason]; ok {
		reasonDescription = desc
	}

	description := fmt.Sprintf(`**Replacement Request**

Product: %s
Order Amount: %.2f
Reason: %s

Customer has requested a replacement for order %s. Please verify the issue and arrange for:
1. Return/pickup of defective item (if applicable)
2. Shipment of replacement product
3. Customer communication regarding timeline`,
		o.ProductName, o.Amount, reasonDescription, orderID)

	ticketID, err := db.CreateTicket(store.Ticket{
		SessionID:   fmt.Sprintf("replacement_%s", time.Now().Format("20060102150405")),
		CustomerID:  o.CustomerID,
		IssueType:   "product_replacement",
		Description: description,
		Priority:    store.PriorityHigh,
	})
	if err != nil {
		return "", fmt.Errorf("create replacement ticket: %w", err)
	}

	deps.Notifier.Emit(ctx, notify.Event{
		Type:     notify.EventReplacementRequested,
		OrderID:  orderID,
		TicketID: ticketID,
		Email:    customerEmail,
		Subject:  fmt.Sprintf("Support Ticket Created - %s", ticketID),
		Body:     ticketEmailBody(db.CustomerNameForOrder(orderID), ticketID, orderID),
	})

	return fmt.Sprintf(`**Replacement Request Submitted**

**Ticket ID:** %s
**Order ID:** %s
**Product:** %s
**Reason:** %s

Your replacement request has been submitted to our support team. They will:
1. Review your case within 4 hours
2. Arrange pickup of the defective item (if needed)
3. Ship the replacement product
4. Send you tracking details via email

Is there anything else I can help you with?`,
		ticketID, orderID, o.ProductName, reasonDescription), nil
}

// ticketEmailBody is the markdown body of the ticket confirmation
// email.
func ticketEmailBody(customerName, ticketID, orderID string) string {
	if orderID == "" {
		orderID = "N/A"
	}
	return fmt.Sprintf(`Dear %s,

Your support request has been received and a ticket has been created.

**Ticket Details:**
- Ticket ID: %s
- Order ID: %s
- Created: %s

A human support representative will review your request and contact you within 4 hours.

You can reference ticket ID %s for any follow-up inquiries.

Thank you for your patience.

Best regards,
Customer Support Team`,
		customerName, ticketID, orderID,
		time.Now().Format("January 2, 2006 at 3:04 PM"), ticketID)
}
