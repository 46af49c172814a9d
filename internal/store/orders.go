package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Order status values. The shipping lifecycle is a one-way progression
// pending → processing → shipped → delivered; cancelled and refunded
// are absorbing states reachable from any non-terminal status under
// action-specific preconditions.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when an order status change would
// move backwards or out of an absorbing state.
var ErrInvalidTransition = errors.New("invalid status transition")

// statusRank orders the shipping lifecycle for the progression guard.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Terminal reports whether status is an absorbing state.
func Terminal(status string) bool {
	return status == StatusCancelled || status == StatusRefunded
}

// Order fetches an order by its public identifier.
func (s *Store) Order(orderID string) (*Order, error) {
	row := s.db.QueryRow(`
		SELECT order_id, COALESCE(customer_id, ''), COALESCE(product_name, ''),
		       COALESCE(status, ''), COALESCE(amount, 0), order_date
		FROM orders
		WHERE order_id = ?
	`, orderID)

	var o Order
	err := row.Scan(&o.OrderID, &o.CustomerID, &o.ProductName, &o.Status, &o.Amount, &o.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return &o, nil
}

// OrdersByCustomer returns all orders for a customer, newest first.
func (s *Store) OrdersByCustomer(customerID string) ([]Order, error) {
	rows, err := s.db.Query(`
		SELECT order_id, COALESCE(customer_id, ''), COALESCE(product_name, ''),
		       COALESCE(status, ''), COALESCE(amount, 0), order_date
		FROM orders
		WHERE customer_id = ?
		ORDER BY order_date DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("search orders for %s: %w", customerID, err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &o.ProductName, &o.Status, &o.Amount, &o.OrderDate); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order along the shipping lifecycle. Moves
// backwards, out of an absorbing state, or into an absorbing state
// (use CancelOrder / MarkRefunded for those) are rejected.
func (s *Store) UpdateOrderStatus(orderID, newStatus string) error {
	newRank, ok := statusRank[newStatus]
	if !ok {
		return fmt.Errorf("status %q: %w", newStatus, ErrInvalidTransition)
	}

	o, err := s.Order(orderID)
	if err != nil {
		return err
	}
	if Terminal(o.Status) {
		return fmt.Errorf("order %s is %s: %w", orderID, o.Status, ErrInvalidTransition)
	}
	if curRank, ok := statusRank[o.Status]; ok && newRank < curRank {
		return fmt.Errorf("order %s: %s → %s: %w", orderID, o.Status, newStatus, ErrInvalidTransition)
	}

	// Re-check the precondition inside the write so a concurrent
	// transition cannot resurrect a terminal order.
	res, err := s.db.Exec(`
		UPDATE orders SET status = ?
		WHERE order_id = ? AND status NOT IN (?, ?)
	`, newStatus, orderID, StatusCancelled, StatusRefunded)
	if err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrInvalidTransition)
	}
	return nil
}

// CancelOrder cancels an order. Only pending or processing orders can
// be cancelled.
func (s *Store) CancelOrder(orderID string) error {
	res, err := s.db.Exec(`
		UPDATE orders SET status = ?
		WHERE order_id = ? AND status IN (?, ?)
	`, StatusCancelled, orderID, StatusPending, StatusProcessing)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		o, lookupErr := s.Order(orderID)
		if lookupErr != nil {
			return lookupErr
		}
		return fmt.Errorf("order %s is %s: %w", orderID, o.Status, ErrInvalidTransition)
	}
	return nil
}

// MarkRefunded transitions an order to refunded. The write is guarded
// by the current status so that under concurrent refund requests for
// the same order, at most one caller observes success; the loser gets
// false back and must treat the refund as already done.
func (s *Store) MarkRefunded(orderID string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE orders SET status = ?
		WHERE order_id = ? AND status NOT IN (?, ?)
	`, StatusRefunded, orderID, StatusCancelled, StatusRefunded)
	if err != nil {
		return false, fmt.Errorf("mark refunded %s: %w", orderID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Customer fetches a customer by its public identifier.
func (s *Store) Customer(customerID string) (*Customer, error) {
	row := s.db.QueryRow(`
		SELECT customer_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers
		WHERE customer_id = ?
	`, customerID)

	var c Customer
	err := row.Scan(&c.CustomerID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch customer %s: %w", customerID, err)
	}
	return &c, nil
}

// CustomerEmailForOrder returns the e-mail address of the customer who
// placed the order, or ErrNotFound if the order has no customer record
// or the customer has no address on file.
func (s *Store) CustomerEmailForOrder(orderID string) (string, error) {
	row := s.db.QueryRow(`
		SELECT COALESCE(c.email, '')
		FROM orders o
		LEFT JOIN customers c ON o.customer_id = c.customer_id
		WHERE o.order_id = ?
	`, orderID)

	var email string
	err := row.Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("customer email for %s: %w", orderID, err)
	}
	if email == "" {
		return "", fmt.Errorf("no email on file for %s: %w", orderID, ErrNotFound)
	}
	return email, nil
}

// CustomerNameForOrder returns the customer name for an order, falling
// back to "Customer" when no record exists.
func (s *Store) CustomerNameForOrder(orderID string) string {
	row := s.db.QueryRow(`
		SELECT COALESCE(c.name, '')
		FROM orders o
		JOIN customers c ON o.customer_id = c.customer_id
		WHERE o.order_id = ?
	`, orderID)

	var name string
	if err := row.Scan(&name); err != nil || name == "" {
		return "Customer"
	}
	return name
}

// LatestPayment returns the most recent payment for an order.
func (s *Store) LatestPayment(orderID string) (*Payment, error) {
	row := s.db.QueryRow(`
		SELECT COALESCE(order_id, ''), provider_payment_id, COALESCE(amount, 0),
		       COALESCE(status, ''), created_at
		FROM payments
		WHERE order_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	var p Payment
	err := row.Scan(&p.OrderID, &p.ProviderPaymentID, &p.Amount, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment for %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch payment for %s: %w", orderID, err)
	}
	return &p, nil
}

// LatestTracking returns the most recent tracking snapshot for an order.
func (s *Store) LatestTracking(orderID string) (*Tracking, error) {
	row := s.db.QueryRow(`
		SELECT order_id, COALESCE(tracking_number, ''), COALESCE(carrier, ''),
		       COALESCE(status, ''), COALESCE(location, ''),
		       COALESCE(estimated_delivery, ''), updated_at
		FROM order_tracking
		WHERE order_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, orderID)

	var tr Tracking
	err := row.Scan(&tr.OrderID, &tr.TrackingNumber, &tr.Carrier, &tr.Status,
		&tr.Location, &tr.EstimatedDelivery, &tr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tracking for %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tracking for %s: %w", orderID, err)
	}
	return &tr, nil
}

// InsertCustomer adds a customer record (used by seeding and tests).
func (s *Store) InsertCustomer(c Customer) error {
	_, err := s.db.Exec(`
		INSERT INTO customers (customer_id, name, email, phone)
		VALUES (?, ?, ?, ?)
	`, c.CustomerID, c.Name, c.Email, c.Phone)
	if err != nil {
		return fmt.Errorf("insert customer %s: %w", c.CustomerID, err)
	}
	return nil
}

// InsertOrder adds an order record (used by seeding and tests).
func (s *Store) InsertOrder(o Order) error {
	_, err := s.db.Exec(`
		INSERT INTO orders (order_id, customer_id, product_name, status, amount)
		VALUES (?, ?, ?, ?, ?)
	`, o.OrderID, o.CustomerID, o.ProductName, o.Status, o.Amount)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.OrderID, err)
	}
	return nil
}

// InsertPayment adds a payment record (used by seeding and tests).
func (s *Store) InsertPayment(p Payment) error {
	_, err := s.db.Exec(`
		INSERT INTO payments (order_id, provider_payment_id, amount, status)
		VALUES (?, ?, ?, ?)
	`, p.OrderID, p.ProviderPaymentID, p.Amount, p.Status)
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", p.ProviderPaymentID, err)
	}
	return nil
}

// InsertTracking adds a tracking snapshot (used by seeding and tests).
func (s *Store) InsertTracking(tr Tracking) error {
	_, err := s.db.Exec(`
		INSERT INTO order_tracking (order_id, tracking_number, carrier, status, location, estimated_delivery)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tr.OrderID, tr.TrackingNumber, tr.Carrier, tr.Status, tr.Location, tr.EstimatedDelivery)
	if err != nil {
		return fmt.Errorf("insert tracking for %s: %w", tr.OrderID, err)
	}
	return nil
}
