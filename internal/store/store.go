// Package store provides the SQLite-backed persistent store for
// customers, orders, payments, support tickets, shipment tracking,
// and conversation history.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Customers
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT UNIQUE NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Orders
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT UNIQUE NOT NULL,
		customer_id TEXT,
		product_name TEXT,
		status TEXT,
		amount REAL,
		order_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (customer_id) REFERENCES customers (customer_id)
	);

	-- Payments
	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT,
		provider_payment_id TEXT UNIQUE NOT NULL,
		amount REAL,
		status TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders (order_id)
	);

	-- Conversation history
	CREATE TABLE IF NOT EXISTS conversation_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_session ON conversation_history(session_id, timestamp);

	-- Support tickets
	CREATE TABLE IF NOT EXISTS support_tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT UNIQUE NOT NULL,
		session_id TEXT,
		customer_id TEXT,
		issue_type TEXT,
		description TEXT,
		priority TEXT DEFAULT 'medium',
		status TEXT DEFAULT 'open',
		confidence_score REAL,
		assigned_to TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON support_tickets(status, created_at);

	-- Shipment tracking
	CREATE TABLE IF NOT EXISTS order_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		tracking_number TEXT,
		carrier TEXT,
		status TEXT,
		location TEXT,
		estimated_delivery TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders (order_id)
	);
	CREATE INDEX IF NOT EXISTS idx_tracking_order ON order_tracking(order_id, updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Customer is a customer record.
type Customer struct {
	CustomerID string
	Name       string
	Email      string
	Phone      string
	CreatedAt  time.Time
}

// Order is an order record.
type Order struct {
	OrderID     string
	CustomerID  string
	ProductName string
	Status      string
	Amount      float64
	OrderDate   time.Time
}

// Payment is a payment record tied to an order.
type Payment struct {
	OrderID           string
	ProviderPaymentID string
	Amount            float64
	Status            string
	CreatedAt         time.Time
}

// Tracking is the latest shipment tracking snapshot for an order.
type Tracking struct {
	OrderID           string
	TrackingNumber    string
	Carrier           string
	Status            string
	Location          string
	EstimatedDelivery string
	UpdatedAt         time.Time
}
