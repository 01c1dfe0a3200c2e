package models

import (
	"database/sql"
	"time"
)

// Address represents a customer shipping or billing address.
// For a customer with at least one address, exactly one row has is_default set.
type Address struct {
	ID          string         `db:"id" json:"id"`
	CustomerID  string         `db:"customer_id" json:"customer_id"`
	FirstName   string         `db:"first_name" json:"first_name"`
	LastName    string         `db:"last_name" json:"last_name"`
	Address1    string         `db:"address_1" json:"address_1"`
	Address2    sql.NullString `db:"address_2" json:"address_2,omitempty"`
	City        string         `db:"city" json:"city"`
	State       string         `db:"state" json:"state"`
	PostalCode  string         `db:"postal_code" json:"postal_code"`
	CountryCode string         `db:"country_code" json:"country_code"`
	Phone       sql.NullString `db:"phone" json:"phone,omitempty"`
	IsDefault   bool           `db:"is_default" json:"is_default"`
	Metadata    []byte         `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Review represents a product review, unique per (customer, product).
type Review struct {
	ID         string         `db:"id" json:"id"`
	CustomerID string         `db:"customer_id" json:"customer_id"`
	ProductID  string         `db:"product_id" json:"product_id"`
	Rating     int            `db:"rating" json:"rating"`
	Comment    sql.NullString `db:"comment" json:"comment,omitempty"`
	IsApproved bool           `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// WishlistItem represents a product saved to a customer's wishlist,
// unique per (customer, product).
type WishlistItem struct {
	ID         string    `db:"id" json:"id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Refund represents a staff-issued refund against an order.
// A refund is immutable once processed.
type Refund struct {
	ID          string         `db:"id" json:"id"`
	OrderID     string         `db:"order_id" json:"order_id"`
	ReturnID    sql.NullString `db:"return_id" json:"return_id,omitempty"`
	Amount      int64          `db:"amount" json:"amount"`
	Type        string         `db:"type" json:"type"`
	Status      string         `db:"status" json:"status"`
	Reason      sql.NullString `db:"reason" json:"reason,omitempty"`
	Note        sql.NullString `db:"note" json:"note,omitempty"`
	ProcessedAt sql.NullTime   `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Payment tracks a gateway payment referenced by its gateway-side ids.
type Payment struct {
	ID             string         `db:"id" json:"id"`
	OrderID        string         `db:"order_id" json:"order_id"`
	GatewayOrderID string         `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPayID   sql.NullString `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	Amount         int64          `db:"amount" json:"amount"`
	Currency       string         `db:"currency" json:"currency"`
	Status         string         `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Refund types
const (
	RefundTypeReturn       = "return"
	RefundTypeCancellation = "cancellation"
	RefundTypePartial      = "partial"
	RefundTypeOther        = "other"
)

// Refund statuses
const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
	RefundStatusFailed    = "failed"
)

// Payment statuses
const (
	PaymentStatusCreated  = "created"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// ValidRefundType reports whether t is a known refund type.
func ValidRefundType(t string) bool {
	switch t {
	case RefundTypeReturn, RefundTypeCancellation, RefundTypePartial, RefundTypeOther:
		return true
	}
	return false
}

// ProcessedEvent records a handled webhook/broker event id for idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
