package models

import "time"

// Event types
const (
	EventTypePaymentCaptured = "PAYMENT_CAPTURED"
	EventTypePaymentFailed   = "PAYMENT_FAILED"
	EventTypeRefundProcessed = "REFUND_PROCESSED"
	EventTypeOrderShipped    = "ORDER_SHIPPED"
	EventTypeCustomerCreated = "CUSTOMER_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentCapturedEvent published when the gateway confirms a capture
type PaymentCapturedEvent struct {
	BaseEvent
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	CustomerEmail    string `json:"customer_email"`
	CustomerName     string `json:"customer_name"`
}

// PaymentFailedEvent published when the gateway reports a failed payment
type PaymentFailedEvent struct {
	BaseEvent
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Reason           string `json:"reason"`
}

// RefundProcessedEvent published when a refund completes at the gateway
type RefundProcessedEvent struct {
	BaseEvent
	RefundID      string `json:"refund_id"`
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	RefundType    string `json:"refund_type"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// OrderShippedEvent published when a shipping label is created for an order
type OrderShippedEvent struct {
	BaseEvent
	OrderID           string `json:"order_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerName      string `json:"customer_name"`
	TrackingNumber    string `json:"tracking_number"`
	Carrier           string `json:"carrier"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

// CustomerCreatedEvent published when a customer account is created
type CustomerCreatedEvent struct {
	BaseEvent
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
}
