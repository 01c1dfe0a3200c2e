// Package shipping aggregates rate quotes, labels and tracking across the
// configured carrier backends.
package shipping

import (
	"context"
	"time"
)

// Location identifies one end of a shipment for rate quoting.
type Location struct {
	PostalCode  string `json:"postal_code" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
}

// Package describes one parcel: dimensions in inches, weight in pounds.
type Package struct {
	Weight   float64 `json:"weight" binding:"required"`
	Length   float64 `json:"length" binding:"required"`
	Width    float64 `json:"width" binding:"required"`
	Height   float64 `json:"height" binding:"required"`
	Quantity int     `json:"quantity"`
	Contents string  `json:"contents,omitempty"`
}

// RateRequest asks every carrier for quotes on the same shipment.
type RateRequest struct {
	Origin      Location  `json:"origin"`
	Destination Location  `json:"destination"`
	Items       []Package `json:"items"`
}

// RateQuote is one carrier's offer. Quotes are ephemeral and carry no
// identity beyond the request that produced them.
type RateQuote struct {
	Provider      string  `json:"provider"`
	Service       string  `json:"service"`
	Rate          float64 `json:"rate"`
	EstimatedDays int     `json:"estimated_days"`
}

// LabelAddress is the full address needed for label purchase.
type LabelAddress struct {
	Name        string `json:"name" binding:"required"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address_1" binding:"required"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city" binding:"required"`
	State       string `json:"state" binding:"required"`
	PostalCode  string `json:"postal_code" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
	Phone       string `json:"phone,omitempty"`
}

// LabelRequest purchases a label from a single named provider.
type LabelRequest struct {
	Provider    string       `json:"provider" binding:"required"`
	Service     string       `json:"service"`
	Origin      LabelAddress `json:"origin"`
	Destination LabelAddress `json:"destination"`
	Packages    []Package    `json:"packages" binding:"required,min=1"`
}

// Label is a purchased shipping label.
type Label struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	Carrier        string `json:"carrier"`
}

// TrackingEvent is one scan event in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// TrackingInfo is the current state of a shipment.
type TrackingInfo struct {
	Status            string          `json:"status"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	Events            []TrackingEvent `json:"events"`
}

// Carrier is one shipping provider backend. Implementations translate the
// common shapes above to and from the provider's own schema.
type Carrier interface {
	Name() string
	GetRates(ctx context.Context, req RateRequest) ([]RateQuote, error)
	CreateLabel(ctx context.Context, req LabelRequest) (*Label, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error)
}
