package shipping

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/httpclient"
)

// uspsDefaultTransitDays is used when the USPS response omits an estimate.
const uspsDefaultTransitDays = 4

// USPS implements Carrier against the USPS API.
type USPS struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

// NewUSPS creates a USPS carrier client.
func NewUSPS(baseURL, apiKey string, timeout time.Duration) *USPS {
	return &USPS{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpclient.New("usps", timeout),
	}
}

func (u *USPS) Name() string { return "USPS" }

func (u *USPS) headers() map[string]string {
	return map[string]string{"USPS-API-Key": u.apiKey}
}

type uspsPackage struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type uspsRateRequest struct {
	OriginZIP      string        `json:"origin_zip"`
	DestinationZIP string        `json:"destination_zip"`
	Packages       []uspsPackage `json:"packages"`
}

type uspsRateResponse struct {
	Rates []struct {
		Service       string  `json:"service"`
		Rate          float64 `json:"rate"`
		EstimatedDays int     `json:"estimated_days"`
	} `json:"rates"`
}

// GetRates maps the common rate request to USPS's schema and back.
func (u *USPS) GetRates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	body := uspsRateRequest{
		OriginZIP:      req.Origin.PostalCode,
		DestinationZIP: req.Destination.PostalCode,
	}
	for _, item := range req.Items {
		body.Packages = append(body.Packages, uspsPackage{
			Weight: item.Weight,
			Length: item.Length,
			Width:  item.Width,
			Height: item.Height,
		})
	}

	var resp uspsRateResponse
	if err := u.http.PostJSON(ctx, u.baseURL+"/rates", u.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("usps rate request failed: %w", err)
	}

	quotes := make([]RateQuote, 0, len(resp.Rates))
	for _, rate := range resp.Rates {
		days := rate.EstimatedDays
		if days <= 0 {
			days = uspsDefaultTransitDays
		}
		quotes = append(quotes, RateQuote{
			Provider:      u.Name(),
			Service:       rate.Service,
			Rate:          rate.Rate,
			EstimatedDays: days,
		})
	}
	return quotes, nil
}

type uspsLabelResponse struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
}

// CreateLabel purchases a USPS label.
func (u *USPS) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	body := map[string]interface{}{
		"service":     req.Service,
		"origin":      uspsLabelAddress(req.Origin),
		"destination": uspsLabelAddress(req.Destination),
		"packages":    uspsLabelPackages(req.Packages),
	}

	var resp uspsLabelResponse
	if err := u.http.PostJSON(ctx, u.baseURL+"/labels", u.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("usps label request failed: %w", err)
	}

	return &Label{
		TrackingNumber: resp.TrackingNumber,
		LabelURL:       resp.LabelURL,
		Carrier:        u.Name(),
	}, nil
}

func uspsLabelAddress(a LabelAddress) map[string]string {
	return map[string]string{
		"name":         a.Name,
		"address_1":    a.Address1,
		"address_2":    a.Address2,
		"city":         a.City,
		"state":        a.State,
		"postal_code":  a.PostalCode,
		"country_code": a.CountryCode,
		"phone":        a.Phone,
	}
}

func uspsLabelPackages(pkgs []Package) []uspsPackage {
	out := make([]uspsPackage, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, uspsPackage{
			Weight: p.Weight,
			Length: p.Length,
			Width:  p.Width,
			Height: p.Height,
		})
	}
	return out
}

type uspsTrackResponse struct {
	Status            string `json:"status"`
	EstimatedDelivery string `json:"estimated_delivery"`
	Events            []struct {
		Timestamp   time.Time `json:"timestamp"`
		Location    string    `json:"location"`
		Description string    `json:"description"`
	} `json:"events"`
}

// Track fetches the current state of a USPS shipment.
func (u *USPS) Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	var resp uspsTrackResponse
	url := fmt.Sprintf("%s/tracking/%s", u.baseURL, trackingNumber)
	if err := u.http.GetJSON(ctx, url, u.headers(), &resp); err != nil {
		return nil, fmt.Errorf("usps tracking request failed: %w", err)
	}

	info := &TrackingInfo{Status: resp.Status}
	if t, err := time.Parse("2006-01-02", resp.EstimatedDelivery); err == nil {
		info.EstimatedDelivery = t
	}
	for _, ev := range resp.Events {
		info.Events = append(info.Events, TrackingEvent{
			Timestamp:   ev.Timestamp,
			Location:    ev.Location,
			Description: ev.Description,
		})
	}
	return info, nil
}
