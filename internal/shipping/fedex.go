package shipping

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/httpclient"
)

// fedexDefaultTransitDays is used when the FedEx response lacks a usable
// transit-time value.
const fedexDefaultTransitDays = 3

// fedexTransitDays maps FedEx transit-time enums to day counts.
var fedexTransitDays = map[string]int{
	"ONE_DAY":    1,
	"TWO_DAYS":   2,
	"THREE_DAYS": 3,
	"FOUR_DAYS":  4,
	"FIVE_DAYS":  5,
}

// FedEx implements Carrier against the FedEx REST API.
type FedEx struct {
	baseURL       string
	accessToken   string
	accountNumber string
	http          *httpclient.Client
}

// NewFedEx creates a FedEx carrier client.
func NewFedEx(baseURL, accessToken, accountNumber string, timeout time.Duration) *FedEx {
	return &FedEx{
		baseURL:       baseURL,
		accessToken:   accessToken,
		accountNumber: accountNumber,
		http:          httpclient.New("fedex", timeout),
	}
}

func (f *FedEx) Name() string { return "FedEx" }

func (f *FedEx) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + f.accessToken}
}

type fedexAddress struct {
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

type fedexLineItem struct {
	Weight struct {
		Units string  `json:"units"`
		Value float64 `json:"value"`
	} `json:"weight"`
	Dimensions struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Units  string  `json:"units"`
	} `json:"dimensions"`
}

type fedexRateRequest struct {
	AccountNumber struct {
		Value string `json:"value"`
	} `json:"accountNumber"`
	RequestedShipment struct {
		Shipper struct {
			Address fedexAddress `json:"address"`
		} `json:"shipper"`
		Recipient struct {
			Address fedexAddress `json:"address"`
		} `json:"recipient"`
		RequestedPackageLineItems []fedexLineItem `json:"requestedPackageLineItems"`
	} `json:"requestedShipment"`
}

type fedexRateResponse struct {
	Output struct {
		RateReplyDetails []struct {
			ServiceName          string `json:"serviceName"`
			TransitTime          string `json:"transitTime"`
			RatedShipmentDetails []struct {
				TotalNetCharge float64 `json:"totalNetCharge"`
			} `json:"ratedShipmentDetails"`
		} `json:"rateReplyDetails"`
	} `json:"output"`
}

// GetRates maps the common rate request to FedEx's quoting schema and back.
func (f *FedEx) GetRates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	var body fedexRateRequest
	body.AccountNumber.Value = f.accountNumber
	body.RequestedShipment.Shipper.Address = fedexAddress{
		PostalCode:  req.Origin.PostalCode,
		CountryCode: req.Origin.CountryCode,
	}
	body.RequestedShipment.Recipient.Address = fedexAddress{
		PostalCode:  req.Destination.PostalCode,
		CountryCode: req.Destination.CountryCode,
	}
	for _, item := range req.Items {
		var li fedexLineItem
		li.Weight.Units = "LB"
		li.Weight.Value = item.Weight
		li.Dimensions.Length = item.Length
		li.Dimensions.Width = item.Width
		li.Dimensions.Height = item.Height
		li.Dimensions.Units = "IN"
		body.RequestedShipment.RequestedPackageLineItems = append(
			body.RequestedShipment.RequestedPackageLineItems, li)
	}

	var resp fedexRateResponse
	if err := f.http.PostJSON(ctx, f.baseURL+"/rate/v1/rates/quotes", f.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("fedex rate request failed: %w", err)
	}

	quotes := make([]RateQuote, 0, len(resp.Output.RateReplyDetails))
	for _, detail := range resp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		days, ok := fedexTransitDays[detail.TransitTime]
		if !ok {
			days = fedexDefaultTransitDays
		}
		quotes = append(quotes, RateQuote{
			Provider:      f.Name(),
			Service:       detail.ServiceName,
			Rate:          detail.RatedShipmentDetails[0].TotalNetCharge,
			EstimatedDays: days,
		})
	}
	return quotes, nil
}

type fedexShipResponse struct {
	Output struct {
		TransactionShipments []struct {
			MasterTrackingNumber string `json:"masterTrackingNumber"`
			PieceResponses       []struct {
				LabelDocuments []struct {
					URL string `json:"url"`
				} `json:"labelDocuments"`
			} `json:"pieceResponses"`
		} `json:"transactionShipments"`
	} `json:"output"`
}

// CreateLabel purchases a FedEx label.
func (f *FedEx) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	body := map[string]interface{}{
		"accountNumber": map[string]string{"value": f.accountNumber},
		"requestedShipment": map[string]interface{}{
			"shipper":   fedexLabelParty(req.Origin),
			"recipient": fedexLabelParty(req.Destination),
			"requestedPackageLineItems": fedexLabelPackages(req.Packages),
			"serviceType":               req.Service,
		},
	}

	var resp fedexShipResponse
	if err := f.http.PostJSON(ctx, f.baseURL+"/ship/v1/shipments", f.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("fedex label request failed: %w", err)
	}
	if len(resp.Output.TransactionShipments) == 0 {
		return nil, fmt.Errorf("fedex label response contained no shipments")
	}

	shipment := resp.Output.TransactionShipments[0]
	label := &Label{
		TrackingNumber: shipment.MasterTrackingNumber,
		Carrier:        f.Name(),
	}
	if len(shipment.PieceResponses) > 0 && len(shipment.PieceResponses[0].LabelDocuments) > 0 {
		label.LabelURL = shipment.PieceResponses[0].LabelDocuments[0].URL
	}
	return label, nil
}

func fedexLabelParty(a LabelAddress) map[string]interface{} {
	return map[string]interface{}{
		"contact": map[string]string{
			"personName":  a.Name,
			"phoneNumber": a.Phone,
		},
		"address": map[string]interface{}{
			"streetLines":         []string{a.Address1, a.Address2},
			"city":                a.City,
			"stateOrProvinceCode": a.State,
			"postalCode":          a.PostalCode,
			"countryCode":         a.CountryCode,
		},
	}
}

func fedexLabelPackages(pkgs []Package) []fedexLineItem {
	out := make([]fedexLineItem, 0, len(pkgs))
	for _, p := range pkgs {
		var li fedexLineItem
		li.Weight.Units = "LB"
		li.Weight.Value = p.Weight
		li.Dimensions.Length = p.Length
		li.Dimensions.Width = p.Width
		li.Dimensions.Height = p.Height
		li.Dimensions.Units = "IN"
		out = append(out, li)
	}
	return out
}

type fedexTrackResponse struct {
	Output struct {
		CompleteTrackResults []struct {
			TrackResults []struct {
				LatestStatusDetail struct {
					Description string `json:"description"`
				} `json:"latestStatusDetail"`
				EstimatedDeliveryTimeWindow struct {
					Window struct {
						Ends time.Time `json:"ends"`
					} `json:"window"`
				} `json:"estimatedDeliveryTimeWindow"`
				ScanEvents []struct {
					Date             time.Time `json:"date"`
					EventDescription string    `json:"eventDescription"`
					ScanLocation     struct {
						City string `json:"city"`
					} `json:"scanLocation"`
				} `json:"scanEvents"`
			} `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
}

// Track fetches the current state of a FedEx shipment.
func (f *FedEx) Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	body := map[string]interface{}{
		"trackingInfo": []map[string]interface{}{
			{"trackingNumberInfo": map[string]string{"trackingNumber": trackingNumber}},
		},
	}

	var resp fedexTrackResponse
	if err := f.http.PostJSON(ctx, f.baseURL+"/track/v1/trackingnumbers", f.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("fedex tracking request failed: %w", err)
	}

	info := &TrackingInfo{Status: "Unknown"}
	for _, complete := range resp.Output.CompleteTrackResults {
		for _, result := range complete.TrackResults {
			info.Status = result.LatestStatusDetail.Description
			info.EstimatedDelivery = result.EstimatedDeliveryTimeWindow.Window.Ends
			for _, scan := range result.ScanEvents {
				info.Events = append(info.Events, TrackingEvent{
					Timestamp:   scan.Date,
					Location:    scan.ScanLocation.City,
					Description: scan.EventDescription,
				})
			}
		}
	}
	return info, nil
}
