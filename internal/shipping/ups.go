package shipping

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"storefront-service/internal/httpclient"
)

// upsDefaultTransitDays is used when the UPS response carries no computable
// guaranteed-delivery window.
const upsDefaultTransitDays = 3

// UPS implements Carrier against the UPS REST API.
type UPS struct {
	baseURL     string
	accessToken string
	http        *httpclient.Client
}

// NewUPS creates a UPS carrier client.
func NewUPS(baseURL, accessToken string, timeout time.Duration) *UPS {
	return &UPS{
		baseURL:     baseURL,
		accessToken: accessToken,
		http:        httpclient.New("ups", timeout),
	}
}

func (u *UPS) Name() string { return "UPS" }

func (u *UPS) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + u.accessToken}
}

type upsAddress struct {
	PostalCode  string `json:"PostalCode"`
	CountryCode string `json:"CountryCode"`
}

type upsDimensions struct {
	UnitOfMeasurement upsUnit `json:"UnitOfMeasurement"`
	Length            float64 `json:"Length"`
	Width             float64 `json:"Width"`
	Height            float64 `json:"Height"`
}

type upsUnit struct {
	Code string `json:"Code"`
}

type upsPackage struct {
	PackagingType upsUnit       `json:"PackagingType"`
	Dimensions    upsDimensions `json:"Dimensions"`
	PackageWeight struct {
		UnitOfMeasurement upsUnit `json:"UnitOfMeasurement"`
		Weight            float64 `json:"Weight"`
	} `json:"PackageWeight"`
}

type upsRateRequest struct {
	RateRequest struct {
		Shipment struct {
			Shipper struct {
				Address upsAddress `json:"Address"`
			} `json:"Shipper"`
			ShipTo struct {
				Address upsAddress `json:"Address"`
			} `json:"ShipTo"`
			Package []upsPackage `json:"Package"`
		} `json:"Shipment"`
	} `json:"RateRequest"`
}

type upsRateResponse struct {
	RateResponse struct {
		RatedShipment []struct {
			Service struct {
				Code        string `json:"Code"`
				Description string `json:"Description"`
			} `json:"Service"`
			TotalCharges struct {
				CurrencyCode  string `json:"CurrencyCode"`
				MonetaryValue string `json:"MonetaryValue"`
			} `json:"TotalCharges"`
			GuaranteedDelivery struct {
				BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
			} `json:"GuaranteedDelivery"`
		} `json:"RatedShipment"`
	} `json:"RateResponse"`
}

// GetRates maps the common rate request to UPS's rating schema and back.
func (u *UPS) GetRates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	var body upsRateRequest
	body.RateRequest.Shipment.Shipper.Address = upsAddress{
		PostalCode:  req.Origin.PostalCode,
		CountryCode: req.Origin.CountryCode,
	}
	body.RateRequest.Shipment.ShipTo.Address = upsAddress{
		PostalCode:  req.Destination.PostalCode,
		CountryCode: req.Destination.CountryCode,
	}
	for _, item := range req.Items {
		pkg := upsPackage{
			PackagingType: upsUnit{Code: "02"},
			Dimensions: upsDimensions{
				UnitOfMeasurement: upsUnit{Code: "IN"},
				Length:            item.Length,
				Width:             item.Width,
				Height:            item.Height,
			},
		}
		pkg.PackageWeight.UnitOfMeasurement = upsUnit{Code: "LBS"}
		pkg.PackageWeight.Weight = item.Weight
		body.RateRequest.Shipment.Package = append(body.RateRequest.Shipment.Package, pkg)
	}

	var resp upsRateResponse
	if err := u.http.PostJSON(ctx, u.baseURL+"/rating/v1/rates", u.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("ups rate request failed: %w", err)
	}

	quotes := make([]RateQuote, 0, len(resp.RateResponse.RatedShipment))
	for _, rated := range resp.RateResponse.RatedShipment {
		rate, err := strconv.ParseFloat(rated.TotalCharges.MonetaryValue, 64)
		if err != nil {
			continue
		}
		days := upsDefaultTransitDays
		if d, err := strconv.Atoi(rated.GuaranteedDelivery.BusinessDaysInTransit); err == nil && d > 0 {
			days = d
		}
		quotes = append(quotes, RateQuote{
			Provider:      u.Name(),
			Service:       rated.Service.Description,
			Rate:          rate,
			EstimatedDays: days,
		})
	}
	return quotes, nil
}

type upsShipmentResponse struct {
	ShipmentResponse struct {
		ShipmentResults struct {
			ShipmentIdentificationNumber string `json:"ShipmentIdentificationNumber"`
			LabelURL                     string `json:"LabelURL"`
		} `json:"ShipmentResults"`
	} `json:"ShipmentResponse"`
}

// CreateLabel purchases a UPS label.
func (u *UPS) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	body := map[string]interface{}{
		"ShipmentRequest": map[string]interface{}{
			"Shipment": map[string]interface{}{
				"Shipper": upsLabelParty(req.Origin),
				"ShipTo":  upsLabelParty(req.Destination),
				"Package": upsLabelPackages(req.Packages),
				"Service": map[string]string{"Description": req.Service},
			},
		},
	}

	var resp upsShipmentResponse
	if err := u.http.PostJSON(ctx, u.baseURL+"/shipments/v1/ship", u.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("ups label request failed: %w", err)
	}

	return &Label{
		TrackingNumber: resp.ShipmentResponse.ShipmentResults.ShipmentIdentificationNumber,
		LabelURL:       resp.ShipmentResponse.ShipmentResults.LabelURL,
		Carrier:        u.Name(),
	}, nil
}

func upsLabelParty(a LabelAddress) map[string]interface{} {
	return map[string]interface{}{
		"Name":  a.Name,
		"Phone": map[string]string{"Number": a.Phone},
		"Address": map[string]string{
			"AddressLine":       a.Address1,
			"City":              a.City,
			"StateProvinceCode": a.State,
			"PostalCode":        a.PostalCode,
			"CountryCode":       a.CountryCode,
		},
	}
}

func upsLabelPackages(pkgs []Package) []upsPackage {
	out := make([]upsPackage, 0, len(pkgs))
	for _, p := range pkgs {
		pkg := upsPackage{
			PackagingType: upsUnit{Code: "02"},
			Dimensions: upsDimensions{
				UnitOfMeasurement: upsUnit{Code: "IN"},
				Length:            p.Length,
				Width:             p.Width,
				Height:            p.Height,
			},
		}
		pkg.PackageWeight.UnitOfMeasurement = upsUnit{Code: "LBS"}
		pkg.PackageWeight.Weight = p.Weight
		out = append(out, pkg)
	}
	return out
}

type upsTrackResponse struct {
	TrackResponse struct {
		Shipment []struct {
			Package []struct {
				CurrentStatus struct {
					Description string `json:"description"`
				} `json:"currentStatus"`
				DeliveryDate []struct {
					Date string `json:"date"`
				} `json:"deliveryDate"`
				Activity []struct {
					Location struct {
						Address struct {
							City string `json:"city"`
						} `json:"address"`
					} `json:"location"`
					Status struct {
						Description string `json:"description"`
					} `json:"status"`
					Date string `json:"date"`
					Time string `json:"time"`
				} `json:"activity"`
			} `json:"package"`
		} `json:"shipment"`
	} `json:"trackResponse"`
}

// Track fetches the current state of a UPS shipment.
func (u *UPS) Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	var resp upsTrackResponse
	url := fmt.Sprintf("%s/track/v1/details/%s", u.baseURL, trackingNumber)
	if err := u.http.GetJSON(ctx, url, u.headers(), &resp); err != nil {
		return nil, fmt.Errorf("ups tracking request failed: %w", err)
	}

	info := &TrackingInfo{Status: "Unknown"}
	for _, shipment := range resp.TrackResponse.Shipment {
		for _, pkg := range shipment.Package {
			info.Status = pkg.CurrentStatus.Description
			if len(pkg.DeliveryDate) > 0 {
				if t, err := time.Parse("20060102", pkg.DeliveryDate[0].Date); err == nil {
					info.EstimatedDelivery = t
				}
			}
			for _, act := range pkg.Activity {
				ev := TrackingEvent{
					Location:    act.Location.Address.City,
					Description: act.Status.Description,
				}
				if t, err := time.Parse("20060102150405", act.Date+act.Time); err == nil {
					ev.Timestamp = t
				}
				info.Events = append(info.Events, ev)
			}
		}
	}
	return info, nil
}
