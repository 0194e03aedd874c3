// Package geocodesvc reverse geocodes positions with a Nominatim compatible API.
package geocodesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/geo"
)

type nominatimAddress struct {
	Village  string `json:"village"`
	Town     string `json:"town"`
	City     string `json:"city"`
	District string `json:"state_district"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

// Nominatim is a geo.Geocoder calling the /reverse endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *rest.Client
}

var _ geo.Geocoder = (*Nominatim)(nil)

func NewNominatim(conf core.GeocodingConfig) *Nominatim {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Nominatim{
		baseURL:   strings.TrimSuffix(conf.BaseURL, "/"),
		userAgent: conf.UserAgent,
		client:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lng float64) (geo.Place, error) {
	req := rest.Request{
		Method:  rest.Get,
		BaseURL: n.baseURL + "/reverse",
		Headers: map[string]string{
			"User-Agent": n.userAgent,
			"Accept":     "application/json",
		},
		QueryParams: map[string]string{
			"format":         "jsonv2",
			"lat":            strconv.FormatFloat(lat, 'f', 6, 64),
			"lon":            strconv.FormatFloat(lng, 'f', 6, 64),
			"zoom":           "14",
			"addressdetails": "1",
		},
	}

	res, err := n.client.SendWithContext(ctx, req)
	if err != nil {
		return geo.Place{}, errors.Wrap(err, "reverse geocoding")
	}
	if res.StatusCode != http.StatusOK {
		return geo.Place{}, errors.Errorf("reverse geocoding: status %d", res.StatusCode)
	}

	var body nominatimResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		return geo.Place{}, errors.Wrap(err, "decoding reverse geocoding response")
	}
	if body.Error != "" {
		return geo.Place{}, errors.Errorf("reverse geocoding: %s", body.Error)
	}
	return body.place(), nil
}

func (r nominatimResponse) place() geo.Place {
	a := r.Address
	city := firstNonEmpty(a.City, a.Town, a.Village, a.District)
	name := r.DisplayName
	if city != "" && a.State != "" {
		name = fmt.Sprintf("%s, %s", city, a.State)
	}
	return geo.Place{
		Name:    name,
		City:    city,
		State:   a.State,
		Pincode: a.Postcode,
		Country: a.Country,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
