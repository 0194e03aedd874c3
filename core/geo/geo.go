// Package geo holds the geolocation and reverse-geocoding collaborators used by capture steps.
package geo

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
)

// UnknownLocation is the place name used when reverse geocoding fails.
const UnknownLocation = "Unknown location"

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrInvalidPosition     = errors.New("invalid position")
)

// Position is a geolocated fix. Accuracy is in meters.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Validate checks the coordinates are in range.
func (pos Position) Validate() error {
	var flds []core.FieldError
	if pos.Latitude < -90 || pos.Latitude > 90 {
		flds = append(flds, core.FieldError{Field: "latitude", Error: "must be between -90 and 90"})
	}
	if pos.Longitude < -180 || pos.Longitude > 180 {
		flds = append(flds, core.FieldError{Field: "longitude", Error: "must be between -180 and 180"})
	}
	if pos.Accuracy < 0 {
		flds = append(flds, core.FieldError{Field: "accuracy", Error: "must be positive"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidPosition, flds...)
	}
	return nil
}

func (pos Position) String() string {
	return fmt.Sprintf("%.6f, %.6f", pos.Latitude, pos.Longitude)
}

// Locator requests the current position.
// It fails with ErrPermissionDenied or ErrPositionUnavailable.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// Fixed is a Locator for fixes taken by the client device and sent along with a request.
type Fixed struct {
	Position *Position
	Denied   bool
}

func (f Fixed) Locate(context.Context) (Position, error) {
	if f.Denied {
		return Position{}, ErrPermissionDenied
	}
	if f.Position == nil {
		return Position{}, ErrPositionUnavailable
	}
	if err := f.Position.Validate(); err != nil {
		return Position{}, err
	}
	return *f.Position, nil
}

// Place is a reverse-geocoded position.
type Place struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Geocoder turns coordinates into a human readable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error)
}

// PlaceName reverse geocodes pos. It is best effort: failures are logged and yield UnknownLocation.
func PlaceName(ctx context.Context, g Geocoder, pos Position, logger core.Logger) string {
	if g == nil {
		return UnknownLocation
	}
	place, err := g.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil || place.Name == "" {
		if err != nil && logger != nil {
			logger.Warn(fmt.Sprintf("reverse geocoding %s failed", pos), err)
		}
		return UnknownLocation
	}
	return place.Name
}
