package media

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/geo"
)

// Location is a geolocated fix as stored in step states.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	PlaceName string  `json:"place_name"`
}

// Capture is a watermarked live photo.
type Capture struct {
	Photo      string    `json:"photo"`
	Location   Location  `json:"location"`
	CapturedAt time.Time `json:"captured_at"`
}

// State returns the capture as a step state, ready for a live capture step.
func (c Capture) State() draft.State {
	return draft.State{
		"photo": c.Photo,
		"location": map[string]interface{}{
			"lat":        c.Location.Latitude,
			"lng":        c.Location.Longitude,
			"accuracy":   c.Location.Accuracy,
			"place_name": c.Location.PlaceName,
		},
		"captured_at": c.CapturedAt.Format(time.RFC3339),
	}
}

// Capturer produces watermarked captures.
type Capturer struct {
	geocoder  geo.Geocoder
	logger    core.Logger
	maxPixels int
	nowFunc   func() time.Time
}

type CapturerOption func(*Capturer)

// WithMaxPixels bounds the size of accepted photos. See DecodeImage.
func WithMaxPixels(n int) CapturerOption {
	return func(c *Capturer) { c.maxPixels = n }
}

func NewCapturer(geocoder geo.Geocoder, logger core.Logger, opts ...CapturerOption) *Capturer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	c := &Capturer{geocoder: geocoder, logger: logger, maxPixels: DefaultMaxPixels, nowFunc: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capture watermarks photo with the place name, coordinates and timestamp of the capture.
// Reverse geocoding runs while the photo is decoded and never fails the capture.
func (c *Capturer) Capture(ctx context.Context, photo string, pos geo.Position) (Capture, error) {
	if err := pos.Validate(); err != nil {
		return Capture{}, err
	}
	placeTask := geo.Go(ctx, func(ctx context.Context) (string, error) {
		return geo.PlaceName(ctx, c.geocoder, pos, c.logger), nil
	})

	img, mime, err := DecodeImage(photo, c.maxPixels)
	if err != nil {
		return Capture{}, core.NewValidationError(err, core.FieldError{Field: "photo", Error: err.Error()})
	}
	place, err := placeTask.Wait(ctx)
	if err != nil {
		place = geo.UnknownLocation
	}

	now := c.nowFunc().UTC()
	marked := Watermark(img, []string{
		place,
		fmt.Sprintf("Lat %.6f  Lng %.6f  (+/- %.0fm)", pos.Latitude, pos.Longitude, pos.Accuracy),
		now.Format("2006-01-02 15:04:05 MST"),
	})
	encoded, err := EncodeImage(marked, mime)
	if err != nil {
		return Capture{}, errors.Wrap(err, "capturing photo")
	}

	return Capture{
		Photo: encoded,
		Location: Location{
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
			Accuracy:  pos.Accuracy,
			PlaceName: place,
		},
		CapturedAt: now,
	}, nil
}
