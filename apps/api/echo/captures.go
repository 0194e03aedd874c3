package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/geo"
	"github.com/trezcool/kaushal/core/media"
)

type captureApi struct {
	capturer *media.Capturer
}

func registerCaptureAPI(g *echo.Group, capturer *media.Capturer) {
	api := captureApi{capturer: capturer}
	g.POST("/captures", api.create)
}

// locator returns the fix sent by the client device. A missing coordinate means no fix.
func (req captureRequest) locator() geo.Locator {
	loc := geo.Fixed{Denied: req.Denied}
	if req.Latitude != nil && req.Longitude != nil {
		loc.Position = &geo.Position{Latitude: *req.Latitude, Longitude: *req.Longitude, Accuracy: req.Accuracy}
	}
	return loc
}

// capture binds a captureRequest and watermarks its photo.
func capture(ctx echo.Context, capturer *media.Capturer) (media.Capture, error) {
	var data captureRequest
	if err := ctx.Bind(&data); err != nil {
		return media.Capture{}, errors.Wrap(err, "binding to captureRequest")
	}
	rctx := ctx.Request().Context()
	pos, err := data.locator().Locate(rctx)
	if err != nil {
		return media.Capture{}, err
	}
	return capturer.Capture(rctx, data.Photo, pos)
}

// Handlers

func (api *captureApi) create(ctx echo.Context) error {
	c, err := capture(ctx, api.capturer)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}
