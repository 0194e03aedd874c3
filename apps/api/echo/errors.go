package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/export"
	"github.com/trezcool/kaushal/core/geo"
	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/core/wizard"
)

var (
	errHttpNotFound        = echo.NewHTTPError(http.StatusNotFound, "not found")
	errSubmissionFailed    = "submission failed, the draft was kept"
	errInvalidSubmissionID = core.FieldError{Field: "id", Error: "invalid submission id"}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.FieldErrorsMap(core.TranslateValidationErrors(origErr, translator))
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = core.FieldErrorsMap(origErr.Fields)
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *wizard.IncompleteError:
			code = http.StatusBadRequest
			message = echo.Map{"error": origErr.Error(), "fields": core.FieldErrorsMap(origErr.Fields)}
		case *wizard.SubmissionError:
			code = http.StatusBadGateway
			message = echo.Map{"error": errSubmissionFailed, "draft_key": origErr.DraftKey}
			logger.Error(errSubmissionFailed, err, core.Identity{ID: origErr.DraftKey})
		default:
			switch origErr {
			case wizard.ErrUnknownFlow, wizard.ErrUnknownStep, submission.ErrNotFound:
				code = http.StatusNotFound
				message = err.Error()
			case wizard.ErrNotCurrentStep, wizard.ErrNotOnLastStep:
				code = http.StatusConflict
				message = err.Error()
			case wizard.ErrIndexOutOfRange, export.ErrUnknownFormat, geo.ErrPermissionDenied, geo.ErrPositionUnavailable:
				code = http.StatusBadRequest
				message = err.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
