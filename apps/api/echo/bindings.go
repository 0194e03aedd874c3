package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/submission"
)

var (
	orderingParam = "ordering"
	formatParam   = "format"

	// accepted layouts of date query params
	dateLayout  = "2006-01-02"
	timeLayouts = []string{time.RFC3339, dateLayout}
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrderings(ctx.QueryParam(orderingParam))
}

type submissionQuery struct {
	Ordering
	Filter submission.QueryFilter
	Format string
}

func (q *submissionQuery) Bind(ctx echo.Context) error {
	q.Ordering.Bind(ctx)
	q.Format = strings.ToLower(strings.TrimSpace(ctx.QueryParam(formatParam)))
	if q.Format == "" {
		q.Format = "json"
	}

	err := echo.QueryParamsBinder(ctx).
		String("flow", &q.Filter.Flow).
		String("search", &q.Filter.Search).
		CustomFunc("submitted_from", timeParam("submitted_from", &q.Filter.SubmittedFrom, false)).
		CustomFunc("submitted_to", timeParam("submitted_to", &q.Filter.SubmittedTo, true)).
		BindError()
	if err != nil {
		return err
	}
	q.Filter.Clean()
	return nil
}

// timeParam parses a date query param. A bare date used as an upper bound covers the whole day.
func timeParam(name string, dest *time.Time, upper bool) func(values []string) []error {
	return func(values []string) []error {
		if len(values) == 0 || values[0] == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, values[0]); err == nil {
				if upper && layout == dateLayout {
					t = t.Add(24*time.Hour - time.Nanosecond)
				}
				*dest = t
				return nil
			}
		}
		return []error{core.NewValidationError(
			errors.Errorf("invalid %s %q", name, values[0]),
			core.FieldError{Field: name, Error: "expected a RFC 3339 timestamp or a YYYY-MM-DD date"},
		)}
	}
}
