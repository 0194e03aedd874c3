package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/export"
	"github.com/trezcool/kaushal/core/submission"
)

type submissionApi struct {
	repo submission.Repository
}

func registerSubmissionAPI(g *echo.Group, repo submission.Repository) {
	api := submissionApi{repo: repo}

	sg := g.Group("/submissions")
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
}

// Handlers

func (api *submissionApi) query(ctx echo.Context) error {
	var q submissionQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	records, err := api.repo.QuerySubmissions(ctx.Request().Context(), q.Filter, q.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if records == nil {
		records = []submission.Record{}
	}
	if q.Format == "json" {
		return ctx.JSON(http.StatusOK, records)
	}

	exp, err := export.ByFormat(q.Format)
	if err != nil {
		return err
	}
	title := "Submissions"
	if q.Filter.Flow != "" {
		title += " - " + q.Filter.Flow
	}
	var buf bytes.Buffer
	if err = exp.Export(&buf, submission.Table(title, records)); err != nil {
		return errors.Wrapf(err, "exporting submissions to %s", exp.Extension())
	}
	filename := fmt.Sprintf("submissions-%s.%s", time.Now().UTC().Format("20060102-150405"), exp.Extension())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, exp.ContentType(), buf.Bytes())
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return core.NewValidationError(err, errInvalidSubmissionID)
	}
	rec, err := api.repo.GetSubmission(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, rec)
}
