package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/wizard"
)

type wizardApi struct {
	registry    *flows.Registry
	wizards     *wizard.Manager
	coordinator *wizard.Coordinator
	capturer    *media.Capturer
}

type (
	flowResponse struct {
		flows.Flow
		Steps []wizard.StepDescriptor `json:"steps"`
	}

	stepResponse struct {
		Outcome  string          `json:"outcome"`
		Snapshot wizard.Snapshot `json:"snapshot"`
	}

	jumpRequest struct {
		Index *int `json:"index"`
	}

	captureRequest struct {
		Photo     string   `json:"photo"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  float64  `json:"accuracy"`
		Denied    bool     `json:"permission_denied"`
	}
)

func registerWizardAPI(
	g *echo.Group,
	registry *flows.Registry,
	wizards *wizard.Manager,
	coordinator *wizard.Coordinator,
	capturer *media.Capturer,
) {
	api := wizardApi{
		registry:    registry,
		wizards:     wizards,
		coordinator: coordinator,
		capturer:    capturer,
	}

	fg := g.Group("/flows")
	fg.GET("", api.listFlows)
	fg.GET("/:flow", api.retrieveFlow)

	dg := fg.Group("/:flow/drafts/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.discard)
	dg.PATCH("/steps/:step", api.change)
	dg.POST("/steps/:step/capture", api.capture)
	dg.POST("/next", api.next)
	dg.POST("/back", api.back)
	dg.POST("/jump", api.jump)
	dg.POST("/submit", api.submit)
}

// Handlers

func (api *wizardApi) listFlows(ctx echo.Context) error {
	all := api.registry.All()
	resp := make([]flowResponse, len(all))
	for i, f := range all {
		resp[i] = flowResponse{Flow: f, Steps: f.Steps.Describe()}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *wizardApi) retrieveFlow(ctx echo.Context) error {
	f, err := api.registry.Lookup(ctx.Param("flow"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, flowResponse{Flow: f, Steps: f.Steps.Describe()})
}

func (api *wizardApi) retrieve(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *wizardApi) change(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	var partial draft.State
	if err = ctx.Echo().JSONSerializer.Deserialize(ctx, &partial); err != nil {
		return err
	}
	if err = s.Change(ctx.Request().Context(), ctx.Param("step"), partial); err != nil {
		return errors.Wrap(err, "changing step")
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *wizardApi) capture(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	c, err := capture(ctx, api.capturer)
	if err != nil {
		return err
	}
	if err = s.Change(ctx.Request().Context(), ctx.Param("step"), c.State()); err != nil {
		return errors.Wrap(err, "changing step")
	}
	return ctx.JSON(http.StatusOK, s.Snapshot())
}

func (api *wizardApi) next(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	outcome := s.Next(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, stepResponse{Outcome: outcome.String(), Snapshot: s.Snapshot()})
}

func (api *wizardApi) back(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	outcome := "noop"
	if s.Back(ctx.Request().Context()) {
		outcome = "moved"
	}
	return ctx.JSON(http.StatusOK, stepResponse{Outcome: outcome, Snapshot: s.Snapshot()})
}

func (api *wizardApi) jump(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	var data jumpRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to jumpRequest")
	}
	if data.Index == nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"index": "this field is required"})
	}
	if err = s.JumpTo(ctx.Request().Context(), *data.Index); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stepResponse{Outcome: "moved", Snapshot: s.Snapshot()})
}

func (api *wizardApi) submit(ctx echo.Context) error {
	s, err := api.session(ctx)
	if err != nil {
		return err
	}
	receipt, err := api.coordinator.Submit(ctx.Request().Context(), s)
	if err != nil {
		return err
	}
	api.wizards.Forget(s.Key())
	return ctx.JSON(http.StatusCreated, receipt)
}

func (api *wizardApi) discard(ctx echo.Context) error {
	f, key, err := api.draftKey(ctx)
	if err != nil {
		return err
	}
	if err = api.wizards.Discard(ctx.Request().Context(), key); err != nil {
		return errors.Wrapf(err, "discarding %s draft", f.Name)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Helpers

func (api *wizardApi) draftKey(ctx echo.Context) (flows.Flow, string, error) {
	f, err := api.registry.Lookup(ctx.Param("flow"))
	if err != nil {
		return flows.Flow{}, "", err
	}
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		return flows.Flow{}, "", errHttpNotFound
	}
	return f, flows.DraftKey(f.Name, id), nil
}

// session resumes the draft named by the route.
func (api *wizardApi) session(ctx echo.Context) (*wizard.Session, error) {
	f, key, err := api.draftKey(ctx)
	if err != nil {
		return nil, err
	}
	s, err := api.wizards.Session(ctx.Request().Context(), f.Name, key, f.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "opening session")
	}
	return s, nil
}
