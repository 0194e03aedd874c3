// Package digcontainer wires the API dependencies with go.uber.org/dig.
package digcontainer

import (
	"context"
	"fmt"
	"log"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/kaushal/apps/api/echo"
	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/geo"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/core/wizard"
	emailsvc "github.com/trezcool/kaushal/services/email"
	geocodesvc "github.com/trezcool/kaushal/services/geocode"
	logsvc "github.com/trezcool/kaushal/services/logger"
	metricsvc "github.com/trezcool/kaushal/services/metrics"
	"github.com/trezcool/kaushal/storage"
)

type ServerParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Translator  ut.Translator
	Registry    *flows.Registry
	Wizards     *wizard.Manager
	Coordinator *wizard.Coordinator
	Capturer    *media.Capturer
	Storage     *storage.Storage
	Metrics     *metricsvc.Metrics
}

func newLogger(conf *core.Config) (core.Logger, error) {
	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		return nil, err
	}
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newStorage(conf *core.Config) (*storage.Storage, error) {
	return storage.Open(context.Background(), conf)
}

func newDraftStore(st *storage.Storage, logger core.Logger) (*draft.Store, error) {
	return draft.NewStore(st.Drafts, logger)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newGeocoder(conf *core.Config) geo.Geocoder {
	return geocodesvc.NewNominatim(conf.Geocoding)
}

func newRegistry(validate *validator.Validate, translator ut.Translator) (*flows.Registry, error) {
	return flows.NewRegistry(validate, translator)
}

func newManager(conf *core.Config, store *draft.Store, logger core.Logger, metrics *metricsvc.Metrics) *wizard.Manager {
	return wizard.NewManager(store, logger, metrics,
		wizard.WithSessionTTL(conf.Wizard.SessionTTL),
		wizard.WithMaxSessions(conf.Wizard.MaxSessions),
	)
}

// newCoordinator records submissions, then mails a receipt to the contact found in the payload.
func newCoordinator(st *storage.Storage, emails core.EmailService, logger core.Logger, metrics *metricsvc.Metrics) *wizard.Coordinator {
	submitter := submission.NewNotifier(submission.NewRecorder(st.Submissions), emails, logger)
	return wizard.NewCoordinator(submitter, logger, metrics)
}

func newCapturer(conf *core.Config, geocoder geo.Geocoder, logger core.Logger) *media.Capturer {
	return media.NewCapturer(geocoder, logger, media.WithMaxPixels(conf.Media.MaxPhotoPixels))
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Translator:  p.Translator,
		Registry:    p.Registry,
		Wizards:     p.Wizards,
		Coordinator: p.Coordinator,
		Capturer:    p.Capturer,
		Submissions: p.Storage.Submissions,
		Metrics:     p.Metrics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorage))
	must(c.Provide(newDraftStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newGeocoder))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newRegistry))
	must(c.Provide(metricsvc.New))
	must(c.Provide(newManager))
	must(c.Provide(newCoordinator))
	must(c.Provide(newCapturer))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

// Describe prints the dependency graph in the DOT format.
func Describe(c *dig.Container) string {
	var b strings.Builder
	if err := dig.Visualize(c, &b); err != nil {
		return fmt.Sprintf("visualizing container: %v", err)
	}
	return b.String()
}
