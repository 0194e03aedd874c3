// Package flows holds the step tables of every dashboard flow.
package flows

import (
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/wizard"
)

const (
	CandidateEnrollment = "candidate_enrollment"
	CommunityDrive      = "community_drive"
	CompanyRegistration = "company_registration"
	PlacementDrive      = "placement_drive"
	StudentDetails      = "student_details"
)

// Flow is a named wizard.
type Flow struct {
	Name  string       `json:"name"`
	Title string       `json:"title"`
	Steps wizard.Steps `json:"-"`
}

// Location is the shape of a geolocated fix inside a step state.
type Location struct {
	Latitude  *float64 `json:"lat" validate:"required"`
	Longitude *float64 `json:"lng" validate:"required"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	PlaceName string   `json:"place_name,omitempty"`
}

// Registry indexes flows by name.
type Registry struct {
	flows map[string]Flow
}

// NewRegistry builds the step tables of every flow with the given validator.
func NewRegistry(validate *validator.Validate, translator ut.Translator) (*Registry, error) {
	b := builder{validate: validate, translator: translator}
	reg := &Registry{flows: make(map[string]Flow)}
	for _, f := range []Flow{
		b.candidateEnrollment(),
		b.communityDrive(),
		b.companyRegistration(),
		b.placementDrive(),
		b.studentDetails(),
	} {
		if err := f.Steps.Validate(); err != nil {
			return nil, errors.Wrapf(err, "flow %q", f.Name)
		}
		reg.flows[f.Name] = f
	}
	return reg, nil
}

// DefaultRegistry builds the registry with the application validator.
func DefaultRegistry() *Registry {
	translator := core.NewTranslator()
	reg, err := NewRegistry(core.NewValidator(translator), translator)
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup returns the flow called name, wizard.ErrUnknownFlow if there is none.
func (reg *Registry) Lookup(name string) (Flow, error) {
	f, ok := reg.flows[name]
	if !ok {
		return Flow{}, errors.Wrap(wizard.ErrUnknownFlow, name)
	}
	return f, nil
}

// All returns the flows sorted by name.
func (reg *Registry) All() []Flow {
	all := make([]Flow, 0, len(reg.flows))
	for _, f := range reg.flows {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// DraftKey is the stable draft key of one run of a flow, eg. "candidate_enrollment:42".
func DraftKey(flow, id string) string {
	return flow + ":" + id
}

type builder struct {
	validate   *validator.Validate
	translator ut.Translator
}

func (b builder) rule(newFunc func() interface{}) wizard.Rule {
	return wizard.Struct(b.validate, b.translator, newFunc)
}
