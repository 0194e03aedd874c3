package flows

import (
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/wizard"
)

type jobRole struct {
	Role    string `json:"role" validate:"required,notblank"`
	Project string `json:"project" validate:"required,notblank"`
}

type postalAddress struct {
	City    string `json:"city" validate:"required,notblank"`
	State   string `json:"state" validate:"required,notblank"`
	Pincode string `json:"pincode" validate:"required,notblank"`
}

type candidateAddress struct {
	Latitude  *float64      `json:"lat" validate:"required"`
	Longitude *float64      `json:"lng" validate:"required"`
	Address   postalAddress `json:"address"`
}

type candidatePersonal struct {
	Name        string `json:"name" validate:"required,notblank"`
	Gender      string `json:"gender" validate:"required,notblank"`
	DateOfBirth string `json:"dob" validate:"required,notblank"`
	Mobile      string `json:"mobile" validate:"required,notblank"`
	Education   string `json:"education" validate:"required,notblank"`
	Declaration bool   `json:"declaration"`
}

type liveCapture struct {
	Photo    string    `json:"photo" validate:"required,notblank"`
	Location *Location `json:"location" validate:"required"`
}

func (b builder) candidateEnrollment() Flow {
	return Flow{
		Name:  CandidateEnrollment,
		Title: "Candidate enrollment",
		Steps: wizard.Steps{
			{
				ID:    "job_role",
				Title: "Job role",
				Fields: []wizard.Field{
					{Name: "role", Label: "Job role", Kind: wizard.KindText, Required: true},
					{Name: "project", Label: "Project", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(jobRole) }),
			},
			{
				ID:    "address",
				Title: "Address",
				Fields: []wizard.Field{
					{Name: "lat", Label: "Latitude", Kind: wizard.KindNumber, Required: true},
					{Name: "lng", Label: "Longitude", Kind: wizard.KindNumber, Required: true},
					{Name: "address.city", Label: "City", Kind: wizard.KindText, Required: true},
					{Name: "address.state", Label: "State", Kind: wizard.KindText, Required: true},
					{Name: "address.pincode", Label: "Pincode", Kind: wizard.KindText, Required: true},
				},
				Initial: func() draft.State {
					return draft.State{"address": map[string]interface{}{"city": "", "state": "", "pincode": ""}}
				},
				Rule: b.rule(func() interface{} { return new(candidateAddress) }),
			},
			{
				ID:    "personal",
				Title: "Personal details",
				Fields: []wizard.Field{
					{Name: "name", Label: "Full name", Kind: wizard.KindText, Required: true},
					{Name: "gender", Label: "Gender", Kind: wizard.KindText, Required: true},
					{Name: "dob", Label: "Date of birth", Kind: wizard.KindDate, Required: true},
					{Name: "mobile", Label: "Mobile number", Kind: wizard.KindText, Required: true},
					{Name: "education", Label: "Education", Kind: wizard.KindText, Required: true},
					{Name: "declaration", Label: "I confirm the details above are correct", Kind: wizard.KindBool, Required: true},
				},
				Initial: func() draft.State { return draft.State{"declaration": false} },
				Rule: wizard.All(
					b.rule(func() interface{} { return new(candidatePersonal) }),
					wizard.Checked("declaration"),
				),
			},
			{
				ID:    "live_capture",
				Title: "Live capture",
				Fields: []wizard.Field{
					{Name: "photo", Label: "Photo", Kind: wizard.KindPhoto, Required: true},
					{Name: "location", Label: "Location", Kind: wizard.KindLocation, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(liveCapture) }),
			},
		},
	}
}

type studentBasic struct {
	Name    string `json:"name" validate:"required,notblank"`
	Batch   string `json:"batch" validate:"required,notblank"`
	Trainer string `json:"trainer" validate:"required,notblank"`
}

type studentAcademics struct {
	Qualification string   `json:"qualification" validate:"required,notblank"`
	PassingYear   *float64 `json:"passing_year" validate:"required"`
}

type studentDocuments struct {
	Photo string `json:"photo" validate:"required,notblank"`
}

func (b builder) studentDetails() Flow {
	return Flow{
		Name:  StudentDetails,
		Title: "Student details",
		Steps: wizard.Steps{
			{
				ID:    "basic",
				Title: "Basic information",
				Fields: []wizard.Field{
					{Name: "name", Label: "Student name", Kind: wizard.KindText, Required: true},
					{Name: "batch", Label: "Batch", Kind: wizard.KindText, Required: true},
					{Name: "trainer", Label: "Trainer", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(studentBasic) }),
			},
			{
				ID:    "academics",
				Title: "Academics",
				Fields: []wizard.Field{
					{Name: "qualification", Label: "Highest qualification", Kind: wizard.KindText, Required: true},
					{Name: "passing_year", Label: "Passing year", Kind: wizard.KindNumber, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(studentAcademics) }),
			},
			{
				ID:    "documents",
				Title: "Documents",
				Fields: []wizard.Field{
					{Name: "photo", Label: "Photo", Kind: wizard.KindPhoto, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(studentDocuments) }),
			},
		},
	}
}
