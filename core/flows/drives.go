package flows

import (
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/wizard"
)

type driveEvent struct {
	EventName string `json:"event_name" validate:"required,notblank"`
	Project   string `json:"project" validate:"required,notblank"`
	GP        string `json:"gp" validate:"required,notblank"` // gram panchayat
	Date      string `json:"date" validate:"required,notblank"`
}

type driveParticipants struct {
	Mobilizer     string   `json:"mobilizer" validate:"required,notblank"`
	ExpectedCount *float64 `json:"expected_count" validate:"required"`
}

type driveEvidence struct {
	Photo    string    `json:"photo" validate:"required,notblank"`
	Location *Location `json:"location" validate:"required"`
}

func (b builder) communityDrive() Flow {
	return Flow{
		Name:  CommunityDrive,
		Title: "Community drive",
		Steps: wizard.Steps{
			{
				ID:    "event",
				Title: "Event",
				Fields: []wizard.Field{
					{Name: "event_name", Label: "Event name", Kind: wizard.KindText, Required: true},
					{Name: "project", Label: "Project", Kind: wizard.KindText, Required: true},
					{Name: "gp", Label: "Gram panchayat", Kind: wizard.KindText, Required: true},
					{Name: "date", Label: "Date", Kind: wizard.KindDate, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(driveEvent) }),
			},
			{
				ID:    "participants",
				Title: "Participants",
				Fields: []wizard.Field{
					{Name: "mobilizer", Label: "Mobilizer", Kind: wizard.KindText, Required: true},
					{Name: "expected_count", Label: "Expected participants", Kind: wizard.KindNumber, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(driveParticipants) }),
			},
			{
				ID:    "evidence",
				Title: "Evidence",
				Fields: []wizard.Field{
					{Name: "photo", Label: "Photo", Kind: wizard.KindPhoto, Required: true},
					{Name: "location", Label: "Location", Kind: wizard.KindLocation, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(driveEvidence) }),
			},
			{ID: "review", Title: "Review"},
		},
	}
}

type placementDrive struct {
	Title   string `json:"title" validate:"required,notblank"`
	Company string `json:"company" validate:"required,notblank"`
	Date    string `json:"date" validate:"required,notblank"`
	Venue   string `json:"venue" validate:"required,notblank"`
}

type placementRoles struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,notblank"`
}

type placementEligibility struct {
	Qualification string   `json:"qualification" validate:"required,notblank"`
	Batches       []string `json:"batches" validate:"required,min=1"`
}

func (b builder) placementDrive() Flow {
	return Flow{
		Name:  PlacementDrive,
		Title: "Placement drive",
		Steps: wizard.Steps{
			{
				ID:    "drive",
				Title: "Drive",
				Fields: []wizard.Field{
					{Name: "title", Label: "Title", Kind: wizard.KindText, Required: true},
					{Name: "company", Label: "Company", Kind: wizard.KindText, Required: true},
					{Name: "date", Label: "Date", Kind: wizard.KindDate, Required: true},
					{Name: "venue", Label: "Venue", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(placementDrive) }),
			},
			{
				ID:    "roles",
				Title: "Roles",
				Fields: []wizard.Field{
					{Name: "roles", Label: "Open roles", Kind: wizard.KindList, Required: true},
				},
				Initial: func() draft.State { return draft.State{"roles": []interface{}{}} },
				Rule:    b.rule(func() interface{} { return new(placementRoles) }),
			},
			{
				ID:    "eligibility",
				Title: "Eligibility",
				Fields: []wizard.Field{
					{Name: "qualification", Label: "Minimum qualification", Kind: wizard.KindText, Required: true},
					{Name: "batches", Label: "Eligible batches", Kind: wizard.KindList, Required: true},
				},
				Initial: func() draft.State { return draft.State{"batches": []interface{}{}} },
				Rule:    b.rule(func() interface{} { return new(placementEligibility) }),
			},
			{ID: "review", Title: "Review"},
		},
	}
}
