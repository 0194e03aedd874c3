package flows

import "github.com/trezcool/kaushal/core/wizard"

type companyInfo struct {
	Name     string `json:"name" validate:"required,notblank"`
	Industry string `json:"industry" validate:"required,notblank"`
	Size     string `json:"size" validate:"required,notblank"`
}

type companyContact struct {
	Person string `json:"person" validate:"required,notblank"`
	Email  string `json:"email" validate:"required,notblank"`
	Phone  string `json:"phone" validate:"required,notblank"`
}

type companyAddress struct {
	Line1   string `json:"line1" validate:"required,notblank"`
	City    string `json:"city" validate:"required,notblank"`
	State   string `json:"state" validate:"required,notblank"`
	Pincode string `json:"pincode" validate:"required,notblank"`
}

func (b builder) companyRegistration() Flow {
	return Flow{
		Name:  CompanyRegistration,
		Title: "Company registration",
		Steps: wizard.Steps{
			{
				ID:    "company",
				Title: "Company",
				Fields: []wizard.Field{
					{Name: "name", Label: "Company name", Kind: wizard.KindText, Required: true},
					{Name: "industry", Label: "Industry", Kind: wizard.KindText, Required: true},
					{Name: "size", Label: "Company size", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(companyInfo) }),
			},
			{
				ID:    "contact",
				Title: "Contact",
				Fields: []wizard.Field{
					{Name: "person", Label: "Contact person", Kind: wizard.KindText, Required: true},
					{Name: "email", Label: "Email", Kind: wizard.KindText, Required: true},
					{Name: "phone", Label: "Phone", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(companyContact) }),
			},
			{
				ID:    "address",
				Title: "Address",
				Fields: []wizard.Field{
					{Name: "line1", Label: "Address line", Kind: wizard.KindText, Required: true},
					{Name: "city", Label: "City", Kind: wizard.KindText, Required: true},
					{Name: "state", Label: "State", Kind: wizard.KindText, Required: true},
					{Name: "pincode", Label: "Pincode", Kind: wizard.KindText, Required: true},
				},
				Rule: b.rule(func() interface{} { return new(companyAddress) }),
			},
			{ID: "review", Title: "Review"},
		},
	}
}
