package main

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/wizard"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fakeReadFile(name string) ([]byte, error) {
	switch name {
	case "photo.png":
		return pngHeader, nil
	case "notes.txt":
		return []byte("hello"), nil
	}
	return nil, os.ErrNotExist
}

func Test_parseValue(t *testing.T) {
	field := func(kind string) wizard.Field { return wizard.Field{Name: "f", Label: "F", Kind: kind} }

	tests := []struct {
		name    string
		kind    string
		raw     string
		checked bool
		want    interface{}
		wantErr error
	}{
		{name: "text", kind: wizard.KindText, raw: " Acme ", want: "Acme"},
		{name: "empty text", kind: wizard.KindText, raw: "", want: ""},
		{name: "date", kind: wizard.KindDate, raw: "2024-03-01", want: "2024-03-01"},
		{name: "number", kind: wizard.KindNumber, raw: "42.5", want: 42.5},
		{name: "empty number", kind: wizard.KindNumber, raw: "  ", want: nil},
		{name: "bad number", kind: wizard.KindNumber, raw: "lots", wantErr: errNotANumber},
		{name: "checked", kind: wizard.KindBool, checked: true, want: true},
		{name: "unchecked", kind: wizard.KindBool, raw: "ignored", want: false},
		{name: "list", kind: wizard.KindList, raw: "Fitter, Welder,, ", want: []interface{}{"Fitter", "Welder"}},
		{name: "empty list", kind: wizard.KindList, raw: "", want: []interface{}{}},
		{name: "location", kind: wizard.KindLocation, raw: "20.29, 85.82", want: map[string]interface{}{"lat": 20.29, "lng": 85.82}},
		{name: "empty location", kind: wizard.KindLocation, want: nil},
		{name: "bad location", kind: wizard.KindLocation, raw: "20.29", wantErr: errBadLocation},
		{name: "location not numbers", kind: wizard.KindLocation, raw: "north, east", wantErr: errBadLocation},
		{name: "photo data URL kept", kind: wizard.KindPhoto, raw: "data:image/png;base64,AA", want: "data:image/png;base64,AA"},
		{name: "photo file", kind: wizard.KindPhoto, raw: "photo.png", want: media.DataURL(media.MimePNG, pngHeader)},
		{name: "photo not an image", kind: wizard.KindPhoto, raw: "notes.txt", wantErr: errNotAnImage},
		{name: "photo missing file", kind: wizard.KindPhoto, raw: "gone.jpg", wantErr: os.ErrNotExist},
		{name: "empty photo", kind: wizard.KindPhoto, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(field(tt.kind), tt.raw, tt.checked, fakeReadFile)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_displayValue(t *testing.T) {
	tests := []struct {
		name string
		kind string
		v    interface{}
		want string
	}{
		{name: "nil", kind: wizard.KindText, want: ""},
		{name: "text", kind: wizard.KindText, v: "Acme", want: "Acme"},
		{name: "number", kind: wizard.KindNumber, v: float64(2020), want: "2020"},
		{name: "fraction", kind: wizard.KindNumber, v: 20.5, want: "20.5"},
		{name: "list", kind: wizard.KindList, v: []interface{}{"Fitter", "Welder"}, want: "Fitter, Welder"},
		{name: "location", kind: wizard.KindLocation, v: map[string]interface{}{"lat": 20.29, "lng": 85.82, "accuracy": 5.0}, want: "20.29, 85.82"},
		{name: "photo hidden", kind: wizard.KindPhoto, v: "data:image/png;base64,AA", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayValue(wizard.Field{Kind: tt.kind}, tt.v))
		})
	}
}
