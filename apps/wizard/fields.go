package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/wizard"
)

const photoAttached = "photo attached, type a file path to replace it"

var (
	errNotANumber  = errors.New("not a number")
	errBadLocation = errors.New(`expected "latitude, longitude"`)
	errNotAnImage  = errors.New("not a JPEG or PNG image")
)

// fieldInput is the editor of one step field.
type fieldInput struct {
	field   wizard.Field
	input   textinput.Model
	checked bool // KindBool
	changed bool
}

func newFieldInput(f wizard.Field, state draft.State) fieldInput {
	fi := fieldInput{field: f, input: textinput.New()}
	fi.input.Prompt = "> "
	fi.input.CharLimit = 512

	v, _ := state.Get(f.Name)
	switch f.Kind {
	case wizard.KindBool:
		fi.checked, _ = v.(bool)
	case wizard.KindPhoto:
		fi.input.Placeholder = "path/to/photo.jpg"
		if s, ok := v.(string); ok && s != "" {
			fi.input.Placeholder = photoAttached
		}
	case wizard.KindLocation:
		fi.input.Placeholder = "20.2961, 85.8245"
		fi.input.SetValue(displayValue(f, v))
	case wizard.KindDate:
		fi.input.Placeholder = "YYYY-MM-DD"
		fi.input.SetValue(displayValue(f, v))
	case wizard.KindList:
		fi.input.Placeholder = "comma separated"
		fi.input.SetValue(displayValue(f, v))
	default:
		fi.input.SetValue(displayValue(f, v))
	}
	return fi
}

// displayValue renders a state value in a text input.
func displayValue(f wizard.Field, v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if f.Kind == wizard.KindPhoto {
			return ""
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []interface{}:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
		return strings.Join(items, ", ")
	case map[string]interface{}:
		if f.Kind == wizard.KindLocation {
			lat, _ := val["lat"].(float64)
			lng, _ := val["lng"].(float64)
			return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lng, 'f', -1, 64)
		}
	}
	return fmt.Sprint(v)
}

// parseValue converts the raw input of a field to its state value. nil means "no value".
// readFile loads photo files.
func parseValue(f wizard.Field, raw string, checked bool, readFile func(string) ([]byte, error)) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case wizard.KindBool:
		return checked, nil
	case wizard.KindNumber:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errNotANumber
		}
		return n, nil
	case wizard.KindList:
		items := make([]interface{}, 0)
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case wizard.KindLocation:
		if raw == "" {
			return nil, nil
		}
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return nil, errBadLocation
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, errBadLocation
		}
		return map[string]interface{}{"lat": lat, "lng": lng}, nil
	case wizard.KindPhoto:
		if raw == "" {
			return nil, nil
		}
		if strings.HasPrefix(raw, "data:") {
			return raw, nil
		}
		data, err := readFile(raw)
		if err != nil {
			return nil, errors.Wrap(err, "reading photo")
		}
		mime := http.DetectContentType(data)
		if mime != media.MimeJPEG && mime != media.MimePNG {
			return nil, errNotAnImage
		}
		return media.DataURL(mime, data), nil
	}
	return raw, nil
}
