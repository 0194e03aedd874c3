package wizard

import (
	"encoding/json"
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

var (
	requiredText = "this field is required"
	checkedText  = "this box must be checked"
	invalidText  = "invalid value"
)

// Rule is a pure validation of one step's state.
type Rule interface {
	Check(state draft.State) []core.FieldError
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(state draft.State) []core.FieldError

func (f RuleFunc) Check(state draft.State) []core.FieldError { return f(state) }

// Valid reports whether state satisfies rule. A nil rule always passes.
func Valid(rule Rule, state draft.State) bool {
	return rule == nil || len(rule.Check(state)) == 0
}

// Required checks that every path holds a present value:
// not null, not a blank string, not an empty list or object.
// Numbers (zero included) and booleans are present as soon as they are set.
func Required(paths ...string) Rule {
	return RuleFunc(func(state draft.State) []core.FieldError {
		var errs []core.FieldError
		for _, p := range paths {
			if v, ok := state.Get(p); !ok || !present(v) {
				errs = append(errs, core.FieldError{Field: p, Error: requiredText})
			}
		}
		return errs
	})
}

// Checked checks that path holds true, eg. a declaration checkbox.
func Checked(path string) Rule {
	return RuleFunc(func(state draft.State) []core.FieldError {
		if v, _ := state.Get(path); v != true {
			return []core.FieldError{{Field: path, Error: checkedText}}
		}
		return nil
	})
}

// All combines rules: the state is valid only if every rule passes.
func All(rules ...Rule) Rule {
	return RuleFunc(func(state draft.State) []core.FieldError {
		var errs []core.FieldError
		for _, r := range rules {
			if r == nil {
				continue
			}
			errs = append(errs, r.Check(state)...)
		}
		return errs
	})
}

// Struct decodes the state into the value returned by newFunc (a struct pointer)
// and runs the validator on its `validate` tags.
// A state that cannot be decoded into the struct reports the offending field as invalid.
func Struct(validate *validator.Validate, translator ut.Translator, newFunc func() interface{}) Rule {
	return RuleFunc(func(state draft.State) []core.FieldError {
		obj := newFunc()
		data, err := json.Marshal(state)
		if err != nil {
			return []core.FieldError{{Field: "", Error: err.Error()}}
		}
		if err := json.Unmarshal(data, obj); err != nil {
			field := ""
			if ute, ok := err.(*json.UnmarshalTypeError); ok {
				field = ute.Field
			}
			return []core.FieldError{{Field: field, Error: invalidText}}
		}
		if err := validate.Struct(obj); err != nil {
			if vErrs, ok := err.(validator.ValidationErrors); ok {
				return core.TranslateValidationErrors(vErrs, translator)
			}
			return []core.FieldError{{Field: "", Error: err.Error()}}
		}
		return nil
	})
}

func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool, float64, float32, int, int64, int32:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
