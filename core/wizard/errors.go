package wizard

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
)

var (
	ErrUnknownFlow     = errors.New("unknown flow")
	ErrUnknownStep     = errors.New("unknown step")
	ErrNotCurrentStep  = errors.New("only the current step can be edited")
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrNotOnLastStep   = errors.New("submission is only possible from the last step")
)

// IncompleteError is returned when a submission is attempted while some steps are invalid.
// Nothing has been submitted.
type IncompleteError struct {
	Fields []core.FieldError // Field is "<step id>.<field>"
}

func (err *IncompleteError) Error() string {
	steps := make([]string, 0, len(err.Fields))
	seen := make(map[string]struct{}, len(err.Fields))
	for _, f := range err.Fields {
		step := strings.SplitN(f.Field, ".", 2)[0]
		if _, ok := seen[step]; !ok {
			seen[step] = struct{}{}
			steps = append(steps, step)
		}
	}
	return fmt.Sprintf("incomplete steps: %s", strings.Join(steps, ", "))
}

// ValidationError converts the error for the HTTP layer.
func (err *IncompleteError) ValidationError() *core.ValidationError {
	return &core.ValidationError{Err: err, Fields: err.Fields}
}

// SubmissionError wraps a failure of the Submitter. The draft was left untouched.
type SubmissionError struct {
	DraftKey string
	Err      error
}

func (err *SubmissionError) Error() string {
	return fmt.Sprintf("submitting draft %q: %v", err.DraftKey, err.Err)
}

func (err *SubmissionError) Unwrap() error { return err.Err }
