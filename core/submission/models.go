// Package submission records final wizard payloads and notifies their submitters.
package submission

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/wizard"
)

var (
	ErrNotFound = errors.New("submission not found")

	// AllowedOrderings maps the orderings accepted by QuerySubmissions to their columns.
	AllowedOrderings = map[string]string{
		"submitted_at": "submitted_at",
		"flow":         "flow",
		"draft_key":    "draft_key",
	}
	DefaultOrdering = "submitted_at DESC"
)

// Record is a stored submission.
type Record struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Flow        string         `json:"flow" db:"flow"`
	DraftKey    string         `json:"draft_key" db:"draft_key"`
	Payload     wizard.Payload `json:"payload" db:"-"`
	SubmittedAt time.Time      `json:"submitted_at" db:"submitted_at"` // UTC
}

// NewRecord returns the record of a payload.
func NewRecord(p wizard.Payload) Record {
	return Record{
		ID:          p.ID,
		Flow:        p.Flow,
		DraftKey:    p.DraftKey,
		Payload:     p,
		SubmittedAt: p.SubmittedAt.UTC(),
	}
}

// PayloadJSON is the payload as stored.
func (rec Record) PayloadJSON() ([]byte, error) {
	return json.Marshal(rec.Payload)
}

type Repository interface {
	CreateSubmission(ctx context.Context, rec Record) (Record, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (Record, error)
	// QuerySubmissions applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on the draft key or anywhere in the payload.
	QuerySubmissions(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Record, error)
}

type QueryFilter struct {
	Flow          string    `query:"flow"`
	Search        string    `query:"search"`
	SubmittedFrom time.Time `query:"submitted_from"`
	SubmittedTo   time.Time `query:"submitted_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Flow == "" && qf.Search == "" && qf.SubmittedFrom.IsZero() && qf.SubmittedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Flow = core.CleanString(qf.Flow, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

// Match reports whether rec passes the filter. Repositories without a query language use it.
func (qf QueryFilter) Match(rec Record) bool {
	if qf.Flow != "" && rec.Flow != qf.Flow {
		return false
	}
	if !qf.SubmittedFrom.IsZero() && rec.SubmittedAt.Before(qf.SubmittedFrom) {
		return false
	}
	if !qf.SubmittedTo.IsZero() && rec.SubmittedAt.After(qf.SubmittedTo) {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if strings.Contains(strings.ToLower(rec.DraftKey), search) {
			return true
		}
		data, err := rec.PayloadJSON()
		return err == nil && strings.Contains(strings.ToLower(string(data)), search)
	}
	return true
}
