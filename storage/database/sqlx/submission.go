package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/submission"
)

type submissionRow struct {
	ID          uuid.UUID `db:"id"`
	Flow        string    `db:"flow"`
	DraftKey    string    `db:"draft_key"`
	Payload     []byte    `db:"payload"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (row submissionRow) record() (submission.Record, error) {
	rec := submission.Record{
		ID:          row.ID,
		Flow:        row.Flow,
		DraftKey:    row.DraftKey,
		SubmittedAt: row.SubmittedAt.UTC(),
	}
	if err := json.Unmarshal(row.Payload, &rec.Payload); err != nil {
		return submission.Record{}, errors.Wrapf(err, "decoding submission %s", row.ID)
	}
	return rec, nil
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, rec submission.Record) (submission.Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	payload, err := rec.PayloadJSON()
	if err != nil {
		return submission.Record{}, errors.Wrap(err, "encoding submission")
	}

	const q = `
		INSERT INTO submissions (id, flow, draft_key, payload, submitted_at)
		VALUES (:id, :flow, :draft_key, :payload, :submitted_at)`
	row := submissionRow{ID: rec.ID, Flow: rec.Flow, DraftKey: rec.DraftKey, Payload: payload, SubmittedAt: rec.SubmittedAt}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return submission.Record{}, errors.Wrap(err, "inserting submission")
	}
	return rec, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id uuid.UUID) (submission.Record, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, flow, draft_key, payload, submitted_at FROM submissions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return submission.Record{}, submission.ErrNotFound
	}
	if err != nil {
		return submission.Record{}, errors.Wrap(err, "selecting submission")
	}
	return row.record()
}

func (repo *submissionRepository) QuerySubmissions(
	ctx context.Context,
	filter submission.QueryFilter,
	orderings ...core.DBOrdering,
) ([]submission.Record, error) {
	q, args := querySubmissions(filter, orderings)
	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}

	recs := make([]submission.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// querySubmissions builds the SELECT of QuerySubmissions with `?` bind vars.
func querySubmissions(filter submission.QueryFilter, orderings []core.DBOrdering) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Flow != "" {
		where = append(where, "flow = ?")
		args = append(args, filter.Flow)
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		where = append(where, "(draft_key ILIKE ? OR payload::text ILIKE ?)")
		args = append(args, val, val)
	}
	if !filter.SubmittedFrom.IsZero() {
		where = append(where, "submitted_at >= ?")
		args = append(args, filter.SubmittedFrom.UTC())
	}
	if !filter.SubmittedTo.IsZero() {
		where = append(where, "submitted_at <= ?")
		args = append(args, filter.SubmittedTo.UTC())
	}

	var b strings.Builder
	b.WriteString("SELECT id, flow, draft_key, payload, submitted_at FROM submissions")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(core.JoinOrderings(core.CleanOrderings(orderings, submission.AllowedOrderings), submission.DefaultOrdering))
	return b.String(), args
}
