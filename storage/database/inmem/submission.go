package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, rec submission.Record) (submission.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	repo.db.table[rec.ID] = rec
	return rec, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id uuid.UUID) (submission.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return rec, nil
	}
	return submission.Record{}, submission.ErrNotFound
}

func (repo *submissionRepository) QuerySubmissions(
	_ context.Context,
	filter submission.QueryFilter,
	orderings ...core.DBOrdering,
) ([]submission.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]submission.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if filter.Match(rec) {
			recs = append(recs, rec)
		}
	}

	orderings = core.CleanOrderings(orderings, submission.AllowedOrderings)
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "submitted_at"}}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(recs[i], recs[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
	return recs, nil
}

func compare(a, b submission.Record, field string) int {
	switch field {
	case "flow":
		return strings.Compare(a.Flow, b.Flow)
	case "draft_key":
		return strings.Compare(a.DraftKey, b.DraftKey)
	default:
		return a.SubmittedAt.Compare(b.SubmittedAt)
	}
}
