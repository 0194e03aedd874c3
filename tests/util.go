package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/core/wizard"
)

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	flow, draftKey string,
	steps []wizard.PayloadStep,
	submittedAt ...time.Time,
) submission.Record {
	tstamp := time.Now().UTC()
	if len(submittedAt) > 0 {
		tstamp = submittedAt[0].UTC()
	}
	rec := submission.NewRecord(wizard.Payload{
		ID:          uuid.New(),
		Flow:        flow,
		DraftKey:    draftKey,
		SubmittedAt: tstamp,
		Steps:       steps,
	})
	rec, err := repo.CreateSubmission(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return rec
}
