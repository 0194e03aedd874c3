// Package sqlxrepos implements the repositories on postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/draft"
)

type draftRepository struct {
	db *sqlx.DB
}

var _ draft.Repository = (*draftRepository)(nil)

func NewDraftRepository(db *sqlx.DB) draft.Repository {
	return &draftRepository{db: db}
}

func (repo *draftRepository) GetDraft(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := repo.db.GetContext(ctx, &doc, `SELECT document FROM drafts WHERE draft_key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, draft.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting draft")
	}
	return doc, nil
}

func (repo *draftRepository) PutDraft(ctx context.Context, key string, doc []byte) error {
	const q = `
		INSERT INTO drafts (draft_key, document, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (draft_key) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, q, key, doc); err != nil {
		return errors.Wrap(err, "upserting draft")
	}
	return nil
}

func (repo *draftRepository) DeleteDraft(ctx context.Context, key string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM drafts WHERE draft_key = $1`, key); err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return nil
}

func (repo *draftRepository) ListDraftKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	if err := repo.db.SelectContext(ctx, &keys, `SELECT draft_key FROM drafts ORDER BY draft_key`); err != nil {
		return nil, errors.Wrap(err, "selecting draft keys")
	}
	return keys, nil
}
