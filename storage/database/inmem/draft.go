package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/kaushal/core/draft"
)

type draftRepository struct {
	db *draftTable
}

var _ draft.Repository = (*draftRepository)(nil)

func NewDraftRepository(db *DB) draft.Repository {
	return &draftRepository{db: db.draft}
}

func (repo *draftRepository) GetDraft(_ context.Context, key string) ([]byte, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	doc, ok := repo.db.table[key]
	if !ok {
		return nil, draft.ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (repo *draftRepository) PutDraft(_ context.Context, key string, doc []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[key] = append([]byte(nil), doc...)
	return nil
}

func (repo *draftRepository) DeleteDraft(_ context.Context, key string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, key)
	return nil
}

func (repo *draftRepository) ListDraftKeys(context.Context) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	keys := make([]string, 0, len(repo.db.table))
	for k := range repo.db.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
