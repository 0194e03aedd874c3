// Package storage opens the repositories of the configured draft backend.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/storage/database"
	inmemdb "github.com/trezcool/kaushal/storage/database/inmem"
	redisrepos "github.com/trezcool/kaushal/storage/database/redis"
	sqlxrepos "github.com/trezcool/kaushal/storage/database/sqlx"
)

var ErrUnknownBackend = errors.New("unknown draft backend")

// Storage holds the repositories. Submissions live in postgres unless the backend is "memory".
type Storage struct {
	Drafts      draft.Repository
	Submissions submission.Repository
	DB          *sqlx.DB      // nil with the memory backend
	Redis       *redis.Client // only with the redis backend
}

// Open connects to the backend named by conf.DraftBackend, creating & migrating the database if needed.
func Open(ctx context.Context, conf *core.Config) (*Storage, error) {
	switch conf.DraftBackend {
	case core.DraftBackendMemory, "":
		db := inmemdb.Open()
		return &Storage{
			Drafts:      inmemdb.NewDraftRepository(db),
			Submissions: inmemdb.NewSubmissionRepository(db),
		}, nil

	case core.DraftBackendPostgres, core.DraftBackendRedis:
		db, err := setUpDB(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		st := &Storage{
			Drafts:      sqlxrepos.NewDraftRepository(db),
			Submissions: sqlxrepos.NewSubmissionRepository(db),
			DB:          db,
		}
		if conf.DraftBackend == core.DraftBackendRedis {
			if st.Redis, err = redisrepos.Open(ctx, conf); err != nil {
				_ = db.Close()
				return nil, errors.Wrap(err, "connecting to redis")
			}
			st.Drafts = redisrepos.NewDraftRepository(st.Redis, conf.Redis.KeyPrefix)
		}
		return st, nil
	}
	return nil, errors.Wrap(ErrUnknownBackend, conf.DraftBackend)
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the open connections, returning the first error.
func (st *Storage) Close() error {
	var err error
	if st.Redis != nil {
		err = errors.Wrap(st.Redis.Close(), "closing redis")
	}
	if st.DB != nil {
		if dbErr := st.DB.Close(); dbErr != nil && err == nil {
			err = errors.Wrap(dbErr, "closing database")
		}
	}
	return err
}
