// Package redisrepos keeps drafts in redis, one string value per draft key.
package redisrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

// Open connects to redis and checks it is reachable.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Addr)
	}
	return rdb, nil
}

type draftRepository struct {
	rdb    redis.Cmdable
	prefix string
}

var _ draft.Repository = (*draftRepository)(nil)

func NewDraftRepository(rdb redis.Cmdable, prefix string) draft.Repository {
	return &draftRepository{rdb: rdb, prefix: prefix}
}

func (repo *draftRepository) key(k string) string { return repo.prefix + k }

func (repo *draftRepository) GetDraft(ctx context.Context, key string) ([]byte, error) {
	doc, err := repo.rdb.Get(ctx, repo.key(key)).Bytes()
	if err == redis.Nil {
		return nil, draft.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting draft")
	}
	return doc, nil
}

func (repo *draftRepository) PutDraft(ctx context.Context, key string, doc []byte) error {
	if err := repo.rdb.Set(ctx, repo.key(key), doc, 0).Err(); err != nil {
		return errors.Wrap(err, "setting draft")
	}
	return nil
}

func (repo *draftRepository) DeleteDraft(ctx context.Context, key string) error {
	if err := repo.rdb.Del(ctx, repo.key(key)).Err(); err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return nil
}

func (repo *draftRepository) ListDraftKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	iter := repo.rdb.Scan(ctx, 0, repo.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), repo.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning draft keys")
	}
	return keys, nil
}
