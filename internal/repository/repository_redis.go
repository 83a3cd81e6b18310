package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"SequenceGame/internal/game/engine"
	"SequenceGame/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRepo ttl<=0 表示不过期
func NewRedisRepo(rdb *redis.Client, ttl time.Duration) Repo {
	return &redisRepo{rdb: rdb, ttl: ttl}
}

// key 约定：
//
//	kv : seq:game:{id}  -> JSON 快照（带 TTL）
//	set: seq:games      -> Set(id,...)，List 时顺带清理已过期的成员
const indexKey = "seq:games"

func gameKey(id uuid.UUID) string {
	return fmt.Sprintf("seq:game:%s", id)
}

func (r *redisRepo) Save(ctx context.Context, s *engine.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	p := r.rdb.TxPipeline()
	p.Set(ctx, gameKey(s.ID), data, r.ttl)
	p.SAdd(ctx, indexKey, s.ID.String())
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) Load(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error) {
	data, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s engine.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &s, nil
}

func (r *redisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	p := r.rdb.TxPipeline()
	p.Del(ctx, gameKey(id))
	p.SRem(ctx, indexKey, id.String())
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) List(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	exists := make([]*redis.IntCmd, 0, len(members))
	p := r.rdb.Pipeline()
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			utils.Log.Warn("dropping malformed game id from index", "member", m)
			p.SRem(ctx, indexKey, m)
			continue
		}
		ids = append(ids, id)
		exists = append(exists, p.Exists(ctx, gameKey(id)))
	}
	if _, err := p.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	// 快照已过期的成员从索引中移除
	live := ids[:0]
	var stale []any
	for i, id := range ids {
		if exists[i].Val() == 0 {
			stale = append(stale, id.String())
			continue
		}
		live = append(live, id)
	}
	if len(stale) > 0 {
		if err := r.rdb.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(live, compareIDs)
	return live, nil
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
