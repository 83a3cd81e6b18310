package matchmaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	set: mm:pool:{pool}:{tableSize}   -> Set(ticket,...)
//	kv : mm:ticket:{ticket}           -> JSON Ticket（取消时据此定位池；TTL 防止长期遗留）
//	kv : mm:assign:{ticket}           -> JSON Assignment
func poolKey(pool string, tableSize int) string {
	return fmt.Sprintf("mm:pool:%s:%d", pool, tableSize)
}
func ticketKey(id string) string {
	return fmt.Sprintf("mm:ticket:%s", id)
}
func assignKey(id string) string {
	return fmt.Sprintf("mm:assign:%s", id)
}

func ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func (r *redisRepo) Enqueue(ctx context.Context, t Ticket, ttlSeconds int) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	p := r.rdb.Pipeline()
	p.SAdd(ctx, poolKey(t.Pool, t.TableSize), t.ID)
	p.Set(ctx, ticketKey(t.ID), data, ttl(ttlSeconds))
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) PopNRandom(ctx context.Context, pool string, tableSize int, n int) ([]Ticket, error) {
	key := poolKey(pool, tableSize)
	// SPOP COUNT 一次随机弹出 n 个元素并从集合删除（原子）
	ids, err := r.rdb.SPopN(ctx, key, int64(n)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Ticket{}, nil
	}

	p := r.rdb.Pipeline()
	gets := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		gets[i] = p.Get(ctx, ticketKey(id))
		p.Del(ctx, ticketKey(id))
	}
	if _, err := p.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make([]Ticket, 0, len(ids))
	for _, g := range gets {
		data, err := g.Bytes()
		if err != nil {
			// 票已过期
			continue
		}
		var t Ticket
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *redisRepo) Remove(ctx context.Context, ticket string) error {
	data, err := r.rdb.Get(ctx, ticketKey(ticket)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	var t Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		// 格式不对，仍删除 ticketKey 并返回
		_ = r.rdb.Del(ctx, ticketKey(ticket)).Err()
		return nil
	}

	poolK := poolKey(t.Pool, t.TableSize)
	ticketK := ticketKey(ticket)

	// Lua 脚本：删除 ticketKey、从集合中移除成员；若集合空则删除集合
	// KEYS[1] = ticketKey, KEYS[2] = poolKey, ARGV[1] = ticket
	script := `
        redis.call("DEL", KEYS[1])
        redis.call("SREM", KEYS[2], ARGV[1])
        if redis.call("SCARD", KEYS[2]) == 0 then
            redis.call("DEL", KEYS[2])
        end
        return 1
    `
	if err := r.rdb.Eval(ctx, script, []string{ticketK, poolK}, ticket).Err(); err != nil {
		// 不支持 Eval 时退回非原子实现
		p := r.rdb.Pipeline()
		p.SRem(ctx, poolK, ticket)
		p.Del(ctx, ticketK)
		if _, execErr := p.Exec(ctx); execErr != nil {
			return execErr
		}
		if n, _ := r.rdb.SCard(ctx, poolK).Result(); n == 0 {
			_ = r.rdb.Del(ctx, poolK).Err()
		}
	}
	return nil
}

func (r *redisRepo) Count(ctx context.Context, pool string, tableSize int) (int64, error) {
	return r.rdb.SCard(ctx, poolKey(pool, tableSize)).Result()
}

func (r *redisRepo) SaveAssignment(ctx context.Context, a Assignment, ttlSeconds int) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, assignKey(a.Ticket), data, ttl(ttlSeconds)).Err()
}

func (r *redisRepo) Assignment(ctx context.Context, ticket string) (Assignment, bool, error) {
	data, err := r.rdb.Get(ctx, assignKey(ticket)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Assignment{}, false, nil
	}
	if err != nil {
		return Assignment{}, false, err
	}
	var a Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return Assignment{}, false, err
	}
	return a, true, nil
}

func (r *redisRepo) DeleteAssignment(ctx context.Context, ticket string) error {
	return r.rdb.Del(ctx, assignKey(ticket)).Err()
}
