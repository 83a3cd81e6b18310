package matchmaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SequenceGame/internal/game/engine"
	"SequenceGame/internal/game/manager"
	"SequenceGame/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGames() *manager.GameManager {
	return manager.NewGameManager(repository.NewMemoryRepo())
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func join(t *testing.T, svc *Service, ticket, pool string, size int) (*Room, bool) {
	t.Helper()
	room, queued, err := svc.Join(context.Background(), JoinRequest{
		Ticket: ticket, Name: "bot-" + ticket, Pool: pool, TableSize: size,
	})
	require.NoError(t, err)
	return room, queued
}

// 两种实现共用的成桌流程
func exerciseMatchFlow(t *testing.T, repo Repo) {
	ctx := context.Background()
	games := newGames()
	svc := NewService(repo, 60, games)

	pool := "casual"
	size := 3
	tickets := []string{"t1", "t2", "t3", "t4", "t5", "t6"}

	// 入队前两人，不应成桌
	for i := 0; i < 2; i++ {
		room, queued := join(t, svc, tickets[i], pool, size)
		assert.True(t, queued)
		assert.Nil(t, room)
		_, ok, err := svc.Poll(ctx, tickets[i])
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// 第三人入队，应立即成桌
	room, queued := join(t, svc, tickets[2], pool, size)
	require.False(t, queued)
	require.NotNil(t, room)
	assert.ElementsMatch(t, tickets[:3], room.Tickets)
	assert.Equal(t, size, room.TableSize)

	// 对局已开局，每张票都拿到座位
	v, err := games.GameView(ctx, room.GameID, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.InProgress, v.Status)
	assert.Equal(t, size, v.PlayerCount)

	seen := map[string]bool{}
	for i, tk := range room.Tickets {
		a, ok, err := svc.Poll(ctx, tk)
		require.NoError(t, err)
		require.True(t, ok, "ticket %s should be seated", tk)
		assert.Equal(t, room.GameID, a.GameID)
		assert.Equal(t, "bot-"+tk, a.Player.Name)
		if i == 0 {
			assert.Equal(t, v.Host, a.Player.Public, "first ticket hosts the game")
		}
		hand, err := games.Hand(ctx, room.GameID, a.Player.Private)
		require.NoError(t, err)
		assert.Len(t, hand, 6)
		seen[a.Player.Public.String()] = true
	}
	assert.Len(t, seen, size)

	// 再入队 3 人，应再次成桌
	for i := 3; i < 5; i++ {
		_, q := join(t, svc, tickets[i], pool, size)
		assert.True(t, q)
	}
	room2, q2 := join(t, svc, tickets[5], pool, size)
	assert.False(t, q2)
	require.NotNil(t, room2)
	assert.NotEqual(t, room.GameID, room2.GameID)

	cnt, err := repo.Count(ctx, pool, size)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cnt)
}

// ---------- 内存实现测试 ----------
func Test_MemoryRepo_MatchFlow(t *testing.T) {
	exerciseMatchFlow(t, NewMemoryRepo())
}

// ---------- Redis（miniredis）实现测试 ----------
func Test_RedisRepo_MatchFlow(t *testing.T) {
	_, rdb := newMiniRedis(t)
	exerciseMatchFlow(t, NewRedisRepo(rdb))
}

func Test_JoinRejectsBadRequests(t *testing.T) {
	svc := NewService(NewMemoryRepo(), 60, newGames())
	ctx := context.Background()

	_, _, err := svc.Join(ctx, JoinRequest{Pool: "p", TableSize: 2})
	assert.ErrorIs(t, err, ErrMissingTicket)

	for _, size := range []int{0, 1, 5, 7, 13} {
		_, _, err := svc.Join(ctx, JoinRequest{Ticket: "x", Pool: "p", TableSize: size})
		assert.ErrorIs(t, err, ErrInvalidTableSize, "size %d", size)
	}
}

// ---------- 重复匹配保护测试 ----------
func Test_TicketCannotRejoin_WhenAlreadyMatched(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	repo := NewRedisRepo(rdb)
	svc := NewService(repo, 60, newGames())
	ctx := context.Background()

	// 🟢 Step 1: a1 入队，a2 入队 -> 成桌
	_, queued := join(t, svc, "a1", "dup", 2)
	assert.True(t, queued)
	room, queued := join(t, svc, "a2", "dup", 2)
	require.False(t, queued)
	require.NotNil(t, room)
	assert.True(t, mr.Exists("mm:assign:a1"), "assignment should be stored in redis")

	// 🛑 Step 2: a1 再次匹配 -> 应被拒绝
	_, _, err := svc.Join(ctx, JoinRequest{Ticket: "a1", Pool: "dup", TableSize: 2})
	assert.ErrorIs(t, err, ErrAlreadyMatched)

	// 🟡 Step 3: 座位记录过期
	mr.Del("mm:assign:a1")

	// 🟢 Step 4: a1 再次匹配 -> 应允许重新入队
	_, queued = join(t, svc, "a1", "dup", 2)
	assert.True(t, queued)
}

func Test_CancelLeavesPool(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniRedis(t)
	repo := NewRedisRepo(rdb)
	svc := NewService(repo, 60, newGames())

	// a3 入队并取消 -> 不应参与之后的配桌
	_, queued := join(t, svc, "a3", "mtt", 2)
	assert.True(t, queued)
	require.NoError(t, svc.Cancel(ctx, "a3"))
	require.NoError(t, svc.Cancel(ctx, "a3"), "cancelling twice is fine")

	_, queued = join(t, svc, "a4", "mtt", 2)
	assert.True(t, queued)
	room, queued := join(t, svc, "a5", "mtt", 2)
	require.False(t, queued)
	assert.ElementsMatch(t, []string{"a4", "a5"}, room.Tickets)

	_, ok, err := svc.Poll(ctx, "a3")
	require.NoError(t, err)
	assert.False(t, ok)
}

// 过期的票在弹出时被跳过，弹出的其他票放回池中
func Test_ExpiredTicketIsSkipped(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)
	repo := NewRedisRepo(rdb)
	svc := NewService(repo, 60, newGames())

	require.NoError(t, repo.Enqueue(ctx, Ticket{ID: "old", Pool: "p", TableSize: 2}, 1))
	mr.FastForward(2 * time.Second)

	room, queued := join(t, svc, "fresh", "p", 2)
	assert.True(t, queued)
	assert.Nil(t, room)
	cnt, err := repo.Count(ctx, "p", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt, "only the fresh ticket stays queued")

	room, queued = join(t, svc, "next", "p", 2)
	require.False(t, queued)
	assert.ElementsMatch(t, []string{"fresh", "next"}, room.Tickets)
}

// flakyHost 在开关打开时 JoinGame 失败，并记录建过的对局
type flakyHost struct {
	*manager.GameManager
	mu      sync.Mutex
	fail    bool
	created []uuid.UUID
}

var errStoreDown = errors.New("store down")

func (h *flakyHost) CreateGame(ctx context.Context, maxPlayers int, hostName string) (manager.Joined, error) {
	j, err := h.GameManager.CreateGame(ctx, maxPlayers, hostName)
	if err == nil {
		h.mu.Lock()
		h.created = append(h.created, j.GameID)
		h.mu.Unlock()
	}
	return j, err
}

func (h *flakyHost) JoinGame(ctx context.Context, id uuid.UUID, name string) (manager.Joined, error) {
	h.mu.Lock()
	fail := h.fail
	h.mu.Unlock()
	if fail {
		return manager.Joined{}, errStoreDown
	}
	return h.GameManager.JoinGame(ctx, id, name)
}

// 组桌失败：票回到池中，半成品对局被删除，恢复后可以正常成桌
func Test_SeatFailureRequeuesTickets(t *testing.T) {
	ctx := context.Background()
	for name, repo := range map[string]Repo{
		"memory": NewMemoryRepo(),
		"redis":  func() Repo { _, rdb := newMiniRedis(t); return NewRedisRepo(rdb) }(),
	} {
		t.Run(name, func(t *testing.T) {
			games := newGames()
			host := &flakyHost{GameManager: games, fail: true}
			svc := NewService(repo, 60, host)

			_, queued := join(t, svc, "a", "flaky", 2)
			assert.True(t, queued)
			_, _, err := svc.Join(ctx, JoinRequest{Ticket: "b", Name: "bot-b", Pool: "flaky", TableSize: 2})
			assert.ErrorIs(t, err, errStoreDown)

			cnt, err := repo.Count(ctx, "flaky", 2)
			require.NoError(t, err)
			assert.Equal(t, int64(2), cnt, "both tickets are back in the pool")
			for _, tk := range []string{"a", "b"} {
				_, ok, err := svc.Poll(ctx, tk)
				require.NoError(t, err)
				assert.False(t, ok)
			}
			require.Len(t, host.created, 1)
			_, err = games.GameView(ctx, host.created[0], nil)
			assert.ErrorIs(t, err, manager.ErrGameNotFound, "partial game is removed")

			// 🟢 恢复后第三张票入队即成桌
			host.mu.Lock()
			host.fail = false
			host.mu.Unlock()
			room, queued := join(t, svc, "c", "flaky", 2)
			require.False(t, queued)
			require.NotNil(t, room)
			assert.Len(t, room.Tickets, 2)
			cnt, err = repo.Count(ctx, "flaky", 2)
			require.NoError(t, err)
			assert.Equal(t, int64(1), cnt)
		})
	}
}

// Test_RedisRepo_QueueLifecycle 验证 Redis 队列创建与删除的完整生命周期
func Test_RedisRepo_QueueLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)
	repo := NewRedisRepo(rdb)

	pool := "qa-test"
	tableSize := 2
	key := poolKey(pool, tableSize)
	t1 := Ticket{ID: "0xAAA", Name: "a", Pool: pool, TableSize: tableSize}
	t2 := Ticket{ID: "0xBBB", Name: "b", Pool: pool, TableSize: tableSize}

	// 🟢 Step 1: 票1 入队 -> 集合应创建，票带 TTL
	require.NoError(t, repo.Enqueue(ctx, t1, 60))
	assert.True(t, mr.Exists(key), "pool should exist after first enqueue")
	assert.Equal(t, 60*time.Second, mr.TTL(ticketKey(t1.ID)))

	// 🟢 Step 2: 票2 入队 -> 人数 = 2
	require.NoError(t, repo.Enqueue(ctx, t2, 60))
	count, err := repo.Count(ctx, pool, tableSize)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 🟢 Step 3: PopNRandom 取出 2 人 -> 集合与票都被删除
	got, err := repo.PopNRandom(ctx, pool, tableSize, tableSize)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Ticket{t1, t2}, got)
	assert.False(t, mr.Exists(key), "pool key should be deleted after PopNRandom")
	assert.False(t, mr.Exists(ticketKey(t1.ID)))

	// 🟢 Step 4: 空池弹出返回空
	got, err = repo.PopNRandom(ctx, pool, tableSize, tableSize)
	require.NoError(t, err)
	assert.Empty(t, got)

	// 🟢 Step 5: 票3 入队后取消 -> 集合为空应被自动删除
	t3 := Ticket{ID: "0xCCC", Pool: pool, TableSize: tableSize}
	require.NoError(t, repo.Enqueue(ctx, t3, 60))
	assert.True(t, mr.Exists(key))
	require.NoError(t, repo.Remove(ctx, t3.ID))
	assert.False(t, mr.Exists(key), "pool key should be removed when empty after cancel")
	assert.False(t, mr.Exists(ticketKey(t3.ID)))
}

func Test_AssignmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range map[string]Repo{
		"memory": NewMemoryRepo(),
		"redis":  func() Repo { _, rdb := newMiniRedis(t); return NewRedisRepo(rdb) }(),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := repo.Assignment(ctx, "nobody")
			require.NoError(t, err)
			assert.False(t, ok)

			j, err := newGames().CreateGame(ctx, 2, "alice")
			require.NoError(t, err)
			want := Assignment{Ticket: "alice", GameID: j.GameID, Player: j.Player}
			require.NoError(t, repo.SaveAssignment(ctx, want, 60))
			got, ok, err := repo.Assignment(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

// ---------- 并发竞争测试 ----------
func Test_RedisRepo_ConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	_, rdb := newMiniRedis(t)
	repo := NewRedisRepo(rdb)
	svc := NewService(repo, 60, newGames())

	var mu sync.Mutex
	ready := map[uuid.UUID]int{}
	var wg sync.WaitGroup
	wg.Add(2)
	svc.OnRoomReady = func(r *Room) {
		mu.Lock()
		ready[r.GameID] = len(r.Tickets)
		mu.Unlock()
		wg.Done()
	}

	pool := "cash"
	size := 3
	tickets := []string{"A", "B", "C", "D", "E", "F"}

	var joins sync.WaitGroup
	for _, tk := range tickets {
		joins.Add(1)
		go func(tk string) {
			defer joins.Done()
			_, _, err := svc.Join(ctx, JoinRequest{Ticket: tk, Pool: pool, TableSize: size})
			assert.NoError(t, err)
		}(tk)
	}
	joins.Wait()

	// 竞争下可能有票被放回池中；补跑一次让余员成桌
	cnt, err := repo.Count(ctx, pool, size)
	require.NoError(t, err)
	if cnt > 0 {
		require.Equal(t, int64(size), cnt)
		tks, err := repo.PopNRandom(ctx, pool, size, size)
		require.NoError(t, err)
		for _, tk := range tks {
			_, _, err := svc.Join(ctx, JoinRequest{Ticket: tk.ID, Pool: pool, TableSize: size})
			require.NoError(t, err)
		}
	}
	wg.Wait()

	assert.Len(t, ready, 2)
	for _, n := range ready {
		assert.Equal(t, size, n)
	}
	for _, tk := range tickets {
		_, ok, err := svc.Poll(ctx, tk)
		require.NoError(t, err)
		assert.True(t, ok, "ticket %s should be seated", tk)
	}
}
