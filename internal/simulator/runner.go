package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/engine"
	"SequenceGame/internal/game/manager"
	"SequenceGame/internal/game/table"
	"SequenceGame/internal/matchmaker"
	"SequenceGame/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxTurns = 500
	MaxTurnsLimit   = 10000
)

var ErrNotSeated = errors.New("lobby did not seat every bot")

type RunRequest struct {
	Players  int
	MaxTurns int // <= 0 时用 DefaultMaxTurns，上限 MaxTurnsLimit
	Seed     int64
}

type RunResult struct {
	GameID      uuid.UUID     `json:"gameId"`
	Players     int           `json:"players"`
	TurnsPlayed int           `json:"turnsPlayed"`
	MaxTurns    int           `json:"maxTurns"`
	Status      engine.Status `json:"status"`
	Winner      board.Color   `json:"winner,omitempty"`
	Seed        int64         `json:"seed"`
	Duration    time.Duration `json:"duration"`
	Message     string        `json:"message,omitempty"`
}

// Runner 通过大厅让机器人入座，再经 manager 以玩家身份走完整局
type Runner struct {
	games *manager.GameManager
	lobby *matchmaker.Service
	// NewPolicy 每局一个策略，默认 RandomPolicy
	NewPolicy func(seed int64) Policy
}

func NewRunner(games *manager.GameManager, lobby *matchmaker.Service) *Runner {
	return &Runner{
		games:     games,
		lobby:     lobby,
		NewPolicy: func(seed int64) Policy { return NewRandomPolicy(seed) },
	}
}

func (r *Runner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}
	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	maxTurns = min(maxTurns, MaxTurnsLimit)
	start := time.Now()

	gameID, seats, err := r.seat(ctx, req.Players)
	if err != nil {
		return RunResult{}, err
	}
	res := RunResult{
		GameID:   gameID,
		Players:  req.Players,
		MaxTurns: maxTurns,
		Seed:     req.Seed,
	}
	policy := r.NewPolicy(req.Seed)

	for res.TurnsPlayed < maxTurns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		v, err := r.games.GameView(ctx, gameID, nil)
		if err != nil {
			return res, err
		}
		if v.Status != engine.InProgress {
			break
		}
		private, ok := seats[v.CurrentTurn]
		if !ok {
			return res, fmt.Errorf("no seat for current player %s", v.CurrentTurn)
		}
		mine, err := r.games.GameView(ctx, gameID, &private)
		if err != nil {
			return res, err
		}
		moves, err := r.games.LegalMoves(ctx, gameID, private)
		if err != nil {
			return res, err
		}
		if len(moves) == 0 {
			res.Message = "no legal moves for current player"
			break
		}
		if _, err := r.games.Move(ctx, gameID, private, policy.Choose(mine, moves)); err != nil {
			return res, fmt.Errorf("turn %d: %w", res.TurnsPlayed+1, err)
		}
		res.TurnsPlayed++
	}

	v, err := r.games.GameView(ctx, gameID, nil)
	if err != nil {
		return res, err
	}
	res.Status = v.Status
	res.Winner = v.Winner
	res.Duration = time.Since(start)
	if res.Status == engine.InProgress && res.Message == "" {
		res.Message = "turn limit reached"
	}
	utils.Log.Info("simulation finished",
		"game", res.GameID, "players", res.Players, "turns", res.TurnsPlayed,
		"status", res.Status, "winner", res.Winner)
	return res, nil
}

// seat 每个机器人一张票，放进本局专用的池
func (r *Runner) seat(ctx context.Context, players int) (uuid.UUID, map[table.PublicID]table.PrivateID, error) {
	pool := "sim-" + uuid.NewString()
	tickets := make([]string, players)
	var room *matchmaker.Room
	for i := range tickets {
		tickets[i] = uuid.NewString()
		rm, _, err := r.lobby.Join(ctx, matchmaker.JoinRequest{
			Ticket:    tickets[i],
			Name:      fmt.Sprintf("bot-%d", i+1),
			Pool:      pool,
			TableSize: players,
		})
		if err != nil {
			return uuid.Nil, nil, err
		}
		if rm != nil {
			room = rm
		}
	}
	if room == nil {
		return uuid.Nil, nil, ErrNotSeated
	}

	seats := make(map[table.PublicID]table.PrivateID, players)
	for _, tk := range tickets {
		a, ok, err := r.lobby.Poll(ctx, tk)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if !ok || a.GameID != room.GameID {
			return uuid.Nil, nil, ErrNotSeated
		}
		seats[a.Player.Public] = a.Player.Private
	}
	return room.GameID, seats, nil
}

// RunBatch 并发跑多局，concurrency <= 0 时不限。任一局出错即取消其余并返回该错误。
func (r *Runner) RunBatch(ctx context.Context, reqs []RunRequest, concurrency int) ([]RunResult, error) {
	results := make([]RunResult, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary 一批结果的汇总
type Summary struct {
	Games      int
	Completed  int
	Wins       map[board.Color]int
	TotalTurns int
}

func Summarize(results []RunResult) Summary {
	s := Summary{Games: len(results), Wins: map[board.Color]int{}}
	for _, r := range results {
		s.TotalTurns += r.TurnsPlayed
		if r.Status == engine.Completed {
			s.Completed++
			s.Wins[r.Winner]++
		}
	}
	return s
}

// AverageTurns 每局平均回合数
func (s Summary) AverageTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.Games)
}
