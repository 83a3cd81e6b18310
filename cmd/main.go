package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"SequenceGame/config"
	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/dealer"
	"SequenceGame/internal/game/manager"
	"SequenceGame/internal/matchmaker"
	"SequenceGame/internal/repository"
	"SequenceGame/internal/simulator"
	"SequenceGame/internal/storage"
	"SequenceGame/internal/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "config/config.yaml", "path to the config file")
	pflag.String("log-level", "", "debug | info | warn | error")
	pflag.String("store", "", "memory | redis")
	pflag.String("redis-addr", "", "redis address")
	pflag.Int("games", 0, "number of self-play games")
	pflag.Int("players", 0, "players per game (2, 3, 4, 6, 8, 9, 10, 12)")
	pflag.Int("max-turns", 0, "turn limit per game")
	pflag.Int64("seed", 0, "base seed, 0 picks one from the clock")
	pflag.Int("concurrency", 0, "games played at once")
	pflag.Parse()

	if err := config.Load(*configPath, pflag.CommandLine); err != nil {
		utils.Log.Fatal("config load failed", "err", err)
	}
	if err := utils.Init(config.C.Log.Level); err != nil {
		utils.Log.Fatal("logger init failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. 存储：redis 可用时用 redis，否则退回内存
	//-------------------------------------------------------
	games, lobbyRepo := openStores(ctx)
	defer func() {
		if err := storage.CloseRedis(); err != nil {
			utils.Log.Warn("redis close", "err", err)
		}
	}()

	//-------------------------------------------------------
	// 2. 对局管理 + 大厅 + 模拟器
	//-------------------------------------------------------
	sim := config.C.Simulation
	seed := sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mgr := manager.NewGameManager(games, manager.WithDeckFactory(seededDecks(seed)))
	lobby := matchmaker.NewService(lobbyRepo, config.C.Store.TTLSeconds, mgr)
	lobby.OnRoomReady = func(room *matchmaker.Room) {
		utils.Log.Debug("room ready", "game", room.GameID, "tickets", len(room.Tickets))
	}
	runner := simulator.NewRunner(mgr, lobby)

	reqs := make([]simulator.RunRequest, sim.Games)
	for i := range reqs {
		reqs[i] = simulator.RunRequest{
			Players:  sim.Players,
			MaxTurns: sim.MaxTurns,
			Seed:     seed + int64(i),
		}
	}

	//-------------------------------------------------------
	// 3. 运行并输出汇总
	//-------------------------------------------------------
	utils.Log.Info("self-play starting", "games", sim.Games, "players", sim.Players,
		"concurrency", sim.Concurrency, "seed", seed, "store", config.C.Store.Driver)
	results, err := runner.RunBatch(ctx, reqs, sim.Concurrency)
	if err != nil {
		utils.Log.Error("self-play stopped", "err", err)
	}
	fmt.Println(render(results))

	stats, err := mgr.Stats(ctx)
	if err != nil {
		utils.Log.Warn("stats unavailable", "err", err)
		return
	}
	for _, st := range stats {
		utils.Log.Debug("game stats", "game", st.GameID, "status", st.Status,
			"sequences", st.Sequences, "chips", st.ChipsPlaced)
	}
}

func openStores(ctx context.Context) (repository.Repo, matchmaker.Repo) {
	if config.C.Store.Driver == "redis" {
		r := config.C.Redis
		if err := storage.InitRedis(ctx, r.Addr, r.Password, r.DB); err != nil {
			utils.Log.Warn("redis unavailable, using memory store", "err", err)
		} else {
			ttl := time.Duration(config.C.Store.TTLSeconds) * time.Second
			return repository.NewRedisRepo(storage.Rdb, ttl), matchmaker.NewRedisRepo(storage.Rdb)
		}
	}
	return repository.NewMemoryRepo(), matchmaker.NewMemoryRepo()
}

// seededDecks 第 n 局用 seed+n 洗牌，并发安全
func seededDecks(seed int64) func() *dealer.Deck {
	var (
		mu sync.Mutex
		n  int64
	)
	return func() *dealer.Deck {
		mu.Lock()
		defer mu.Unlock()
		d := dealer.NewSeededDeck(seed + n)
		n++
		return d
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#90EE90"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	colWidths   = []int{10, 8, 10, 12, 7, 9, 0}
)

func row(style lipgloss.Style, cells ...string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		st := style.PaddingRight(1)
		if colWidths[i] > 0 {
			st = st.Width(colWidths[i])
		}
		out[i] = st.Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func render(results []simulator.RunResult) string {
	lines := []string{row(headerStyle, "GAME", "PLAYERS", "TURNS", "STATUS", "WINNER", "TIME", "NOTE")}
	// 出错中断的局没有结果
	done := make([]simulator.RunResult, 0, len(results))
	for _, r := range results {
		if r.Status == "" {
			continue
		}
		done = append(done, r)
		lines = append(lines, row(lipgloss.NewStyle(),
			r.GameID.String()[:8],
			fmt.Sprint(r.Players),
			fmt.Sprintf("%d/%d", r.TurnsPlayed, r.MaxTurns),
			string(r.Status),
			string(r.Winner),
			r.Duration.Round(time.Millisecond).String(),
			r.Message,
		))
	}

	s := simulator.Summarize(done)
	colors := make([]string, 0, len(s.Wins))
	for c := range s.Wins {
		colors = append(colors, string(c))
	}
	sort.Strings(colors)
	wins := ""
	for _, c := range colors {
		wins += fmt.Sprintf("  %s=%d", c, s.Wins[board.Color(c)])
	}
	summary := fmt.Sprintf("%d games, %d completed, %.1f turns on average, wins:%s",
		s.Games, s.Completed, s.AverageTurns(), wins)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Sequence self-play"),
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
		summary,
	)
}
