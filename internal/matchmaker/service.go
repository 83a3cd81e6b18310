package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SequenceGame/internal/game/dealer"
	"SequenceGame/internal/game/manager"
	"SequenceGame/internal/game/table"
	"SequenceGame/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrMissingTicket    = errors.New("missing ticket")
	ErrInvalidTableSize = errors.New("invalid tableSize")
	ErrAlreadyMatched   = errors.New("ticket already matched")
)

// GameHost 组桌后建局、入座、开局（由 *manager.GameManager 实现）
type GameHost interface {
	CreateGame(ctx context.Context, maxPlayers int, hostName string) (manager.Joined, error)
	JoinGame(ctx context.Context, id uuid.UUID, name string) (manager.Joined, error)
	StartGame(ctx context.Context, id uuid.UUID, hostPrivate table.PrivateID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo        Repo
	ticketTTL   int // seconds, 用于防止遗留队列
	host        GameHost
	OnRoomReady func(*Room) // ✅ 成桌时调用的回调函数
}

func NewService(repo Repo, ticketTTL int, host GameHost) *Service {
	return &Service{repo: repo, ticketTTL: ticketTTL, host: host}
}

// Join 入队并尝试立即成桌（随机）。若可成桌，返回房间；否则返回排队中。
func (s *Service) Join(ctx context.Context, req JoinRequest) (*Room, bool, error) {
	if req.Ticket == "" {
		return nil, false, ErrMissingTicket
	}
	if _, err := dealer.HandSize(req.TableSize); err != nil {
		return nil, false, fmt.Errorf("%w: %d", ErrInvalidTableSize, req.TableSize)
	}

	// ❶ 防止重复匹配：已成桌的票不能再次入队
	if a, ok, err := s.repo.Assignment(ctx, req.Ticket); err != nil {
		return nil, false, err
	} else if ok {
		return nil, false, fmt.Errorf("%w: ticket %s in game %s", ErrAlreadyMatched, req.Ticket, a.GameID)
	}

	t := Ticket{ID: req.Ticket, Name: req.Name, Pool: req.Pool, TableSize: req.TableSize}
	if err := s.repo.Enqueue(ctx, t, s.ticketTTL); err != nil {
		return nil, false, err
	}
	// 判断人数是否满足，满足则原子随机弹出 N 人（包含刚入队者）
	cnt, err := s.repo.Count(ctx, req.Pool, req.TableSize)
	if err != nil {
		return nil, false, err
	}
	if int(cnt) < req.TableSize {
		return nil, true, nil // queued
	}
	tickets, err := s.repo.PopNRandom(ctx, req.Pool, req.TableSize, req.TableSize)
	if err != nil {
		return nil, false, err
	}
	if len(tickets) < req.TableSize {
		// 并发竞争或票过期导致人数不足：弹出的票放回池中，回退为排队状态
		for _, t := range tickets {
			if err := s.repo.Enqueue(ctx, t, s.ticketTTL); err != nil {
				return nil, false, err
			}
		}
		return nil, true, nil
	}

	room, err := s.seat(ctx, req.Pool, req.TableSize, tickets)
	if err != nil {
		// 组桌失败：弹出的票放回池中，持票人继续排队
		for _, t := range tickets {
			if qerr := s.repo.Enqueue(ctx, t, s.ticketTTL); qerr != nil {
				utils.Log.Error("re-enqueue failed", "ticket", t.ID, "err", qerr)
			}
		}
		return nil, false, err
	}

	// ✅ 启动后续逻辑
	if s.OnRoomReady != nil {
		go s.OnRoomReady(room)
	}
	return room, false, nil
}

// seat 第一张票做房主建局，其余依次入座，然后开局并记录每张票的座位。
// 任一步失败时删除已建的对局并撤销已写入的座位。
func (s *Service) seat(ctx context.Context, pool string, size int, tickets []Ticket) (room *Room, err error) {
	host, err := s.host.CreateGame(ctx, size, tickets[0].Name)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	var saved []string
	defer func() {
		if err == nil {
			return
		}
		for _, tk := range saved {
			if derr := s.repo.DeleteAssignment(ctx, tk); derr != nil {
				utils.Log.Error("assignment rollback failed", "ticket", tk, "err", derr)
			}
		}
		if derr := s.host.Delete(ctx, host.GameID); derr != nil {
			utils.Log.Error("partial game cleanup failed", "game", host.GameID, "err", derr)
		}
	}()

	seats := []Assignment{{Ticket: tickets[0].ID, GameID: host.GameID, Player: host.Player}}
	for _, t := range tickets[1:] {
		j, err := s.host.JoinGame(ctx, host.GameID, t.Name)
		if err != nil {
			return nil, fmt.Errorf("join game %s: %w", host.GameID, err)
		}
		seats = append(seats, Assignment{Ticket: t.ID, GameID: host.GameID, Player: j.Player})
	}
	if err := s.host.StartGame(ctx, host.GameID, host.Player.Private); err != nil {
		return nil, fmt.Errorf("start game %s: %w", host.GameID, err)
	}

	room = &Room{
		GameID:    host.GameID,
		Pool:      pool,
		TableSize: size,
		Tickets:   make([]string, 0, len(seats)),
		CreatedAt: time.Now(),
	}
	for _, a := range seats {
		if err := s.repo.SaveAssignment(ctx, a, s.ticketTTL); err != nil {
			return nil, err
		}
		saved = append(saved, a.Ticket)
		room.Tickets = append(room.Tickets, a.Ticket)
	}
	utils.Log.Info("room ready", "game", room.GameID, "pool", pool, "tableSize", size)
	return room, nil
}

// Poll 查询票是否已成桌
func (s *Service) Poll(ctx context.Context, ticket string) (Assignment, bool, error) {
	return s.repo.Assignment(ctx, ticket)
}

func (s *Service) Cancel(ctx context.Context, ticket string) error {
	return s.repo.Remove(ctx, ticket)
}
