package matchmaker

import (
	"time"

	"SequenceGame/internal/game/table"

	"github.com/google/uuid"
)

// JoinRequest 入队请求。Ticket 由调用方生成并用于之后查询/取消。
type JoinRequest struct {
	Ticket    string `json:"ticket"`
	Name      string `json:"name"`
	Pool      string `json:"pool"`      // 例如 "casual"、"sim-xxxx"
	TableSize int    `json:"tableSize"` // 2/3/4/6/8/9/10/12
}

// Ticket 排队中的一张票
type Ticket struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Pool      string `json:"pool"`
	TableSize int    `json:"tableSize"`
}

// Assignment 成桌后每张票拿到的座位（含私有 ID，只给持票人）
type Assignment struct {
	Ticket string       `json:"ticket"`
	GameID uuid.UUID    `json:"gameId"`
	Player table.Player `json:"player"`
}

// Room 组桌结果：对局已创建并开局，Tickets 按座位顺序
type Room struct {
	GameID    uuid.UUID
	Pool      string
	TableSize int
	Tickets   []string
	CreatedAt time.Time
}
