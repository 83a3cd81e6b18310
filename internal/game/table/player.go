package table

import (
	"strings"

	"github.com/google/uuid"
)

// PublicID 玩家对外身份（出现在快照、回合、历史中）
type PublicID uuid.UUID

// PrivateID 玩家私有凭证，只用于鉴权（private -> public 单向查找）
type PrivateID uuid.UUID

func (id PublicID) String() string  { return uuid.UUID(id).String() }
func (id PrivateID) String() string { return uuid.UUID(id).String() }

func (id PublicID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func (id PublicID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PublicID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PrivateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PrivateID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// ParsePublicID / ParsePrivateID 解析字符串形式
func ParsePublicID(s string) (PublicID, error) {
	u, err := uuid.Parse(s)
	return PublicID(u), err
}

func ParsePrivateID(s string) (PrivateID, error) {
	u, err := uuid.Parse(s)
	return PrivateID(u), err
}

// Player 玩家身份三元组
type Player struct {
	Public  PublicID  `json:"publicId"`
	Private PrivateID `json:"privateId"`
	Name    string    `json:"name"`
}

// NewPlayer 生成随机的公开/私有 ID
func NewPlayer(name string) Player {
	return Player{
		Public:  PublicID(uuid.New()),
		Private: PrivateID(uuid.New()),
		Name:    strings.TrimSpace(name),
	}
}
