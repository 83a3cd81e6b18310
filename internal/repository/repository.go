package repository

import (
	"context"
	"errors"

	"SequenceGame/internal/game/engine"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("game snapshot not found")

// Repo 对局快照的持久化抽象。实现必须并发安全，且不与调用方共享可变数据。
type Repo interface {
	// Save 覆盖写入整局快照
	Save(ctx context.Context, s *engine.Snapshot) error
	// Load 读取快照；不存在时返回 ErrNotFound
	Load(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error)
	// Delete 删除快照，不存在时不报错
	Delete(ctx context.Context, id uuid.UUID) error
	// List 当前保存的所有对局 ID
	List(ctx context.Context) ([]uuid.UUID, error)
}
