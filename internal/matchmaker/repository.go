package matchmaker

import "context"

// Repo 定义对匹配池的抽象操作
type Repo interface {
	// Enqueue 将票加入指定池（pool+tableSize）
	Enqueue(ctx context.Context, t Ticket, ttlSeconds int) error
	// PopNRandom 随机弹出 n 张票（原子）；已过期的票被跳过，可能少于 n
	PopNRandom(ctx context.Context, pool string, tableSize int, n int) ([]Ticket, error)
	// Remove 将票从当前池移除（用于取消）
	Remove(ctx context.Context, ticket string) error
	// Count 返回池内票数
	Count(ctx context.Context, pool string, tableSize int) (int64, error)
	// SaveAssignment 记录成桌结果，供持票人查询
	SaveAssignment(ctx context.Context, a Assignment, ttlSeconds int) error
	// Assignment 查询成桌结果；尚未成桌时 ok=false
	Assignment(ctx context.Context, ticket string) (Assignment, bool, error)
	// DeleteAssignment 撤销座位记录（组桌失败时回滚）
	DeleteAssignment(ctx context.Context, ticket string) error
}
