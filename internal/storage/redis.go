package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var Rdb *redis.Client

// InitRedis 建立全局连接并 Ping 一次；失败时关闭连接、Rdb 保持为 nil
func InitRedis(ctx context.Context, addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis %s: %w", addr, err)
	}
	Rdb = c
	return nil
}

// CloseRedis 程序退出时调用
func CloseRedis() error {
	if Rdb == nil {
		return nil
	}
	err := Rdb.Close()
	Rdb = nil
	return err
}
