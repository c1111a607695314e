// Package store 提供 core.Store / core.KeyValueStore 的实现：内存、Redis 与 SQLite。
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//
// 后端由 Open 按配置选择（见 cmd/feedrank）。
package store

import (
	"fmt"

	"github.com/rushteam/feedrank/core"
)

// Config 描述存储后端。
type Config struct {
	Driver string `koanf:"driver" validate:"oneof=memory redis sqlite"`

	RedisAddr string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB   int    `koanf:"redis_db" validate:"gte=0"`

	SQLitePath string `koanf:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// Open 按 Driver 创建存储。
func Open(cfg Config) (core.KeyValueStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown driver %q", cfg.Driver))
	}
}
