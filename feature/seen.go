package feature

import (
	"context"
	"strconv"
	"time"

	"github.com/rushteam/feedrank/core"
)

// SeenStore 记录观看者看过哪些帖子，以及最后一次看到的时间。
type SeenStore interface {
	// SeenAt 返回 viewer 看过的帖子 ID -> 最后展示时间
	SeenAt(ctx context.Context, viewerID string) (map[string]time.Time, error)

	// MarkSeen 把 ids 标记为在 at 时刻看过
	MarkSeen(ctx context.Context, viewerID string, ids []string, at time.Time) error
}

// StoreSeenAdapter 将 core.KeyValueStore 适配为 SeenStore。
// 数据存为哈希 {Prefix}:{viewer}，field 为帖子 ID，value 为 unix 秒。
type StoreSeenAdapter struct {
	store  core.KeyValueStore
	Prefix string
}

// NewStoreSeenAdapter 创建适配器，prefix 为空时使用 "feedrank:seen"。
func NewStoreSeenAdapter(s core.KeyValueStore, prefix string) *StoreSeenAdapter {
	if prefix == "" {
		prefix = "feedrank:seen"
	}
	return &StoreSeenAdapter{store: s, Prefix: prefix}
}

func (a *StoreSeenAdapter) key(viewerID string) string {
	return a.Prefix + ":" + viewerID
}

func (a *StoreSeenAdapter) SeenAt(ctx context.Context, viewerID string) (map[string]time.Time, error) {
	raw, err := a.store.HGetAll(ctx, a.key(viewerID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return map[string]time.Time{}, nil
		}
		return nil, err
	}
	out := make(map[string]time.Time, len(raw))
	for id, v := range raw {
		sec, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			// 脏数据跳过
			continue
		}
		out[id] = time.Unix(sec, 0)
	}
	return out, nil
}

func (a *StoreSeenAdapter) MarkSeen(ctx context.Context, viewerID string, ids []string, at time.Time) error {
	key := a.key(viewerID)
	value := []byte(strconv.FormatInt(at.Unix(), 10))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := a.store.HSet(ctx, key, id, value); err != nil {
			return err
		}
	}
	return nil
}
