package filter

import (
	"context"

	"github.com/rushteam/feedrank/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的帖子。
type BlacklistFilter struct {
	// IDs 是内存中的黑名单帖子 ID 列表
	IDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单帖子 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(ids []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		IDs:   ids,
		Store: store,
		Key:   key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Load 合并内存列表与存储中的黑名单。存储中不存在该 key 视为空列表。
func (f *BlacklistFilter) Load(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	var stored []string
	if f.Store != nil && f.Key != "" {
		ids, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		stored = ids
	}
	return newSetFilter(f.Name(), candidateID, f.IDs, stored), nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Candidate,
) (bool, error) {
	loaded, err := f.Load(ctx, rctx)
	if err != nil {
		return false, err
	}
	return loaded.ShouldFilter(ctx, rctx, item)
}
