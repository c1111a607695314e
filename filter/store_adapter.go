package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/feedrank/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 列表以 JSON 字符串数组存放在单个 key 中。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "filter: decode id list: "+err.Error())
	}

	return ids, nil
}

// SetBlacklist 写入黑名单。
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// GetBlockedAuthors 从 Store 读取观看者拉黑的作者列表。
func (a *StoreAdapter) GetBlockedAuthors(ctx context.Context, viewerID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+viewerID)
}

// SetBlockedAuthors 写入观看者拉黑的作者列表。
func (a *StoreAdapter) SetBlockedAuthors(ctx context.Context, viewerID string, keyPrefix string, authorIDs []string) error {
	return a.SetBlacklist(ctx, keyPrefix+":"+viewerID, authorIDs)
}
