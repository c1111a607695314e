package filter

import (
	"context"

	"github.com/rushteam/feedrank/core"
)

// AuthorBlockFilter 过滤掉观看者拉黑的作者发布的帖子。
type AuthorBlockFilter struct {
	// Store 用于从存储中读取拉黑列表
	Store AuthorBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{ViewerID}
	KeyPrefix string
}

// AuthorBlockStore 是拉黑列表存储接口。
type AuthorBlockStore interface {
	// GetBlockedAuthors 获取观看者拉黑的作者 ID 列表
	GetBlockedAuthors(ctx context.Context, viewerID string, keyPrefix string) ([]string, error)
}

// NewAuthorBlockFilter 创建一个作者拉黑过滤器。
func NewAuthorBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *AuthorBlockFilter {
	var store AuthorBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &AuthorBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *AuthorBlockFilter) Name() string {
	return "filter.author_block"
}

func (f *AuthorBlockFilter) prefix() string {
	if f.KeyPrefix == "" {
		return "feedrank:block"
	}
	return f.KeyPrefix
}

// Load 读取观看者的拉黑列表；匿名请求或未配置存储时不过滤。
func (f *AuthorBlockFilter) Load(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if rctx == nil || rctx.ViewerID == "" || f.Store == nil {
		return newSetFilter(f.Name(), candidateAuthor), nil
	}
	blocked, err := f.Store.GetBlockedAuthors(ctx, rctx.ViewerID, f.prefix())
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}
	return newSetFilter(f.Name(), candidateAuthor, blocked), nil
}

func (f *AuthorBlockFilter) ShouldFilter(
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
