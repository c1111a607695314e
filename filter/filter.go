package filter

import (
	"context"

	"github.com/rushteam/feedrank/core"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该在排序前被剔除。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Candidate) (bool, error)
}

// Loader 是依赖存储数据的过滤器。FilterNode 在每次调用开始时并发调用 Load，
// 用返回的过滤器判断本批次候选，避免逐条访问存储。
type Loader interface {
	Filter

	// Load 读取本次请求需要的数据，返回只在本次调用内使用的过滤器
	Load(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// setFilter 是 Load 的产物：按 key 函数取值后在集合里查找。
type setFilter struct {
	name string
	ids  map[string]struct{}
	key  func(*core.Candidate) string
}

func newSetFilter(name string, key func(*core.Candidate) string, lists ...[]string) *setFilter {
	ids := make(map[string]struct{})
	for _, list := range lists {
		for _, id := range list {
			if id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	return &setFilter{name: name, ids: ids, key: key}
}

func (f *setFilter) Name() string { return f.name }

func (f *setFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Candidate) (bool, error) {
	if item == nil {
		return true, nil
	}
	k := f.key(item)
	if k == "" {
		return false, nil
	}
	_, ok := f.ids[k]
	return ok, nil
}

func candidateID(c *core.Candidate) string     { return c.ID }
func candidateAuthor(c *core.Candidate) string { return c.AuthorID }
