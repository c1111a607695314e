package filter

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被剔除。过滤只发生在排序之前，
// 排序本身从不丢弃候选。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	filters := n.load(ctx, rctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(items))
	filteredCount := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		// 依次检查每个过滤器
		for _, f := range filters {
			if f == nil {
				continue
			}
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				logging.Debug().Err(err).Str("filter", f.Name()).Msg("filter error")
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			filteredCount++
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	logging.Debug().Int("in", len(items)).Int("filtered", filteredCount).Msg("filter node done")
	return out, nil
}

// load 并发预加载所有 Loader；加载失败的过滤器在本次调用中跳过。
func (n *FilterNode) load(ctx context.Context, rctx *core.RecommendContext) []Filter {
	filters := make([]Filter, len(n.Filters))
	var g errgroup.Group
	for i, f := range n.Filters {
		l, ok := f.(Loader)
		if !ok {
			filters[i] = f
			continue
		}
		g.Go(func() error {
			loaded, err := l.Load(ctx, rctx)
			if err != nil {
				logging.Warn().Err(err).Str("filter", f.Name()).Msg("filter load failed, skipped")
				return nil
			}
			filters[i] = loaded
			return nil
		})
	}
	_ = g.Wait()
	return filters
}
