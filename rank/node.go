package rank

import (
	"context"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pipeline"
)

// FeedNode 把 Ranker 接入 Pipeline：以请求时间基准原地重排。
// - 写入 labels：rank_score、cluster
// - 不丢弃任何候选，截断交给 rerank.topn
type FeedNode struct {
	Ranker *Ranker
}

func (n *FeedNode) Name() string        { return "rank.feed" }
func (n *FeedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *FeedNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Ranker == nil || len(items) == 0 {
		return items, nil
	}
	n.Ranker.RankAt(items, rctx.Clock())
	return items, nil
}
