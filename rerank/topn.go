package rerank

import (
	"context"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pipeline"
)

// TopNNode 截断返回列表，只保留前 N 个候选。
// 通常放在 rank.feed 之后，控制响应大小；被截掉的候选仍然参与了排序与曝光记录。
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.FeedNode{Ranker: r},
//	        &rerank.TopNNode{N: 20},
//	    },
//	}
type TopNNode struct {
	// N 要保留的数量；N <= 0 时不截断。
	// 请求参数 "limit"（rctx.Params）存在且更小时优先使用。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if rctx != nil {
		if v, ok := rctx.Params["limit"].(int); ok && v > 0 && (limit <= 0 || v < limit) {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
