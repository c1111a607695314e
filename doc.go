// Package feedrank 是时间线排序工具包：对一批候选帖子打分、做多样性重排并返回最终顺序。
//
// 设计要点：
// - Pipeline-first: 请求经 Node 串联（enrich → filter → promotion → rank → topn）
// - Labels-first: rank_score、cluster、filtered 等 labels 全链路透传，便于 explain
// - 排序核心无 I/O：存储只出现在边界节点（已读、过滤、曝光快照）
package feedrank

import (
	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/rank"
)

// 轻量 facade：便于直接 import "feedrank" 使用核心抽象。
type (
	Pipeline  = pipeline.Pipeline
	Node      = pipeline.Node
	Kind      = pipeline.Kind
	Candidate = core.Candidate
	Ranker    = rank.Ranker
	Exposure  = exposure.Cache
)

const (
	KindFeature     = pipeline.KindFeature
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewRanker 创建持有 cache 的 Ranker；cache 为 nil 时新建。
func NewRanker(cache *exposure.Cache, opts ...rank.Option) *rank.Ranker {
	return rank.NewRanker(cache, opts...)
}
