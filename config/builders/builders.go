package builders

import (
	"fmt"

	"github.com/rushteam/feedrank/config"
	"github.com/rushteam/feedrank/feature"
	"github.com/rushteam/feedrank/filter"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/conv"
	"github.com/rushteam/feedrank/rank"
	"github.com/rushteam/feedrank/rerank"
)

func init() {
	config.Register("feature.enrich", BuildEnrichNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.promotion", BuildPromotionNode)
	config.Register("rank.feed", BuildFeedNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildEnrichNode 构建批次特征注入节点。
//
//	config: { seen: true }  // false 时不读取已读记录
func BuildEnrichNode(cfg map[string]any, deps config.Deps) (pipeline.Node, error) {
	n := &feature.EnrichNode{}
	if conv.ConfigGet(cfg, "seen", true) {
		n.Seen = deps.Seen
	}
	return n, nil
}

// BuildFilterNode 构建过滤节点。
//
//	config:
//	  filters:
//	    - { type: blacklist, ids: [p1], key: "feedrank:blacklist" }
//	    - { type: author_block, key_prefix: "feedrank:block" }
func BuildFilterNode(cfg map[string]any, deps config.Deps) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	var adapter *filter.StoreAdapter
	if deps.Store != nil {
		adapter = filter.NewStoreAdapter(deps.Store)
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))
		case "author_block":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewAuthorBlockFilter(adapter, keyPrefix))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildPromotionNode 构建加推规则节点。
//
//	config:
//	  rules:
//	    - { expr: "item.gold && item.likes > 100", boost: 2 }
func BuildPromotionNode(cfg map[string]any, _ config.Deps) (pipeline.Node, error) {
	rulesConfig, ok := cfg["rules"].([]any)
	if !ok {
		return nil, fmt.Errorf("rules not found or invalid")
	}
	rules := make([]rank.PromotionRule, 0, len(rulesConfig))
	for _, rc := range rulesConfig {
		ruleMap, ok := rc.(map[string]any)
		if !ok {
			continue
		}
		rules = append(rules, rank.PromotionRule{
			Expr:  conv.ConfigGet(ruleMap, "expr", ""),
			Boost: conv.ConfigGetFloat64(ruleMap, "boost", 0),
		})
	}
	n, err := rank.NewPromotionNode(rules)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// BuildFeedNode 构建排序节点，共享 deps.Exposure。
//
//	config:
//	  window: 10
//	  pool_factor: 2
//	  jitter:                       // 可选，覆盖默认扰动参数
//	    fresh: { offset: 0.02, span: 0.04, multiplier: 0.08, additive: 1 }
//	    all_seen: { offset: 0.5, span: 1.8, multiplier: 0.35, additive: 2.5 }
//	    repeat_amplify: 0.5
func BuildFeedNode(cfg map[string]any, deps config.Deps) (pipeline.Node, error) {
	opts := []rank.Option{rank.WithModel(parseModel(cfg))}
	if w := conv.ConfigGetInt64(cfg, "window", 0); w > 0 {
		opts = append(opts, rank.WithWindow(int(w)))
	}
	if f := conv.ConfigGetInt64(cfg, "pool_factor", 0); f > 0 {
		opts = append(opts, rank.WithPoolFactor(int(f)))
	}
	return &rank.FeedNode{Ranker: rank.NewRanker(deps.Exposure, opts...)}, nil
}

func parseModel(cfg map[string]any) rank.Model {
	m := rank.DefaultModel()
	jitter, ok := cfg["jitter"].(map[string]any)
	if !ok {
		return m
	}
	m.Fresh = parseJitter(jitter["fresh"], m.Fresh)
	m.AllSeen = parseJitter(jitter["all_seen"], m.AllSeen)
	m.RepeatAmplify = conv.ConfigGetFloat64(jitter, "repeat_amplify", m.RepeatAmplify)
	return m
}

func parseJitter(v any, def rank.Jitter) rank.Jitter {
	m, ok := v.(map[string]any)
	if !ok {
		return def
	}
	return rank.Jitter{
		Offset:     conv.ConfigGetFloat64(m, "offset", def.Offset),
		Span:       conv.ConfigGetFloat64(m, "span", def.Span),
		Multiplier: conv.ConfigGetFloat64(m, "multiplier", def.Multiplier),
		Additive:   conv.ConfigGetFloat64(m, "additive", def.Additive),
	}
}

// BuildTopNNode 构建截断节点。
//
//	config: { n: 20 }
func BuildTopNNode(cfg map[string]any, _ config.Deps) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
