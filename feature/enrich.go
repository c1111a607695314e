package feature

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rushteam/feedrank/content"
	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/logging"
)

const (
	NoveltyUnseen     = 1.2
	NoveltyStale      = 1.05
	NoveltyStaleHours = 72.0
)

// RandomSource 提供 [0,1) 均匀随机数，*rand.Rand 满足该接口。
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// EnrichNode 是批次特征注入节点，在排序前补齐候选的请求级信号：
//   - AuthorRepeats / ContentRepeats：批次内同作者、同内容（归一化后）的条目数 − 1
//   - HoursSinceSeen：来自观看者的已读记录（调用方已提供时保留）
//   - AllSeen：整批都已看过
//   - NoveltyFactor：未提供时按未看过 1.2，72 小时前看过 1.05，其余 1.0
//   - RandomFactor：调用方未提供（为 0）时取均匀随机数
//
// 已读记录读取失败不中断请求，按全部未看过处理。
type EnrichNode struct {
	Seen SeenStore
	Rand RandomSource
}

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindFeature
}

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}
	now := rctx.Clock()
	seen := n.loadSeen(ctx, rctx)

	authors := make(map[string]int)
	contents := make(map[string]int)
	for _, c := range items {
		if c == nil {
			continue
		}
		if c.AuthorID != "" {
			authors[c.AuthorID]++
		}
		if key := content.Normalize(c.Content); key != "" {
			contents[key]++
		}
	}

	rnd := n.Rand
	if rnd == nil {
		rnd = globalRand{}
	}
	allSeen := true
	for _, c := range items {
		if c == nil {
			continue
		}
		if c.AuthorID != "" && c.AuthorRepeats == 0 {
			c.AuthorRepeats = authors[c.AuthorID] - 1
		}
		if key := content.Normalize(c.Content); key != "" && c.ContentRepeats == 0 {
			c.ContentRepeats = contents[key] - 1
		}
		if at, ok := seen[c.ID]; ok && c.ID != "" && !c.Seen() {
			c.HoursSinceSeen = max(now.Sub(at).Hours(), 0)
		}
		if c.NoveltyFactor <= 0 {
			c.NoveltyFactor = novelty(c.HoursSinceSeen)
		}
		if c.RandomFactor == 0 {
			c.RandomFactor = rnd.Float64()
		}
		if !c.Seen() {
			allSeen = false
		}
	}
	if allSeen {
		for _, c := range items {
			if c != nil {
				c.AllSeen = true
			}
		}
	}
	return items, nil
}

func (n *EnrichNode) loadSeen(ctx context.Context, rctx *core.RecommendContext) map[string]time.Time {
	if n.Seen == nil || rctx == nil || rctx.ViewerID == "" {
		return nil
	}
	seen, err := n.Seen.SeenAt(ctx, rctx.ViewerID)
	if err != nil {
		logging.Warn().Err(err).Str("viewer", rctx.ViewerID).Msg("load seen history failed")
		return nil
	}
	return seen
}

func novelty(hoursSinceSeen float64) float64 {
	switch {
	case hoursSinceSeen < 0:
		return NoveltyUnseen
	case hoursSinceSeen > NoveltyStaleHours:
		return NoveltyStale
	default:
		return 1
	}
}
