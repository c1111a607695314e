package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/pkg/metrics"
)

// Pipeline 把排序逻辑拆成可组合的 Node 链：enrich → filter → promotion → rank → topn。
type Pipeline struct {
	Name  string
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		elapsed := time.Since(start)
		metrics.NodeDuration.WithLabelValues(node.Name()).Observe(elapsed.Seconds())
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		logging.Debug().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("elapsed", elapsed).
			Msg("node processed")
		cur = next
	}
	return cur, nil
}
