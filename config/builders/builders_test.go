package builders

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedrank/config"
	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/feature"
	"github.com/rushteam/feedrank/filter"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/rank"
	"github.com/rushteam/feedrank/rerank"
	"github.com/rushteam/feedrank/store"
)

const pipelineYAML = `
pipeline:
  name: timeline
  nodes:
    - type: feature.enrich
    - type: filter
      config:
        filters:
          - type: blacklist
            ids: [banned]
          - type: author_block
    - type: rank.promotion
      config:
        rules:
          - expr: "item.gold"
            boost: 2
    - type: rank.feed
      config:
        window: 3
        jitter:
          fresh: { offset: 0, span: 0, multiplier: 0, additive: 0 }
          repeat_amplify: 0
    - type: rerank.topn
      config:
        n: 4
`

func TestSupportedTypes(t *testing.T) {
	want := []string{"feature.enrich", "filter", "rank.feed", "rank.promotion", "rerank.topn"}
	got := config.SupportedTypes()
	if len(got) != len(want) {
		t.Fatalf("SupportedTypes() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedTypes()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildPipelineFromYAML(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	adapter := filter.NewStoreAdapter(s)
	if err := adapter.SetBlockedAuthors(ctx, "alice", "feedrank:block", []string{"troll"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := pipeline.ParseYAML([]byte(pipelineYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}
	cache := exposure.New()
	p, err := cfg.BuildPipeline(config.DefaultFactory(config.Deps{Store: s, Exposure: cache}))
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if p.Name != "timeline" || len(p.Nodes) != 5 {
		t.Fatalf("pipeline = %s with %d nodes", p.Name, len(p.Nodes))
	}
	if fn, ok := p.Nodes[3].(*rank.FeedNode); !ok || fn.Ranker.Window() != 3 || fn.Ranker.Exposure() != cache {
		t.Errorf("rank.feed node not wired: %#v", p.Nodes[3])
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var items []*core.Candidate
	for _, in := range []struct{ id, author string }{
		{"p1", "a"}, {"banned", "b"}, {"p2", "troll"}, {"p3", "c"}, {"p4", "d"}, {"p5", "e"}, {"p6", "f"},
	} {
		c := core.NewCandidate(in.id)
		c.AuthorID = in.author
		c.Content = "post " + in.id
		c.CreatedAt = now.Add(-time.Hour)
		c.Likes = 10
		items = append(items, c)
	}
	items[0].Gold = true

	rctx := &core.RecommendContext{ViewerID: "alice", Now: now, Params: map[string]any{}}
	out, err := p.Run(ctx, rctx, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("Run() returned %v", core.IDs(out))
	}
	for _, c := range out {
		if c.ID == "banned" || c.ID == "p2" {
			t.Errorf("filtered candidate %s returned", c.ID)
		}
	}
	if items[0].PromotionBoost != 2 {
		t.Errorf("PromotionBoost = %v", items[0].PromotionBoost)
	}
	if cache.HistoryLen() != 3 {
		t.Errorf("HistoryLen() = %d, want the 3-item window", cache.HistoryLen())
	}
}

func TestBuildErrors(t *testing.T) {
	factory := config.DefaultFactory(config.Deps{})
	tests := []struct {
		name     string
		nodeType string
		cfg      map[string]any
	}{
		{"filter without filters", "filter", nil},
		{"unknown filter", "filter", map[string]any{"filters": []any{map[string]any{"type": "exposed"}}}},
		{"promotion without rules", "rank.promotion", nil},
		{"bad promotion expr", "rank.promotion", map[string]any{"rules": []any{map[string]any{"expr": "item.likes >", "boost": 2}}}},
		{"unknown node", "recall.hot", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := factory.Build(tt.nodeType, tt.cfg); err == nil {
				t.Error("Build() error = nil")
			}
		})
	}
}

func TestBuildDefaults(t *testing.T) {
	factory := config.DefaultFactory(config.Deps{})

	node, err := factory.Build("rank.feed", nil)
	if err != nil {
		t.Fatal(err)
	}
	if w := node.(*rank.FeedNode).Ranker.Window(); w != rank.VisibleWindow {
		t.Errorf("Window() = %d", w)
	}

	node, err = factory.Build("rerank.topn", map[string]any{"n": 7.0})
	if err != nil || node.(*rerank.TopNNode).N != 7 {
		t.Errorf("topn = %#v, %v", node, err)
	}

	node, err = factory.Build("feature.enrich", map[string]any{"seen": false})
	if err != nil || node.(*feature.EnrichNode).Seen != nil {
		t.Errorf("enrich = %#v, %v", node, err)
	}
}

func TestParseModel(t *testing.T) {
	m := parseModel(map[string]any{"jitter": map[string]any{
		"all_seen":       map[string]any{"span": 3},
		"repeat_amplify": 0.25,
	}})
	def := rank.DefaultModel()
	if m.Fresh != def.Fresh {
		t.Errorf("Fresh = %+v", m.Fresh)
	}
	if m.AllSeen.Span != 3 || m.AllSeen.Offset != def.AllSeen.Offset {
		t.Errorf("AllSeen = %+v", m.AllSeen)
	}
	if m.RepeatAmplify != 0.25 {
		t.Errorf("RepeatAmplify = %v", m.RepeatAmplify)
	}
	if parseModel(nil) != def {
		t.Error("missing jitter should keep the default model")
	}
}
