package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/feedrank/core"
)

type funcNode struct {
	name string
	fn   func([]*core.Candidate) ([]*core.Candidate, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Kind() Kind   { return KindPostProcess }
func (n *funcNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error) {
	return n.fn(items)
}

func TestPipelineRun(t *testing.T) {
	drop := &funcNode{name: "drop-first", fn: func(in []*core.Candidate) ([]*core.Candidate, error) {
		return in[1:], nil
	}}
	label := &funcNode{name: "label", fn: func(in []*core.Candidate) ([]*core.Candidate, error) {
		for _, c := range in {
			c.Score = 1
		}
		return in, nil
	}}
	p := &Pipeline{Name: "test", Nodes: []Node{drop, label}}

	in := []*core.Candidate{core.NewCandidate("a"), core.NewCandidate("b")}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "b" || out[0].Score != 1 {
		t.Errorf("Run() = %v", core.IDs(out))
	}
}

func TestPipelineRunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&funcNode{name: "bad", fn: func([]*core.Candidate) ([]*core.Candidate, error) {
		return nil, boom
	}}}}
	if _, err := p.Run(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want wrapped boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(canceled) error = %v", err)
	}
}

func TestConfigBuild(t *testing.T) {
	yamlCfg := []byte(`
pipeline:
  name: timeline
  nodes:
    - type: noop
      config:
        n: 3
    - type: noop
`)
	jsonCfg := []byte(`{"pipeline":{"name":"timeline","nodes":[{"type":"noop","config":{"n":3}},{"type":"noop"}]}}`)

	f := NewNodeFactory()
	var seen []map[string]any
	f.Register("noop", func(cfg map[string]any) (Node, error) {
		seen = append(seen, cfg)
		return &funcNode{name: "noop", fn: func(in []*core.Candidate) ([]*core.Candidate, error) { return in, nil }}, nil
	})

	for name, parse := range map[string]func() (*Config, error){
		"yaml": func() (*Config, error) { return ParseYAML(yamlCfg) },
		"json": func() (*Config, error) { return ParseJSON(jsonCfg) },
	} {
		t.Run(name, func(t *testing.T) {
			seen = nil
			cfg, err := parse()
			if err != nil {
				t.Fatalf("parse error = %v", err)
			}
			p, err := cfg.BuildPipeline(f)
			if err != nil {
				t.Fatalf("BuildPipeline() error = %v", err)
			}
			if p.Name != "timeline" || len(p.Nodes) != 2 {
				t.Errorf("pipeline = %+v", p)
			}
			if seen[1] == nil {
				t.Error("missing config should be passed as empty map")
			}
		})
	}

	bad := &Config{}
	bad.Pipeline.Nodes = []NodeConfig{{Type: "missing"}}
	if _, err := bad.BuildPipeline(f); err == nil {
		t.Error("unknown node type should fail")
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json")
	yamlPath := filepath.Join(dir, "p.yaml")
	_ = os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j"}}`), 0o600)
	_ = os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n"), 0o600)

	for path, want := range map[string]string{jsonPath: "j", yamlPath: "y"} {
		cfg, err := Load(path)
		if err != nil || cfg.Pipeline.Name != want {
			t.Errorf("Load(%s) = %+v, %v", path, cfg, err)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
