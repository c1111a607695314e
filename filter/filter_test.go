package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/store"
)

type brokenBlocks struct{}

func (brokenBlocks) GetBlockedAuthors(context.Context, string, string) ([]string, error) {
	return nil, errors.New("timeout")
}

func post(id, author string) *core.Candidate {
	c := core.NewCandidate(id)
	c.AuthorID = author
	return c
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	adapter := NewStoreAdapter(s)
	if err := adapter.SetBlacklist(ctx, "feedrank:blacklist", []string{"p3"}); err != nil {
		t.Fatal(err)
	}
	if err := adapter.SetBlockedAuthors(ctx, "alice", "feedrank:block", []string{"spammer"}); err != nil {
		t.Fatal(err)
	}

	node := &FilterNode{Filters: []Filter{
		NewBlacklistFilter([]string{"p1"}, adapter, "feedrank:blacklist"),
		NewAuthorBlockFilter(adapter, ""),
	}}

	tests := []struct {
		name   string
		viewer string
		want   []string
	}{
		{"viewer with blocks", "alice", []string{"p2", "p5"}},
		{"viewer without blocks", "bob", []string{"p2", "p4", "p5"}},
		{"anonymous", "", []string{"p2", "p4", "p5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p1, p3 := post("p1", "x"), post("p3", "y")
			items := []*core.Candidate{p1, post("p2", "x"), nil, p3, post("p4", "spammer"), post("p5", "")}
			rctx := &core.RecommendContext{ViewerID: tt.viewer}
			out, err := node.Process(ctx, rctx, items)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			got := core.IDs(out)
			if len(got) != len(tt.want) {
				t.Fatalf("Process() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Process() = %v, want %v", got, tt.want)
				}
			}
			if lbl := p1.Labels["filtered"]; lbl.Source != "filter.blacklist" {
				t.Errorf("filtered label = %+v", lbl)
			}
			if p3.Labels["filtered"].Source != "filter.blacklist" {
				t.Error("stored blacklist entry not applied")
			}
		})
	}
}

func TestFilterNodeLoadFailure(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&AuthorBlockFilter{Store: brokenBlocks{}},
		&BlacklistFilter{IDs: []string{"b"}},
	}}
	rctx := &core.RecommendContext{ViewerID: "alice"}
	out, err := node.Process(context.Background(), rctx, []*core.Candidate{post("a", "x"), post("b", "x")})
	if err != nil {
		t.Fatalf("load failure should not fail the request: %v", err)
	}
	if got := core.IDs(out); len(got) != 1 || got[0] != "a" {
		t.Errorf("Process() = %v", got)
	}
}

func TestFilterNodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	node := &FilterNode{Filters: []Filter{&BlacklistFilter{}}}
	if _, err := node.Process(ctx, nil, []*core.Candidate{post("a", "")}); !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

func TestBlacklistFilterShouldFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	f := NewBlacklistFilter([]string{"a"}, NewStoreAdapter(s), "missing")
	tests := []struct {
		item *core.Candidate
		want bool
	}{
		{post("a", ""), true},
		{post("b", ""), false},
		{post("", ""), false},
		{nil, true},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(ctx, nil, tt.item)
		if err != nil || got != tt.want {
			t.Errorf("ShouldFilter(%v) = %v, %v; want %v", tt.item, got, err, tt.want)
		}
	}
}

func TestStoreAdapterCorruptList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	_ = s.Set(ctx, "bad", []byte("{not json"))

	_, err := NewStoreAdapter(s).GetBlacklist(ctx, "bad")
	if !core.IsInvalidInput(err) {
		t.Errorf("GetBlacklist() error = %v, want INVALID_INPUT", err)
	}
}
