package rank

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/pipeline"
)

func newTestRanker(seed uint64, cache *exposure.Cache) *Ranker {
	return NewRanker(cache,
		WithRandom(rand.New(rand.NewPCG(seed, seed+1))),
		WithClock(func() time.Time { return testNow }),
	)
}

func candidate(id string, age float64, likes int) *core.Candidate {
	c := core.NewCandidate(id)
	c.CreatedAt = hoursAgo(age)
	c.Likes = likes
	c.RandomFactor = 0.5
	return c
}

func sortedIDs(cands []*core.Candidate) []string {
	ids := core.IDs(cands)
	sort.Strings(ids)
	return ids
}

func TestRankEmpty(t *testing.T) {
	r := newTestRanker(1, nil)
	r.Rank(nil)
	r.Rank([]*core.Candidate{})
	if r.Exposure().HistoryLen() != 0 {
		t.Error("empty rank should not record exposure")
	}
}

func TestRankIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for round := 0; round < 20; round++ {
		var cands []*core.Candidate
		n := 1 + rng.IntN(60)
		for i := 0; i < n; i++ {
			c := candidate(fmt.Sprintf("p%d", rng.IntN(n)), rng.Float64()*150, rng.IntN(500))
			c.AuthorID = fmt.Sprintf("a%d", rng.IntN(5))
			c.Reposts = rng.IntN(50)
			c.Replies = rng.IntN(50)
			c.Content = []string{"", "same words repeated here", "other unrelated content text"}[rng.IntN(3)]
			c.CommunityFlagged = rng.IntN(15) == 0
			c.AuthorRepeats = rng.IntN(3)
			c.ContentRepeats = rng.IntN(2)
			c.HoursSinceSeen = []float64{-1, 0.2, 5, 30}[rng.IntN(4)]
			cands = append(cands, c)
		}
		before := make(map[*core.Candidate]int, n)
		for _, c := range cands {
			before[c]++
		}

		newTestRanker(uint64(round), nil).Rank(cands)

		if len(cands) != n {
			t.Fatalf("round %d: len = %d, want %d", round, len(cands), n)
		}
		for _, c := range cands {
			before[c]--
		}
		for c, left := range before {
			if left != 0 {
				t.Fatalf("round %d: candidate %s count off by %d", round, c.ID, left)
			}
		}
		for _, c := range cands {
			if c.Score < 0 {
				t.Fatalf("round %d: negative score %v", round, c.Score)
			}
		}
	}
}

func TestRankDuplicateScenario(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		cands := []*core.Candidate{
			candidate("tweet_0", 0, 3),
			candidate("tweet_0", 2, 3),
			candidate("tweet_0", 4, 3),
			candidate("tweet_1", 6, 3),
			candidate("tweet_2", 8, 3),
		}
		want := sortedIDs(cands)

		newTestRanker(seed, nil).Rank(cands)

		if got := sortedIDs(cands); fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("seed %d: lost candidates: %v", seed, got)
		}
		for i := 0; i+2 < len(cands); i++ {
			if cands[i].ID == "tweet_0" && cands[i+1].ID == "tweet_0" && cands[i+2].ID == "tweet_0" {
				t.Fatalf("seed %d: all tweet_0 copies adjacent: %v", seed, core.IDs(cands))
			}
		}
		older := false
		for _, c := range cands[:min(5, len(cands))] {
			if AgeHours(c.CreatedAt, testNow) > 6 {
				older = true
			}
		}
		if !older {
			t.Fatalf("seed %d: no candidate older than 6h in window: %v", seed, core.IDs(cands))
		}
	}
}

// windowCount 统计最终可见窗口中满足 match 的条目数。
func windowCount(cands []*core.Candidate, window int, match func(*core.Candidate) bool) int {
	n := 0
	for _, c := range cands[:min(window, len(cands))] {
		if match(c) {
			n++
		}
	}
	return n
}

func rankWindowQuota(t *testing.T, build func() []*core.Candidate, check func(t *testing.T, cands []*core.Candidate)) {
	t.Helper()
	for _, factor := range []int{1, 2} {
		t.Run(fmt.Sprintf("pool x%d", factor), func(t *testing.T) {
			for seed := uint64(0); seed < 50; seed++ {
				cands := build()
				r := NewRanker(nil,
					WithRandom(rand.New(rand.NewPCG(seed, seed+1))),
					WithClock(func() time.Time { return testNow }),
					WithPoolFactor(factor),
				)
				r.Rank(cands)
				check(t, cands)
				if t.Failed() {
					t.Fatalf("seed %d: %v", seed, core.IDs(cands))
				}
			}
		})
	}
}

func TestRankWindowAgeFloor(t *testing.T) {
	build := func() []*core.Candidate {
		var cands []*core.Candidate
		for i := 0; i < 18; i++ {
			c := candidate(fmt.Sprintf("fresh%d", i), 0.5+float64(i)*0.2, 400)
			c.Reposts = 40
			cands = append(cands, c)
		}
		return append(cands, candidate("aged20", 20, 15), candidate("aged30", 30, 15))
	}
	rankWindowQuota(t, build, func(t *testing.T, cands []*core.Candidate) {
		older := windowCount(cands, VisibleWindow, func(c *core.Candidate) bool {
			return AgeHours(c.CreatedAt, testNow) >= 6
		})
		if older < 2 {
			t.Errorf("window has %d items aged >= 6h, want 2", older)
		}
	})
}

func TestRankWindowOlderBands(t *testing.T) {
	build := func() []*core.Candidate {
		var cands []*core.Candidate
		for i := 0; i < 17; i++ {
			cands = append(cands, candidate(fmt.Sprintf("fresh%d", i), 0.5+float64(i)*0.15, 300))
		}
		return append(cands,
			candidate("day", 30, 50),
			candidate("twodays", 60, 50),
			candidate("week", 120, 50),
		)
	}
	rankWindowQuota(t, build, func(t *testing.T, cands []*core.Candidate) {
		for _, band := range []struct {
			lo, hi float64
		}{{24, 48}, {48, 96}, {96, 1e9}} {
			n := windowCount(cands, VisibleWindow, func(c *core.Candidate) bool {
				age := AgeHours(c.CreatedAt, testNow)
				return age >= band.lo && age < band.hi
			})
			if n == 0 {
				t.Errorf("no item aged [%v, %v)h in window", band.lo, band.hi)
			}
		}
	})
}

func TestRankWindowRepeatCaps(t *testing.T) {
	build := func() []*core.Candidate {
		var cands []*core.Candidate
		for i := 0; i < 8; i++ {
			c := candidate(fmt.Sprintf("copy%d", i), 1+float64(i)*0.1, 5000)
			c.ContentRepeats = 1
			cands = append(cands, c)
		}
		for i := 0; i < 8; i++ {
			c := candidate(fmt.Sprintf("same%d", i), 1+float64(i)*0.1, 5000)
			c.AuthorRepeats = 1
			cands = append(cands, c)
		}
		for i := 0; i < 12; i++ {
			cands = append(cands, candidate(fmt.Sprintf("clean%d", i), 2+float64(i)*0.1, 5))
		}
		return cands
	}
	limit := int(0.3 * VisibleWindow)
	rankWindowQuota(t, build, func(t *testing.T, cands []*core.Candidate) {
		content := windowCount(cands, VisibleWindow, func(c *core.Candidate) bool { return c.ContentRepeats > 0 })
		author := windowCount(cands, VisibleWindow, func(c *core.Candidate) bool { return c.AuthorRepeats > 0 })
		if content > limit || author > limit {
			t.Errorf("window repeats content=%d author=%d, want <= %d", content, author, limit)
		}
	})
}

func TestRankSingleCommunityCandidate(t *testing.T) {
	c := candidate("noted", 1, 500)
	c.CommunityFlagged = true
	cands := []*core.Candidate{c}

	newTestRanker(1, nil).Rank(cands)

	if len(cands) != 1 || cands[0] != c {
		t.Fatalf("candidate dropped: %v", core.IDs(cands))
	}
	if c.Score != CommunityScore {
		t.Errorf("Score = %v, want %v", c.Score, CommunityScore)
	}
}

func TestRankRecordsVisibleWindow(t *testing.T) {
	cache := exposure.New()
	var cands []*core.Candidate
	for i := 0; i < 15; i++ {
		cands = append(cands, candidate(fmt.Sprintf("p%d", i), float64(i), 10+i))
	}
	r := newTestRanker(9, cache)
	r.Rank(cands)

	if got := cache.HistoryLen(); got != r.Window() {
		t.Fatalf("HistoryLen() = %d, want %d", got, r.Window())
	}
	for _, c := range cands[:r.Window()] {
		if cache.ShownCount(c.ID) != 1 {
			t.Errorf("%s not recorded", c.ID)
		}
	}
	for _, c := range cands[r.Window():] {
		if cache.ShownCount(c.ID) != 0 {
			t.Errorf("%s outside the window recorded", c.ID)
		}
	}
}

func TestRankPromotionPenalty(t *testing.T) {
	cache := exposure.New()
	cache.SetRecentPromotions([]string{"a", "a", "a"})
	a := candidate("a", 3, 40)
	b := candidate("b", 3, 40)
	cands := []*core.Candidate{a, b}

	newTestRanker(5, cache).Rank(cands)

	if cands[0] != b || !(a.Score < b.Score) {
		t.Errorf("order = %v, scores a=%v b=%v", core.IDs(cands), a.Score, b.Score)
	}
}

func TestRankNilEntries(t *testing.T) {
	a := candidate("a", 1, 10)
	cands := []*core.Candidate{nil, a, nil}
	newTestRanker(1, nil).Rank(cands)
	if cands[0] != a || cands[1] != nil || cands[2] != nil {
		t.Errorf("nil entries should move to the end: %v", cands)
	}
	if _, ok := a.Labels["rank_score"]; !ok {
		t.Error("rank_score label missing")
	}
}

func TestFeedNode(t *testing.T) {
	r := newTestRanker(2, nil)
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{&FeedNode{Ranker: r}}}
	cands := []*core.Candidate{candidate("old", 30, 5), candidate("new", 1, 50)}

	out, err := p.Run(context.Background(), &core.RecommendContext{Now: testNow}, cands)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("FeedNode dropped candidates: %v", core.IDs(out))
	}
}

func TestPromotionNode(t *testing.T) {
	if _, err := NewPromotionNode([]PromotionRule{{Expr: "item.likes >", Boost: 2}}); !core.IsInvalidInput(err) {
		t.Fatalf("invalid rule error = %v", err)
	}

	node, err := NewPromotionNode([]PromotionRule{
		{Expr: "item.gold && item.likes > 100", Boost: 2},
		{Expr: "item.has_media", Boost: 1.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	gold := candidate("g", 1, 500)
	gold.Gold = true
	gold.HasMedia = true
	media := candidate("m", 1, 5)
	media.HasMedia = true
	preset := candidate("p", 1, 5)
	preset.PromotionBoost = 3
	preset.HasMedia = true
	plain := candidate("x", 1, 5)

	_, err = node.Process(context.Background(), &core.RecommendContext{Now: testNow}, []*core.Candidate{gold, media, preset, plain, nil})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	tests := []struct {
		c    *core.Candidate
		want float64
	}{
		{gold, 2}, {media, 1.5}, {preset, 3}, {plain, 0},
	}
	for _, tt := range tests {
		if tt.c.PromotionBoost != tt.want {
			t.Errorf("%s boost = %v, want %v", tt.c.ID, tt.c.PromotionBoost, tt.want)
		}
	}
}
