package rank

import (
	"sort"
	"time"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/pkg/metrics"
	"github.com/rushteam/feedrank/pkg/utils"
	"github.com/rushteam/feedrank/rerank"
)

// Ranker 是排序核心入口：打分、多样性调度、窗口抽样与重复间隔，原地重排候选。
// 除曝光缓存外无跨调用状态；同一 Ranker 可被多个 goroutine 并发使用。
type Ranker struct {
	model    Model
	exposure *exposure.Cache
	window   int
	sampler  *rerank.Sampler
	clock    func() time.Time
}

// Option 配置 Ranker。
type Option func(*Ranker)

// WithModel 替换打分模型（例如调整随机扰动幅度）。
func WithModel(m Model) Option {
	return func(r *Ranker) { r.model = m }
}

// WithWindow 设置可见窗口大小。
func WithWindow(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.window = n
		}
	}
}

// WithRandom 设置抽样随机源，测试中用固定种子的 *rand.Rand。
func WithRandom(src rerank.RandomSource) Option {
	return func(r *Ranker) { r.sampler.Rand = src }
}

// WithPoolFactor 设置抽样池相对窗口的倍数，默认 1（只在窗口内抽样）。
func WithPoolFactor(n int) Option {
	return func(r *Ranker) { r.sampler.PoolFactor = n }
}

// WithClock 设置时间基准。
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.clock = now
		}
	}
}

// NewRanker 创建 Ranker。cache 为 nil 时使用新建的空缓存。
func NewRanker(cache *exposure.Cache, opts ...Option) *Ranker {
	if cache == nil {
		cache = exposure.New()
	}
	r := &Ranker{
		model:    DefaultModel(),
		exposure: cache,
		window:   VisibleWindow,
		sampler:  &rerank.Sampler{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exposure 返回 Ranker 持有的曝光缓存。
func (r *Ranker) Exposure() *exposure.Cache { return r.exposure }

// Window 返回可见窗口大小。
func (r *Ranker) Window() int { return r.window }

// Rank 以当前时间原地重排 cands。
func (r *Ranker) Rank(cands []*core.Candidate) {
	r.RankAt(cands, r.clock())
}

// RankAt 以 now 为时间基准原地重排 cands。输出总是输入的一个排列：不增不减，
// 重复条目保留；nil 元素移到末尾。最终可见窗口中的 ID 计入曝光历史。
func (r *Ranker) RankAt(cands []*core.Candidate, now time.Time) {
	if len(cands) == 0 {
		return
	}
	start := time.Now()

	items := make([]*core.Candidate, 0, len(cands))
	for _, c := range cands {
		if c != nil {
			items = append(items, c)
		}
	}

	for _, c := range items {
		c.Score = r.score(c, 0, now)
	}
	sortByScore(items)
	for i := 0; i < min(len(items), r.window); i++ {
		items[i].Score = r.score(items[i], i, now)
	}
	sortByScore(items)

	slate := rerank.NewSlate(items, now, r.window)
	rerank.Guard("cluster", slate.AssignClusters)
	slate.ApplyExposure(r.exposure.PassPenalty)
	sched := rerank.Scheduler{}
	sched.Schedule(slate)
	rerank.Guard("sample", func() {
		slate.Permute(r.sampler.Sample(slate))
	})
	sched.Enforce(slate)
	slate.Permute(rerank.SpaceDuplicates(slate))

	for i, e := range slate.Entries {
		setLabel(e.Item, "rank_score", utils.FloatLabel(e.Item.Score, "rank"))
		setLabel(e.Item, "cluster", utils.IntLabel(e.Cluster, "rerank"))
		cands[i] = e.Item
	}
	for i := len(slate.Entries); i < len(cands); i++ {
		cands[i] = nil
	}

	shown := make(map[string]struct{}, slate.Visible())
	for _, e := range slate.Entries[:slate.Visible()] {
		if _, dup := shown[e.Item.ID]; dup {
			continue
		}
		shown[e.Item.ID] = struct{}{}
		r.exposure.RecordShown(e.Item.ID)
	}

	metrics.ObserveRank(len(items), time.Since(start))
}

func (r *Ranker) score(c *core.Candidate, position int, now time.Time) float64 {
	return r.model.Score(c, position, now) *
		r.exposure.PromotionPenalty(c.ID) *
		r.exposure.HistoryPenalty(c.ID)
}

func sortByScore(items []*core.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// setLabel 覆盖写入：重复排序同一批候选时解释标签不累积。
func setLabel(c *core.Candidate, key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	c.Labels[key] = lbl
}
