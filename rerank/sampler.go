package rerank

import (
	"math"
	"math/rand/v2"
	"sort"
)

const (
	SampleAgeWeight      = 0.35
	SampleRepeatWeight   = 0.5
	SampleSeenHours      = 24.0
	SampleSeenFactor     = 0.5
	SamplePrevalenceStep = 0.2
	SampleFreshHours     = 1.0
	SampleFreshBoost     = 1.1
	SampleMidMinHours    = 12.0
	SampleMidMaxHours    = 48.0
	SampleMidBoost       = 1.05

	// DefaultPoolFactor 抽样池为窗口大小的倍数，默认只在窗口内重排
	DefaultPoolFactor = 1
)

// RandomSource 是抽样使用的随机源，*rand.Rand 满足该接口。
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Sampler 在列表头部做加权无放回抽样，避免重复请求得到完全确定的 top-N。
type Sampler struct {
	// PoolFactor 抽样池 = 前 PoolFactor·窗口 个候选，<= 0 时取 DefaultPoolFactor
	PoolFactor int
	Rand       RandomSource
}

// Weight 返回单项的抽样权重。
func Weight(e Entry) float64 {
	c := e.Item
	if c.Score <= 0 || math.IsNaN(c.Score) {
		return 0
	}
	w := c.Score / (1 + SampleAgeWeight*e.Age)
	w /= 1 + SampleRepeatWeight*float64(max(c.AuthorRepeats, 0)+max(c.ContentRepeats, 0))
	if c.HoursSinceSeen >= 0 && c.HoursSinceSeen < SampleSeenHours {
		w *= SampleSeenFactor
	}
	w /= math.Sqrt(float64(max(e.ClusterSize, 1)))
	w /= 1 + SamplePrevalenceStep*float64(max(e.Prevalence-1, 0))
	if e.Age < SampleFreshHours {
		w *= SampleFreshBoost
	}
	if e.Age >= SampleMidMinHours && e.Age <= SampleMidMaxHours {
		w *= SampleMidBoost
	}
	if math.IsInf(w, 0) || math.IsNaN(w) {
		return 0
	}
	return w
}

// Sample 从抽样池中按权重逐个抽取，直到填满窗口或权重耗尽。
// 抽中的按分数降序排在最前，未抽中的保持原相对顺序跟在后面。
func (sm *Sampler) Sample(s *Slate) []int {
	n := len(s.Entries)
	w := s.Visible()
	factor := sm.PoolFactor
	if factor <= 0 {
		factor = DefaultPoolFactor
	}
	rnd := sm.Rand
	if rnd == nil {
		rnd = globalRand{}
	}

	pool := min(n, factor*w)
	weights := make([]float64, pool)
	remaining := make([]int, pool)
	for i := 0; i < pool; i++ {
		weights[i] = Weight(s.Entries[i])
		remaining[i] = i
	}

	picked := make([]int, 0, w)
	chosen := make([]bool, n)
	for len(picked) < w && len(remaining) > 0 {
		total := 0.0
		for _, i := range remaining {
			total += weights[i]
		}
		if total <= 0 || math.IsInf(total, 0) {
			break
		}
		r := rnd.Float64() * total
		k, cum := -1, 0.0
		for j, i := range remaining {
			if weights[i] <= 0 {
				continue
			}
			cum += weights[i]
			k = j
			if cum > r {
				break
			}
		}
		i := remaining[k]
		picked = append(picked, i)
		chosen[i] = true
		remaining = append(remaining[:k], remaining[k+1:]...)
	}

	sort.SliceStable(picked, func(a, b int) bool {
		return s.Entries[picked[a]].Item.Score > s.Entries[picked[b]].Item.Score
	})
	order := picked
	for i := 0; i < n; i++ {
		if !chosen[i] {
			order = append(order, i)
		}
	}
	return order
}
