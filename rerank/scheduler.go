package rerank

import (
	"math"
	"sort"
)

const (
	ClusterPenaltyBase  = 0.8
	ClusterPenaltyFloor = 0.35
	AuthorPenaltyBase   = 0.9
	AuthorPenaltyFloor  = 0.5

	DuplicateIterations = 3
	DuplicateUniqueness = 0.7
	DuplicatePenalty    = 0.5

	ClampStartMultiple = 6.0
	ClampMinMultiple   = 2.0
	ClampStep          = 0.5

	AgeFloorHours  = 6.0
	OlderBandHours = 24.0
	RepeatShare    = 0.3
	MaxAuthorSlots = 4
)

// 年龄分段上界（小时）：<6, 6–24, 24–48, 48–96, ≥96。
var bandBounds = [...]float64{6, 24, 48, 96}

// 轮询顺序，优先把较老的内容混进来。
var bandRotation = [...]int{0, 2, 1, 3, 4}

const bandCount = len(bandBounds) + 1

func band(age float64) int {
	for i, bound := range bandBounds {
		if age < bound {
			return i
		}
	}
	return len(bandBounds)
}

// ageQuota 窗口内较老内容的最低条数。
func ageQuota(window int) int {
	if window < 6 {
		return 1
	}
	return 2
}

// Scheduler 在已按分数排序的列表上依次执行多样性 pass。
type Scheduler struct{}

// Schedule 执行全部 pass，结果写回 s。分桶轮询属于可选 pass，失败时跳过。
func (Scheduler) Schedule(s *Slate) {
	if len(s.Entries) == 0 {
		return
	}
	s.Permute(ClusterAuthorPass(s))
	for iter := 0; iter < DuplicateIterations; iter++ {
		if UniqueRatio(s) >= DuplicateUniqueness {
			break
		}
		s.Permute(DuplicateIDPass(s, iter))
	}
	s.Permute(ScoreClampPass(s))
	s.Permute(UniqueFirstPass(s))
	s.Permute(AgeFloorPass(s))
	Guard("bucket", func() {
		s.Permute(RoundRobinPass(s))
	})
	s.Permute(OlderCoveragePass(s))
	s.Permute(RepeatCapPass(s))
	s.Permute(AdjacentClusterPass(s))
}

// Enforce 重新执行窗口配额相关的 pass（年龄下限、较老分段覆盖、重复上限、相邻簇）。
// 抽样池大于窗口时，抽样可能换掉这些 pass 放进窗口的条目，抽样后需要再执行一次。
func (Scheduler) Enforce(s *Slate) {
	if len(s.Entries) == 0 {
		return
	}
	s.Permute(AgeFloorPass(s))
	s.Permute(OlderCoveragePass(s))
	s.Permute(RepeatCapPass(s))
	s.Permute(AdjacentClusterPass(s))
}

// ClusterAuthorPass 按簇大小、作者集中度与曝光历史降权后重新排序。
func ClusterAuthorPass(s *Slate) []int {
	for i := range s.Entries {
		e := &s.Entries[i]
		p := math.Max(ClusterPenaltyFloor, math.Pow(ClusterPenaltyBase, float64(e.ClusterSize-1)))
		p *= math.Max(AuthorPenaltyFloor, math.Pow(AuthorPenaltyBase, float64(e.Prevalence-1)))
		e.Item.Score *= p * e.Exposure
	}
	return scoreOrder(s.Entries)
}

// UniqueRatio 可见窗口内不同 ID 的占比，空 ID 各自计为唯一。
func UniqueRatio(s *Slate) float64 {
	w := s.Visible()
	if w == 0 {
		return 1
	}
	seen := make(map[string]struct{}, w)
	unique := 0
	for _, e := range s.Entries[:w] {
		id := e.Item.ID
		if id == "" {
			unique++
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique++
		}
	}
	return float64(unique) / float64(w)
}

// DuplicateIDPass 对窗口内第 k 次重复出现（k ≥ 1）的 ID 乘以 0.5^(k·(iter+1))，然后重新排序。
func DuplicateIDPass(s *Slate, iter int) []int {
	w := s.Visible()
	counts := make(map[string]int, w)
	for i := 0; i < w; i++ {
		c := s.Entries[i].Item
		if c.ID == "" {
			continue
		}
		if k := counts[c.ID]; k > 0 {
			c.Score *= math.Pow(DuplicatePenalty, float64(k*(iter+1)))
		}
		counts[c.ID]++
	}
	return scoreOrder(s.Entries)
}

// ScoreClampPass 把位置 i 的分数限制在 median·max(2, 6 − 0.5·i)，防止单个极端值统治头部。
func ScoreClampPass(s *Slate) []int {
	m := medianScore(s.Entries)
	if m <= 0 {
		return identity(len(s.Entries))
	}
	for i := range s.Entries {
		limit := m * math.Max(ClampMinMultiple, ClampStartMultiple-ClampStep*float64(i))
		c := s.Entries[i].Item
		c.Score = math.Min(c.Score, limit)
	}
	return scoreOrder(s.Entries)
}

func medianScore(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.Item.Score
	}
	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		return scores[mid]
	}
	return (scores[mid-1] + scores[mid]) / 2
}

// UniqueFirstPass 稳定划分：每个 ID 的首次出现排在所有重复之前。
func UniqueFirstPass(s *Slate) []int {
	seen := make(map[string]struct{}, len(s.Entries))
	first := make([]int, 0, len(s.Entries))
	var repeats []int
	for i, e := range s.Entries {
		id := e.Item.ID
		if id == "" {
			first = append(first, i)
			continue
		}
		if _, ok := seen[id]; ok {
			repeats = append(repeats, i)
			continue
		}
		seen[id] = struct{}{}
		first = append(first, i)
	}
	return append(first, repeats...)
}

// AgeFloorPass 保证窗口内至少有 1（窗口 < 6）或 2 条 6 小时以上的内容：
// 用窗口外最老的合格候选（分数 > 0）替换窗口内最年轻的新内容。
func AgeFloorPass(s *Slate) []int {
	order := identity(len(s.Entries))
	w := s.Visible()
	if w == 0 {
		return order
	}
	age := func(pos int) float64 { return s.Entries[order[pos]].Age }

	count := 0
	for i := 0; i < w; i++ {
		if age(i) >= AgeFloorHours {
			count++
		}
	}
	for count < ageQuota(w) {
		out := -1
		for i := w; i < len(order); i++ {
			if age(i) >= AgeFloorHours && s.Entries[order[i]].Item.Score > 0 && (out < 0 || age(i) > age(out)) {
				out = i
			}
		}
		in := -1
		for i := 0; i < w; i++ {
			if age(i) < AgeFloorHours && (in < 0 || age(i) < age(in)) {
				in = i
			}
		}
		if out < 0 || in < 0 {
			break
		}
		order[in], order[out] = order[out], order[in]
		count++
	}
	return order
}

// RoundRobinPass 按年龄分段轮询选取，跳过重复 ID 与超出作者重复配额的候选；
// 未满足“较老内容”配额前跳过前两个分段，某轮无进展时解除该约束。剩余候选按原顺序追加。
func RoundRobinPass(s *Slate) []int {
	n := len(s.Entries)
	w := s.Visible()

	var buckets [bandCount][]int
	for i, e := range s.Entries {
		b := band(e.Age)
		buckets[b] = append(buckets[b], i)
	}
	older := 0
	for b := 2; b < bandCount; b++ {
		older += len(buckets[b])
	}
	need := min(ageQuota(w), older)
	authorCap := min(w, MaxAuthorSlots)

	var heads [bandCount]int
	selected := make([]bool, n)
	ids := make(map[string]struct{}, n)
	authors := make(map[string]int, n)
	authorRepeats, olderPicked := 0, 0
	order := make([]int, 0, n)

	pick := func(b int) bool {
		for heads[b] < len(buckets[b]) {
			i := buckets[b][heads[b]]
			heads[b]++
			c := s.Entries[i].Item
			if c.ID != "" {
				if _, dup := ids[c.ID]; dup {
					continue
				}
			}
			repeat := c.AuthorID != "" && authors[c.AuthorID] > 0
			if repeat && authorRepeats >= authorCap {
				continue
			}

			selected[i] = true
			order = append(order, i)
			if c.ID != "" {
				ids[c.ID] = struct{}{}
			}
			if c.AuthorID != "" {
				authors[c.AuthorID]++
			}
			if repeat {
				authorRepeats++
			}
			if b >= 2 {
				olderPicked++
			}
			return true
		}
		return false
	}

	for {
		progress := false
		for _, b := range bandRotation {
			if olderPicked < need && b < 2 {
				continue
			}
			if pick(b) {
				progress = true
			}
		}
		if progress {
			continue
		}
		if olderPicked < need {
			need = olderPicked
			continue
		}
		break
	}

	for i := 0; i < n; i++ {
		if !selected[i] {
			order = append(order, i)
		}
	}
	return order
}

// OlderCoveragePass 对窗口中缺失的 24–48h、48–96h、≥96h 分段，
// 用该分段窗口外第一个合格候选替换窗口内最年轻的 24h 以内内容。
func OlderCoveragePass(s *Slate) []int {
	order := identity(len(s.Entries))
	w := s.Visible()
	bandAt := func(pos int) int { return band(s.Entries[order[pos]].Age) }

	for b := 2; b < bandCount; b++ {
		present := false
		for i := 0; i < w; i++ {
			if bandAt(i) == b {
				present = true
				break
			}
		}
		if present {
			continue
		}
		out := -1
		for i := w; i < len(order); i++ {
			if bandAt(i) == b && s.Entries[order[i]].Item.Score > 0 {
				out = i
				break
			}
		}
		in := -1
		for i := 0; i < w; i++ {
			if bandAt(i) < 2 && (in < 0 || s.Entries[order[i]].Age < s.Entries[order[in]].Age) {
				in = i
			}
		}
		if out < 0 || in < 0 {
			continue
		}
		order[in], order[out] = order[out], order[in]
	}
	return order
}

// RepeatCapPass 限制窗口内内容重复与作者重复的条目各不超过 floor(0.3·窗口)，
// 多出的（从窗口尾部开始）与窗口外第一个无重复的候选交换。
func RepeatCapPass(s *Slate) []int {
	order := identity(len(s.Entries))
	w := s.Visible()
	limit := int(RepeatShare * float64(w))

	clean := func(e Entry) bool { return e.Item.ContentRepeats <= 0 && e.Item.AuthorRepeats <= 0 }
	capRepeats := func(repeat func(Entry) bool) {
		count := 0
		for i := 0; i < w; i++ {
			if repeat(s.Entries[order[i]]) {
				count++
			}
		}
		next := w
		for i := w - 1; i >= 0 && count > limit; i-- {
			if !repeat(s.Entries[order[i]]) {
				continue
			}
			for next < len(order) && !clean(s.Entries[order[next]]) {
				next++
			}
			if next >= len(order) {
				return
			}
			order[i], order[next] = order[next], order[i]
			next++
			count--
		}
	}
	capRepeats(func(e Entry) bool { return e.Item.ContentRepeats > 0 })
	capRepeats(func(e Entry) bool { return e.Item.AuthorRepeats > 0 })
	return order
}

// AdjacentClusterPass 头两条属于同一簇时，把第二条换成后面第一条不同簇的候选。
func AdjacentClusterPass(s *Slate) []int {
	order := identity(len(s.Entries))
	if s.Visible() < 2 || s.Entries[0].Cluster != s.Entries[1].Cluster {
		return order
	}
	for j := 2; j < len(order); j++ {
		if s.Entries[j].Cluster != s.Entries[0].Cluster {
			order[1], order[j] = order[j], order[1]
			break
		}
	}
	return order
}
