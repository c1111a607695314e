package rerank

import (
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedrank/content"
	"github.com/rushteam/feedrank/core"
)

// DefaultWindow 可见窗口大小：最终列表中真正展示给用户的前缀长度。
const DefaultWindow = 10

// Entry 是重排工作列表中的一项：候选本身加上一次调用内的并行元数据。
type Entry struct {
	Item        *core.Candidate
	Age         float64 // 小时
	Cluster     int
	ClusterSize int
	Prevalence  int     // 同作者在本批次中的条目数，作者未知为 1
	Exposure    float64 // 曝光历史带来的簇/作者阶段惩罚乘数
}

// Slate 是重排阶段的工作列表。各个 pass 产出索引排列，由 Permute 应用。
type Slate struct {
	Entries []Entry
	Window  int
}

// NewSlate 构建工作列表，每个候选初始为单独一簇。items 不能包含 nil。
func NewSlate(items []*core.Candidate, now time.Time, window int) *Slate {
	if window <= 0 {
		window = DefaultWindow
	}
	authors := make(map[string]int)
	for _, c := range items {
		if c.AuthorID != "" {
			authors[c.AuthorID]++
		}
	}
	entries := make([]Entry, len(items))
	for i, c := range items {
		prevalence := 1
		if c.AuthorID != "" {
			prevalence = authors[c.AuthorID]
		}
		entries[i] = Entry{
			Item:        c,
			Age:         ageHours(c.CreatedAt, now),
			Cluster:     i,
			ClusterSize: 1,
			Prevalence:  prevalence,
			Exposure:    1,
		}
	}
	return &Slate{Entries: entries, Window: window}
}

func ageHours(created, now time.Time) float64 {
	h := now.Sub(created).Hours()
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	return h
}

// Visible 返回可见窗口的实际长度。
func (s *Slate) Visible() int {
	return min(len(s.Entries), s.Window)
}

// Items 按当前顺序返回候选。
func (s *Slate) Items() []*core.Candidate {
	out := make([]*core.Candidate, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Item
	}
	return out
}

// AssignClusters 对内容做近重复聚类并写入每项的簇编号与簇大小。
func (s *Slate) AssignClusters() {
	fps := make([]content.Fingerprint, len(s.Entries))
	for i, e := range s.Entries {
		fps[i] = content.New(e.Item.ID, e.Item.Content)
	}
	cl := content.Cluster(fps)
	for i := range s.Entries {
		s.Entries[i].Cluster = cl.IDs[i]
		s.Entries[i].ClusterSize = cl.Size(i)
	}
}

// ApplyExposure 用 penalty(id) 设置每项的曝光乘数。
func (s *Slate) ApplyExposure(penalty func(id string) float64) {
	if penalty == nil {
		return
	}
	for i := range s.Entries {
		s.Entries[i].Exposure = penalty(s.Entries[i].Item.ID)
	}
}

// Permute 按 order 重排工作列表；order 必须是 [0, n) 的排列。
func (s *Slate) Permute(order []int) {
	next := make([]Entry, len(order))
	for i, idx := range order {
		next[i] = s.Entries[idx]
	}
	s.Entries = next
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// scoreOrder 返回按分数降序的稳定排列。
func scoreOrder(entries []Entry) []int {
	order := identity(len(entries))
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].Item.Score > entries[order[b]].Item.Score
	})
	return order
}
