package core

import (
	"time"

	"github.com/rushteam/feedrank/pkg/utils"
)

// Candidate 是一次排序调用中的候选帖子：原始信号、可变分数与解释标签。
// 数值字段允许任意输入，打分前统一做截断（负数视为 0、非有限值回退到中性默认值）。
type Candidate struct {
	ID       string // 为空时不参与按 ID 去重
	AuthorID string // 为空表示作者未知，不计入作者集中度
	Content  string

	CreatedAt time.Time

	Likes   int
	Reposts int
	Replies int
	Quotes  int

	HasMedia         bool
	CommunityFlagged bool // 社区标注，分数被强力压制

	// HoursSinceSeen 距该用户上次看到此帖的小时数，负数表示从未看过
	HoursSinceSeen float64

	// AuthorRepeats / ContentRepeats 由调用方提供：本次之前候选池中同作者 / 同内容的出现次数
	AuthorRepeats  int
	ContentRepeats int

	// NoveltyFactor 新鲜感乘数，<= 0 表示未提供（打分按 1 计，EnrichNode 会补全）
	NoveltyFactor float64
	RandomFactor  float64
	AllSeen       bool // 本批次所有候选都已看过

	Verified      bool
	Gold          bool
	FollowerCount int

	// PromotionBoost 人工加推倍率，0 表示无
	PromotionBoost float64

	Score  float64
	Labels map[string]utils.Label
}

// NewCandidate 创建一个从未被看过的候选。
func NewCandidate(id string) *Candidate {
	return &Candidate{
		ID:             id,
		HoursSinceSeen: -1,
		Labels:         make(map[string]utils.Label),
	}
}

// TotalEngagement 返回四类互动的原始总和（负数按 0 计）。
func (c *Candidate) TotalEngagement() int {
	return max(c.Likes, 0) + max(c.Reposts, 0) + max(c.Replies, 0) + max(c.Quotes, 0)
}

// Seen 表示该候选曾被展示给当前用户。
func (c *Candidate) Seen() bool {
	return c.HoursSinceSeen >= 0
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// IDs 按当前顺序返回候选 ID 列表（响应编码用）。
func IDs(cands []*Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		out = append(out, c.ID)
	}
	return out
}
