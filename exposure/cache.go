// Package exposure 维护跨调用的曝光状态：近期推广列表与 top-shown 历史。
package exposure

import (
	"math"
	"sync"

	"github.com/rushteam/feedrank/pkg/metrics"
)

const (
	DefaultPromotionCapacity = 128
	DefaultHistoryCapacity   = 1024

	PromotionPenaltyBase  = 0.6
	PromotionPenaltyFloor = 0.12

	HistoryPenaltyFrom  = 2
	HistoryPenaltyBase  = 0.85
	HistoryPenaltyFloor = 0.6

	PassPenaltyBase  = 0.82
	PassPenaltyFloor = 0.3
)

// Cache 保存两类相互独立的曝光状态，各自一把锁，可并发使用。
// 由调用方创建并持有（例如 Ranker 构造时传入），进程内共享。
type Cache struct {
	promoMu    sync.Mutex
	promotions []string
	promoCap   int

	histMu  sync.Mutex
	order   []string // 插入顺序，用于 FIFO 淘汰
	counts  map[string]int
	histCap int
}

// Option 配置 Cache。
type Option func(*Cache)

// WithPromotionCapacity 设置近期推广列表容量。
func WithPromotionCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.promoCap = n
		}
	}
}

// WithHistoryCapacity 设置曝光历史容量。
func WithHistoryCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.histCap = n
		}
	}
}

// New 创建空缓存。
func New(opts ...Option) *Cache {
	c := &Cache{
		promoCap: DefaultPromotionCapacity,
		histCap:  DefaultHistoryCapacity,
		counts:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRecentPromotions 替换近期推广列表，超出容量的部分被截断；空输入清空列表。
func (c *Cache) SetRecentPromotions(ids []string) {
	if len(ids) > c.promoCap {
		ids = ids[:c.promoCap]
	}
	next := make([]string, len(ids))
	copy(next, ids)

	c.promoMu.Lock()
	c.promotions = next
	c.promoMu.Unlock()
}

// ClearRecentPromotions 清空近期推广列表。
func (c *Cache) ClearRecentPromotions() {
	c.promoMu.Lock()
	c.promotions = nil
	c.promoMu.Unlock()
}

// RecentPromotions 返回近期推广列表的副本。
func (c *Cache) RecentPromotions() []string {
	c.promoMu.Lock()
	defer c.promoMu.Unlock()
	out := make([]string, len(c.promotions))
	copy(out, c.promotions)
	return out
}

// PromotionPenalty 返回 id 在近期推广列表中的惩罚：0.6^出现次数，下限 0.12；未出现为 1。
func (c *Cache) PromotionPenalty(id string) float64 {
	if id == "" {
		return 1
	}
	c.promoMu.Lock()
	occ := 0
	for _, p := range c.promotions {
		if p == id {
			occ++
		}
	}
	c.promoMu.Unlock()
	if occ == 0 {
		return 1
	}
	return math.Max(PromotionPenaltyFloor, math.Pow(PromotionPenaltyBase, float64(occ)))
}

// RecordShown 记录一次曝光：已存在则计数加一，否则插入；满容量时淘汰最早插入的四分之一。
func (c *Cache) RecordShown(id string) {
	if id == "" {
		return
	}
	c.histMu.Lock()
	defer c.histMu.Unlock()
	c.recordLocked(id, 1)
	metrics.ExposureHistorySize.Set(float64(len(c.order)))
}

func (c *Cache) recordLocked(id string, n int) {
	if _, ok := c.counts[id]; ok {
		c.counts[id] += n
		return
	}
	if len(c.order) >= c.histCap {
		evict := max(c.histCap/4, 1)
		for _, old := range c.order[:evict] {
			delete(c.counts, old)
		}
		c.order = append(c.order[:0:0], c.order[evict:]...)
	}
	c.order = append(c.order, id)
	c.counts[id] = n
}

// ClearHistory 清空曝光历史。
func (c *Cache) ClearHistory() {
	c.histMu.Lock()
	c.order = nil
	c.counts = make(map[string]int)
	c.histMu.Unlock()
	metrics.ExposureHistorySize.Set(0)
}

// ShownCount 返回 id 的曝光次数。
func (c *Cache) ShownCount(id string) int {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	return c.counts[id]
}

// HistoryLen 返回曝光历史中的 id 数。
func (c *Cache) HistoryLen() int {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	return len(c.order)
}

// HistoryPenalty 打分阶段的曝光惩罚：次数 > 2 时 0.85^(次数-2)，下限 0.6。
func (c *Cache) HistoryPenalty(id string) float64 {
	n := c.ShownCount(id)
	if n <= HistoryPenaltyFrom {
		return 1
	}
	return math.Max(HistoryPenaltyFloor, math.Pow(HistoryPenaltyBase, float64(n-HistoryPenaltyFrom)))
}

// PassPenalty 簇/作者惩罚阶段使用的更强曝光惩罚：0.82^次数，下限 0.3。
func (c *Cache) PassPenalty(id string) float64 {
	n := c.ShownCount(id)
	if n <= 0 {
		return 1
	}
	return math.Max(PassPenaltyFloor, math.Pow(PassPenaltyBase, float64(n)))
}
