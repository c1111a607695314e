package exposure

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pkg/metrics"
)

// Entry 是曝光历史中的一条记录。
type Entry struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Snapshot 是两类缓存的可序列化快照，History 按插入顺序排列。
type Snapshot struct {
	Promotions []string `json:"promotions"`
	History    []Entry  `json:"history"`
}

// Snapshot 导出当前状态。
func (c *Cache) Snapshot() Snapshot {
	s := Snapshot{Promotions: c.RecentPromotions()}
	c.histMu.Lock()
	s.History = make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		s.History = append(s.History, Entry{ID: id, Count: c.counts[id]})
	}
	c.histMu.Unlock()
	return s
}

// Restore 用快照替换当前状态，容量约束照常生效。
func (c *Cache) Restore(s Snapshot) {
	c.SetRecentPromotions(s.Promotions)

	c.histMu.Lock()
	c.order = nil
	c.counts = make(map[string]int)
	for _, e := range s.History {
		if e.ID == "" || e.Count <= 0 {
			continue
		}
		c.recordLocked(e.ID, e.Count)
	}
	size := len(c.order)
	c.histMu.Unlock()
	metrics.ExposureHistorySize.Set(float64(size))
}

// Persister 将曝光快照以 JSON 存入 core.Store 的单个 key。
type Persister struct {
	Store core.Store
	Key   string
}

// NewPersister 创建 Persister，key 为空时使用 "feedrank:exposure"。
func NewPersister(store core.Store, key string) *Persister {
	if key == "" {
		key = "feedrank:exposure"
	}
	return &Persister{Store: store, Key: key}
}

// Save 保存快照。
func (p *Persister) Save(ctx context.Context, c *Cache) error {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return fmt.Errorf("exposure: marshal snapshot: %w", err)
	}
	if err := p.Store.Set(ctx, p.Key, data); err != nil {
		return fmt.Errorf("exposure: save snapshot: %w", err)
	}
	return nil
}

// Load 从存储恢复快照；key 不存在时保持缓存为空并返回 nil。
func (p *Persister) Load(ctx context.Context, c *Cache) error {
	data, err := p.Store.Get(ctx, p.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return fmt.Errorf("exposure: load snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return core.NewDomainError(core.ModuleExposure, core.ErrorCodeInvalidInput, fmt.Sprintf("decode snapshot: %v", err))
	}
	c.Restore(s)
	return nil
}
