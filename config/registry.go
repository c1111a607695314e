package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/feature"
	"github.com/rushteam/feedrank/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/feedrank/config/builders"
// 以触发内置 Node（feature.enrich、filter、rank.promotion、rank.feed、rerank.topn）的 init 注册。

// Deps 是构建 Node 时注入的运行时依赖，各字段都可以为空。
type Deps struct {
	// Store 供过滤器读取黑名单、拉黑列表
	Store core.KeyValueStore

	// Seen 观看者已读记录；为空且 Store 不为空时基于 Store 创建
	Seen feature.SeenStore

	// Exposure 排序节点共享的曝光缓存；为空时每个 rank.feed 各自持有一份
	Exposure *exposure.Cache
}

// Builder 根据 config 与依赖构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type Builder func(cfg map[string]any, deps Deps) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]Builder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
func Register(typeName string, builder Builder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回基于当前注册表构建的 NodeFactory，deps 会注入到每个 builder。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	if deps.Seen == nil && deps.Store != nil {
		deps.Seen = feature.NewStoreSeenAdapter(deps.Store, "")
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, func(cfg map[string]any) (pipeline.Node, error) {
			return builder(cfg, deps)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	supported := SupportedTypes()
	for _, nc := range cfg.Pipeline.Nodes {
		defaultBuildersMu.RLock()
		_, ok := defaultBuilders[nc.Type]
		defaultBuildersMu.RUnlock()
		if !ok {
			return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("unsupported node type %q (supported: %v)", nc.Type, supported))
		}
	}
	return nil
}
