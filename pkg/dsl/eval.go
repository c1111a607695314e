// Package dsl 是基于 CEL 的候选表达式求值器，用于加推规则等配置化判断。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/feedrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式：expr -> cel.Program
	programs sync.Map
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并缓存，重复调用同一表达式只编译一次。
// 构建 Pipeline 时调用可提前发现语法错误。
func Compile(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	programs.Store(expr, prg)
	return prg, nil
}

// Eval 是候选级的表达式解释器，使用 CEL (Common Expression Language) 实现。
//
// 可用变量：
//   - item: id, author_id, likes, reposts, replies, quotes, engagement, has_media,
//     verified, gold, followers, age_hours, seen, hours_since_seen, score, labels
//   - label: label 名 -> value
//   - rctx: viewer_id, scene, params
//
// 示例：
//   - `item.gold && item.likes > 100`
//   - `item.age_hours < 2.0 && item.has_media`
//   - `rctx.scene == "home" && label.campaign != null`
type Eval struct {
	item *core.Candidate
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Candidate, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 执行表达式，返回布尔结果；空表达式视为 true。
// 访问不存在的 label key 会报错，应先用 label.key != null 判断存在性。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func (e *Eval) buildInput() map[string]any {
	c := e.item
	if c == nil {
		c = core.NewCandidate("")
	}

	labels := make(map[string]any, len(c.Labels))
	labelAccessor := make(map[string]any, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		labelAccessor[k] = v.Value
	}

	now := e.rctx.Clock()
	item := map[string]any{
		"id":               c.ID,
		"author_id":        c.AuthorID,
		"likes":            int64(c.Likes),
		"reposts":          int64(c.Reposts),
		"replies":          int64(c.Replies),
		"quotes":           int64(c.Quotes),
		"engagement":       int64(c.TotalEngagement()),
		"has_media":        c.HasMedia,
		"verified":         c.Verified,
		"gold":             c.Gold,
		"followers":        int64(c.FollowerCount),
		"age_hours":        max(now.Sub(c.CreatedAt).Hours(), 0),
		"seen":             c.Seen(),
		"hours_since_seen": c.HoursSinceSeen,
		"score":            c.Score,
		"labels":           labels,
	}

	rctx := map[string]any{
		"viewer_id": "",
		"scene":     "",
		"params":    map[string]any{},
	}
	if e.rctx != nil {
		rctx["viewer_id"] = e.rctx.ViewerID
		rctx["scene"] = e.rctx.Scene
		if e.rctx.Params != nil {
			rctx["params"] = e.rctx.Params
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
