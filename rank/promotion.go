package rank

import (
	"context"
	"fmt"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/dsl"
	"github.com/rushteam/feedrank/pkg/utils"
)

// PromotionRule 命中 Expr（CEL）的候选获得 Boost 倍率的人工加推。
type PromotionRule struct {
	Expr  string  `json:"expr" yaml:"expr"`
	Boost float64 `json:"boost" yaml:"boost"`
}

// PromotionNode 按规则设置 PromotionBoost，多条命中取最大值；调用方已给出的更大值保留。
// - 写入 labels：promotion
type PromotionNode struct {
	Rules []PromotionRule
}

// NewPromotionNode 预编译全部规则，表达式有误时返回 INVALID_INPUT。
func NewPromotionNode(rules []PromotionRule) (*PromotionNode, error) {
	for _, rule := range rules {
		if _, err := dsl.Compile(rule.Expr); err != nil {
			return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
				fmt.Sprintf("promotion rule %q: %v", rule.Expr, err))
		}
	}
	return &PromotionNode{Rules: rules}, nil
}

func (n *PromotionNode) Name() string        { return "rank.promotion" }
func (n *PromotionNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PromotionNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	for _, c := range items {
		if c == nil {
			continue
		}
		eval := dsl.NewEval(c, rctx)
		for _, rule := range n.Rules {
			ok, err := eval.Evaluate(rule.Expr)
			if err != nil {
				return nil, fmt.Errorf("promotion rule %q: %w", rule.Expr, err)
			}
			if ok && rule.Boost > c.PromotionBoost {
				c.PromotionBoost = rule.Boost
				c.PutLabel("promotion", utils.Label{Value: rule.Expr, Source: "rank"})
			}
		}
	}
	return items, nil
}
