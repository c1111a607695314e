package core

import (
	"time"

	"github.com/rushteam/feedrank/pkg/utils"
)

// RecommendContext 承载请求级信息（观看者、时间基准、参数），贯穿整个 Pipeline 透传。
type RecommendContext struct {
	ViewerID string
	Scene    string

	// Now 是本次请求的时间基准；为零值时各节点使用 time.Now()
	Now time.Time

	// Labels 是请求级标签，可驱动 Pipeline 行为（例如 "cold_start"）
	Labels map[string]utils.Label

	// Params 请求级参数，例如 limit、debug 等
	Params map[string]any
}

// Clock 返回请求的时间基准。
func (rctx *RecommendContext) Clock() time.Time {
	if rctx == nil || rctx.Now.IsZero() {
		return time.Now()
	}
	return rctx.Now
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
