package rerank

import (
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/pkg/metrics"
)

// Guard 执行一个可选 pass。pass 内 panic 时跳过该 pass 并返回 false，
// 调用方保持此前的顺序继续。
func Guard(pass string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			logging.Warn().Str("pass", pass).Interface("panic", r).Msg("ranking pass skipped")
			metrics.PassSkipped.WithLabelValues(pass).Inc()
		}
	}()
	fn()
	return true
}
