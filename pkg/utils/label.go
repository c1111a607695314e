package utils

import "strconv"

// Label 是排序链路中的一等公民：可解释、可追踪、可透传。
// 每个阶段写入自己的 Label（例如 rank_score、cluster、sampled），便于 explain 与排查。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // enrich / filter / rank / rerank / exposure ...
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// FloatLabel 以 4 位小数格式化数值 Label。
func FloatLabel(v float64, source string) Label {
	return Label{Value: strconv.FormatFloat(v, 'f', 4, 64), Source: source}
}

// IntLabel 格式化整数 Label。
func IntLabel(v int, source string) Label {
	return Label{Value: strconv.Itoa(v), Source: source}
}
