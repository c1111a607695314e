// Package content 提供帖子内容指纹与近重复聚类。
package content

import (
	"strings"
	"unicode"
)

const (
	// MaxTokens 每条内容最多保留的 token 数
	MaxTokens = 24
	// MinTokenLen token 最短长度（按字符计）
	MinTokenLen = 3
	// SimilarityThreshold Jaccard 相似度超过该值视为近重复
	SimilarityThreshold = 0.45
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "his": {}, "how": {}, "its": {}, "who": {},
	"did": {}, "get": {}, "him": {}, "she": {}, "too": {}, "use": {}, "that": {},
	"with": {}, "have": {}, "this": {}, "will": {}, "your": {}, "from": {},
	"they": {}, "been": {}, "were": {}, "what": {}, "when": {}, "just": {},
	"than": {}, "them": {}, "then": {}, "into": {}, "also": {}, "very": {},
	"there": {}, "their": {}, "about": {}, "would": {}, "could": {},
}

// Fingerprint 是内容的指纹：精确去重用的哈希与相似度比较用的 token 集。
type Fingerprint struct {
	Hash   uint32
	Tokens []string
}

// Empty 表示内容与 ID 都为空，无法参与聚类。
func (f Fingerprint) Empty() bool {
	return f.Hash == 0 && len(f.Tokens) == 0
}

// New 计算指纹。内容为空时以 id 作为归一化输入，两者都为空返回零值。
func New(id, text string) Fingerprint {
	norm := Normalize(text)
	if norm == "" {
		norm = Normalize(id)
	}
	if norm == "" {
		return Fingerprint{}
	}
	return Fingerprint{Hash: Hash(norm), Tokens: Tokens(norm)}
}

// Normalize 转小写、去掉 http(s) 链接、把空白与控制字符连续段折叠为单个空格并去除首尾空白。
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, field := range strings.FieldsFunc(strings.ToLower(s), isSpace) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(field)
	}
	return b.String()
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

// Tokens 按首次出现顺序提取去重后的字母数字 token，去掉首尾标点与停用词。
func Tokens(normalized string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, field := range strings.Fields(normalized) {
		tok := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if !alnum(tok) || len([]rune(tok)) < MinTokenLen {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == MaxTokens {
			break
		}
	}
	return out
}

func alnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Hash 是 djb2 哈希。
func Hash(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

// Similarity 返回两个 token 集的 Jaccard 相似度。
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
