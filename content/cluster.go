package content

// Clusters 是一次排序调用内的聚类结果：IDs[i] 为第 i 个候选的簇编号，Sizes 为每个簇的成员数。
type Clusters struct {
	IDs   []int
	Sizes map[int]int
}

// Size 返回第 i 个候选所在簇的大小。
func (c Clusters) Size(i int) int {
	if i < 0 || i >= len(c.IDs) {
		return 1
	}
	return c.Sizes[c.IDs[i]]
}

// Cluster 按输入顺序做单链贪心聚类：未聚类的条目开一个新簇，
// 之后未聚类的条目在哈希相等或 Jaccard 相似度超过 SimilarityThreshold 时加入。
// 空指纹总是单独成簇。
func Cluster(fps []Fingerprint) Clusters {
	out := Clusters{IDs: make([]int, len(fps)), Sizes: make(map[int]int)}
	for i := range out.IDs {
		out.IDs[i] = -1
	}
	next := 0
	for i, fp := range fps {
		if out.IDs[i] >= 0 {
			continue
		}
		id := next
		next++
		out.IDs[i] = id
		out.Sizes[id] = 1
		if fp.Empty() {
			continue
		}
		for j := i + 1; j < len(fps); j++ {
			if out.IDs[j] >= 0 || fps[j].Empty() {
				continue
			}
			if fps[j].Hash == fp.Hash || Similarity(fp.Tokens, fps[j].Tokens) > SimilarityThreshold {
				out.IDs[j] = id
				out.Sizes[id]++
			}
		}
	}
	return out
}
