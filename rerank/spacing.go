package rerank

// SpaceDuplicates 重建可见窗口，使相同的非空 ID 尽量不相邻：
// 每步优先取当前顺序中最早的、与上一条 ID 不同的候选；
// 当某个 ID 的剩余数量已到上限时必须先放它，否则后面无法错开。
func SpaceDuplicates(s *Slate) []int {
	n := len(s.Entries)
	w := s.Visible()
	remaining := identity(w)
	order := make([]int, 0, n)
	last := ""

	for len(remaining) > 0 {
		counts := make(map[string]int, len(remaining))
		for _, i := range remaining {
			if id := s.Entries[i].Item.ID; id != "" {
				counts[id]++
			}
		}
		forced, most := "", 0
		for _, i := range remaining {
			id := s.Entries[i].Item.ID
			if id != "" && counts[id] > most {
				forced, most = id, counts[id]
			}
		}
		if 2*most-1 < len(remaining) || forced == last {
			forced = ""
		}

		k := 0
		for j, i := range remaining {
			id := s.Entries[i].Item.ID
			if forced != "" {
				if id == forced {
					k = j
					break
				}
				continue
			}
			if id == "" || id != last {
				k = j
				break
			}
		}

		i := remaining[k]
		order = append(order, i)
		last = s.Entries[i].Item.ID
		remaining = append(remaining[:k], remaining[k+1:]...)
	}

	for i := w; i < n; i++ {
		order = append(order, i)
	}
	return order
}
