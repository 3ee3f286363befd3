package retrieval

// SelectDiverseItems picks up to maxItems so that every provider present in
// scored gets its best item in first, then fills the remaining slots by score
// while no provider exceeds maxPerProvider. maxPerProvider <= 0 means no cap.
// The result is ordered by descending score.
func SelectDiverseItems(scored []ScoredItem, maxItems, maxPerProvider int) []ScoredItem {
	if maxItems <= 0 || len(scored) == 0 {
		return nil
	}

	ranked := make([]ScoredItem, len(scored))
	copy(ranked, scored)
	sortByScore(ranked)

	selected := make([]ScoredItem, 0, min(maxItems, len(ranked)))
	perProvider := make(map[string]int)
	taken := make([]bool, len(ranked))

	take := func(i int) {
		taken[i] = true
		perProvider[ranked[i].Item.Provider]++
		selected = append(selected, ranked[i])
	}

	for i, c := range ranked {
		if len(selected) >= maxItems {
			break
		}
		if perProvider[c.Item.Provider] == 0 {
			take(i)
		}
	}

	for i, c := range ranked {
		if len(selected) >= maxItems {
			break
		}
		if taken[i] {
			continue
		}
		if maxPerProvider > 0 && perProvider[c.Item.Provider] >= maxPerProvider {
			continue
		}
		take(i)
	}

	sortByScore(selected)
	return selected
}
