package core

import "sort"

// RankByScore returns the collection sorted score-descending for
// presentation. Placeholders at -1 sort last. The sort is stable so that
// repeated re-renders of the same evolving collection never jitter on
// ties; ties keep their fetch order.
func RankByScore(messages []ScoredMessage) []ScoredMessage {
	ranked := make([]ScoredMessage, len(messages))
	copy(ranked, messages)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Score > ranked[j].Result.Score
	})
	return ranked
}
