package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scoredMessage(id string, score int) ScoredMessage {
	return ScoredMessage{
		Detail: newTestDetail(id, id+"@test.com", "subject "+id),
		Result: AnalysisResult{ID: id, Score: score},
	}
}

func rankedIDs(messages []ScoredMessage) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.Result.ID)
	}
	return ids
}

func TestRankByScore(t *testing.T) {
	tests := []struct {
		name     string
		input    []ScoredMessage
		expected []string
	}{
		{
			name:     "empty collection",
			input:    []ScoredMessage{},
			expected: []string{},
		},
		{
			name: "descending by score",
			input: []ScoredMessage{
				scoredMessage("low", 10),
				scoredMessage("high", 90),
				scoredMessage("mid", 50),
			},
			expected: []string{"high", "mid", "low"},
		},
		{
			name: "ties keep fetch order",
			input: []ScoredMessage{
				scoredMessage("first", 50),
				scoredMessage("top", 70),
				scoredMessage("second", 50),
				scoredMessage("third", 50),
			},
			expected: []string{"top", "first", "second", "third"},
		},
		{
			name: "placeholders sort after failures",
			input: []ScoredMessage{
				scoredMessage("pending", PendingScore),
				scoredMessage("failed", 0),
				scoredMessage("scored", 40),
			},
			expected: []string{"scored", "failed", "pending"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rankedIDs(RankByScore(tt.input)))
		})
	}
}

func TestRankByScoreDoesNotMutateInput(t *testing.T) {
	input := []ScoredMessage{
		scoredMessage("a", 10),
		scoredMessage("b", 90),
	}

	_ = RankByScore(input)

	assert.Equal(t, "a", input[0].Result.ID, "the scan-owned collection stays in fetch order")
	assert.Equal(t, "b", input[1].Result.ID)
}

func TestRankByScoreStableAcrossRepeatedSorts(t *testing.T) {
	collection := []ScoredMessage{
		scoredMessage("a", 60),
		scoredMessage("b", 60),
		scoredMessage("c", 60),
	}

	first := rankedIDs(RankByScore(collection))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rankedIDs(RankByScore(collection)))
	}
}
