package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleQuiz() Quiz {
	return Quiz{
		ID:           "q",
		PassingScore: 70,
		Questions: []Question{
			{ID: "q1", Points: 1, Options: []Option{{ID: "a", Correct: true}, {ID: "b"}}},
			{ID: "q2", Points: 1, Options: []Option{{ID: "a"}, {ID: "b", Correct: true}}},
			{ID: "q3", Points: 2, Options: []Option{{ID: "a"}, {ID: "c", Correct: true}}, Explanation: "why"},
		},
	}
}

func TestQuizScore(t *testing.T) {
	tests := []struct {
		name       string
		answers    map[string]string
		wantScore  int
		wantPassed bool
	}{
		{"all correct", map[string]string{"q1": "a", "q2": "b", "q3": "c"}, 100, true},
		{"weighted miss", map[string]string{"q1": "a", "q2": "b", "q3": "a"}, 50, false},
		{"partial credit", map[string]string{"q1": "a", "q3": "c"}, 75, true},
		{"one of four points", map[string]string{"q2": "b"}, 25, false},
		{"nothing answered", nil, 0, false},
		{"unknown question ignored", map[string]string{"q9": "a"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, passed := sampleQuiz().Score(tt.answers)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantPassed, passed)
		})
	}
}

func TestQuizScoreRoundsDown(t *testing.T) {
	q := Quiz{PassingScore: 67, Questions: []Question{
		{ID: "1", Points: 1, Options: []Option{{ID: "a", Correct: true}}},
		{ID: "2", Points: 1, Options: []Option{{ID: "a", Correct: true}}},
		{ID: "3", Points: 1, Options: []Option{{ID: "a", Correct: true}}},
	}}
	score, passed := q.Score(map[string]string{"1": "a", "2": "a"})
	assert.Equal(t, 66, score)
	assert.False(t, passed)
}

func TestQuizGradeFeedback(t *testing.T) {
	g := sampleQuiz().Grade(map[string]string{"q3": "a"})
	assert.Len(t, g.Results, 3)
	assert.Equal(t, "c", g.Results[2].CorrectOption)
	assert.False(t, g.Results[2].Correct)
	assert.Equal(t, "why", g.Results[2].Explanation)
}

func TestQuizWithoutQuestions(t *testing.T) {
	score, passed := Quiz{PassingScore: 0}.Score(nil)
	assert.Equal(t, 0, score)
	assert.True(t, passed)
}
