package catalog

// QuestionResult reports how one question was answered.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	Answer        string `json:"answer,omitempty"`
	CorrectOption string `json:"correctOption"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Grade is the outcome of scoring a quiz submission.
type Grade struct {
	Score   int              `json:"score"`
	Passed  bool             `json:"passed"`
	Results []QuestionResult `json:"results"`
}

// Score grades answers (question id -> option id) and returns the
// percentage of points earned, rounded down, and whether it meets the
// passing score. Unanswered questions earn nothing.
func (q Quiz) Score(answers map[string]string) (score int, passed bool) {
	g := q.Grade(answers)
	return g.Score, g.Passed
}

// Grade is Score with per-question feedback.
func (q Quiz) Grade(answers map[string]string) Grade {
	var earned, total int
	results := make([]QuestionResult, 0, len(q.Questions))

	for _, question := range q.Questions {
		points := question.Points
		if points <= 0 {
			points = 1
		}
		total += points

		res := QuestionResult{
			QuestionID:  question.ID,
			Answer:      answers[question.ID],
			Explanation: question.Explanation,
		}
		for _, opt := range question.Options {
			if opt.Correct {
				res.CorrectOption = opt.ID
				break
			}
		}
		if res.Answer != "" && res.Answer == res.CorrectOption {
			res.Correct = true
			earned += points
		}
		results = append(results, res)
	}

	var score int
	if total > 0 {
		score = earned * 100 / total
	}
	return Grade{
		Score:   score,
		Passed:  score >= q.PassingScore,
		Results: results,
	}
}
