package achievements

import (
	"fmt"
	"time"
)

// TinkererAttempts is the number of lab attempts that earns KindPromptTinkerer.
const TinkererAttempts = 5

// CompletedModule names a module whose lessons are all completed.
type CompletedModule struct {
	ID    string
	Title string
}

// Snapshot is the slice of a progress record the rules look at.
type Snapshot struct {
	CompletedLessons int
	CompletedLabs    int
	LabAttempts      int
	PerfectQuizzes   int
	CompletedModules []CompletedModule
}

// Evaluate returns the achievements earned by s that are not already in
// earned. Each ID is awarded at most once.
func Evaluate(s Snapshot, earned []Achievement, now time.Time) []Achievement {
	have := make(map[string]bool, len(earned))
	for _, a := range earned {
		have[a.ID] = true
	}

	var out []Achievement
	award := func(id, title string) {
		if have[id] {
			return
		}
		have[id] = true
		out = append(out, Achievement{ID: id, Title: title, AwardedAt: now})
	}

	if s.CompletedLessons >= 1 {
		award(string(KindFirstLesson), "Completed your first lesson")
	}
	if s.CompletedLabs >= 1 {
		award(string(KindFirstLab), "Completed your first lab")
	}
	if s.LabAttempts >= TinkererAttempts {
		award(string(KindPromptTinkerer), fmt.Sprintf("Sent %d lab prompts", TinkererAttempts))
	}
	if s.PerfectQuizzes >= 1 {
		award(string(KindQuizAce), "Scored 100% on a quiz")
	}
	for _, m := range s.CompletedModules {
		title := m.Title
		if title == "" {
			title = m.ID
		}
		award(string(KindModuleComplete)+":"+m.ID, "Completed "+title)
	}
	return out
}
