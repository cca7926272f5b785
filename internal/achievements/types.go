package achievements

import (
	"strings"
	"time"
)

// Kind identifies the category of achievement.
type Kind string

const (
	KindFirstLesson    Kind = "first-lesson"
	KindModuleComplete Kind = "module-complete"
	KindQuizAce        Kind = "quiz-ace"
	KindFirstLab       Kind = "first-lab"
	KindPromptTinkerer Kind = "prompt-tinkerer"
)

// AllKinds returns all achievement kinds in display order.
func AllKinds() []Kind {
	return []Kind{KindFirstLesson, KindFirstLab, KindPromptTinkerer, KindQuizAce, KindModuleComplete}
}

// DisplayName returns a human-readable label for the kind.
func (k Kind) DisplayName() string {
	switch k {
	case KindFirstLesson:
		return "First Steps"
	case KindModuleComplete:
		return "Module Complete"
	case KindQuizAce:
		return "Quiz Ace"
	case KindFirstLab:
		return "Lab Rat"
	case KindPromptTinkerer:
		return "Prompt Tinkerer"
	default:
		return string(k)
	}
}

// Icon returns the display icon for the kind.
func (k Kind) Icon() string {
	switch k {
	case KindFirstLesson:
		return "🌱"
	case KindModuleComplete:
		return "🏆"
	case KindQuizAce:
		return "💯"
	case KindFirstLab:
		return "🧪"
	case KindPromptTinkerer:
		return "🛠️"
	default:
		return "✦"
	}
}

// Achievement is an award stored on a learner's progress record.
// IDs are the kind, optionally followed by ":" and a subject id.
type Achievement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AwardedAt time.Time `json:"awardedAt"`
}

// Kind returns the achievement's kind.
func (a Achievement) Kind() Kind {
	kind, _, _ := strings.Cut(a.ID, ":")
	return Kind(kind)
}
