package progress

import (
	"time"

	"github.com/abhisek/genlearn/internal/achievements"
)

// Theme is the learner's display preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// UserProgress is one learner's complete progress record. It is read and
// written as a whole.
type UserProgress struct {
	UserID       string                     `json:"userId"`
	CreatedAt    time.Time                  `json:"createdAt"`
	LastActivity time.Time                  `json:"lastActivity"`
	Modules      map[string]*ModuleProgress `json:"modules"`
	Achievements []achievements.Achievement `json:"achievements"`
	Settings     Settings                   `json:"settings"`
}

// ModuleProgress tracks one module.
type ModuleProgress struct {
	ModuleID    string                     `json:"moduleId"`
	Started     bool                       `json:"started"`
	Completed   bool                       `json:"completed"`
	StartedAt   *time.Time                 `json:"startedAt,omitempty"`
	CompletedAt *time.Time                 `json:"completedAt,omitempty"`
	Lessons     map[string]*LessonProgress `json:"lessons"`
}

// LessonProgress tracks one lesson.
type LessonProgress struct {
	LessonID    string        `json:"lessonId"`
	Started     bool          `json:"started"`
	Completed   bool          `json:"completed"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Lab         *LabProgress  `json:"lab,omitempty"`
	Quiz        *QuizProgress `json:"quiz,omitempty"`
}

// LabProgress tracks one lab.
type LabProgress struct {
	LabID          string     `json:"labId"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	AttemptsCount  int        `json:"attemptsCount"`
	LastSubmission string     `json:"lastSubmission,omitempty"`
	LastAttemptAt  *time.Time `json:"lastAttemptAt,omitempty"`
}

// QuizProgress tracks one quiz. BestScore never decreases and IsPassed
// never reverts.
type QuizProgress struct {
	QuizID        string     `json:"quizId"`
	BestScore     int        `json:"bestScore"`
	IsPassed      bool       `json:"isPassed"`
	AttemptsCount int        `json:"attemptsCount"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	PassedAt      *time.Time `json:"passedAt,omitempty"`
}

// Settings are learner preferences stored with the record.
type Settings struct {
	DisplayName string `json:"displayName,omitempty"`
	Theme       Theme  `json:"theme"`
}

// newUserProgress returns an empty record.
func newUserProgress(userID string, now time.Time) *UserProgress {
	return &UserProgress{
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		Modules:      make(map[string]*ModuleProgress),
		Achievements: []achievements.Achievement{},
		Settings:     Settings{Theme: ThemeSystem},
	}
}

// Module returns the module entry, or nil.
func (p *UserProgress) Module(moduleID string) *ModuleProgress {
	return p.Modules[moduleID]
}

// Lesson returns the lesson entry, or nil.
func (p *UserProgress) Lesson(moduleID, lessonID string) *LessonProgress {
	m := p.Modules[moduleID]
	if m == nil {
		return nil
	}
	return m.Lessons[lessonID]
}

// CompletedLessons counts completed lessons across all modules.
func (p *UserProgress) CompletedLessons() int {
	n := 0
	for _, m := range p.Modules {
		for _, l := range m.Lessons {
			if l.Completed {
				n++
			}
		}
	}
	return n
}

// HasAchievement reports whether id has been awarded.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// normalize fills maps that a decoded record may lack.
func (p *UserProgress) normalize() {
	if p.Modules == nil {
		p.Modules = make(map[string]*ModuleProgress)
	}
	for id, m := range p.Modules {
		if m == nil {
			delete(p.Modules, id)
			continue
		}
		if m.Lessons == nil {
			m.Lessons = make(map[string]*LessonProgress)
		}
		for lid, l := range m.Lessons {
			if l == nil {
				delete(m.Lessons, lid)
			}
		}
	}
	if p.Achievements == nil {
		p.Achievements = []achievements.Achievement{}
	}
	if !p.Settings.Theme.Valid() {
		p.Settings.Theme = ThemeSystem
	}
}
