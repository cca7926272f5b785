package catalog

// Level is a module's difficulty tier.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// AllLevels returns the levels in display order.
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// LessonType describes how a lesson is delivered.
type LessonType string

const (
	LessonTheory     LessonType = "theory"
	LessonTutorial   LessonType = "tutorial"
	LessonLab        LessonType = "lab"
	LessonAssessment LessonType = "assessment"
)

// SectionType describes how a section's content is rendered.
type SectionType string

const (
	SectionText    SectionType = "text"
	SectionCode    SectionType = "code"
	SectionImage   SectionType = "image"
	SectionCallout SectionType = "callout"
	SectionVideo   SectionType = "video"
)

// Module is the top-level content grouping.
type Module struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Order         int      `json:"order"`
	Level         Level    `json:"level"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	Lessons       []Lesson `json:"lessons"`
}

// Lesson is an ordered unit of content inside a module.
type Lesson struct {
	ID               string     `json:"id"`
	ModuleID         string     `json:"moduleId"`
	Title            string     `json:"title"`
	Order            int        `json:"order"`
	Type             LessonType `json:"type"`
	Sections         []Section  `json:"sections,omitempty"`
	Lab              *Lab       `json:"lab,omitempty"`
	Quiz             *Quiz      `json:"quiz,omitempty"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
}

// Section is one block of lesson content.
type Section struct {
	ID      string      `json:"id"`
	Title   string      `json:"title,omitempty"`
	Order   int         `json:"order"`
	Type    SectionType `json:"type"`
	Content string      `json:"content"`
}

// Lab is an interactive exercise whose input is sent to the model.
type Lab struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Instructions     string             `json:"instructions"`
	StarterInput     string             `json:"starterInput,omitempty"`
	SystemPrompt     string             `json:"systemPrompt"`
	Parameters       map[string]float64 `json:"parameters,omitempty"`
	Hints            []string           `json:"hints,omitempty"`
	ExpectedOutcomes []string           `json:"expectedOutcomes,omitempty"`
}

// Quiz is a scored set of questions with a passing threshold (0-100).
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	PassingScore int        `json:"passingScore"`
	Questions    []Question `json:"questions"`
}

// Question is a single-answer multiple choice question.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
}

// Option is one answer choice.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}
