package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// Catalog is the read-only content tree. It is safe for concurrent use;
// nothing mutates after construction and accessors return copies.
type Catalog struct {
	version string
	modules []Module
	byID    map[string]int
	labs    map[string]lessonRef
	quizzes map[string]lessonRef
	total   int
}

type lessonRef struct {
	module int
	lesson int
}

// New builds a catalog from module values. Modules and their lessons are
// ordered by Order; sections likewise.
func New(modules []Module) (*Catalog, error) {
	return build("", modules)
}

func build(version string, modules []Module) (*Catalog, error) {
	if err := validateModules(modules); err != nil {
		return nil, err
	}

	c := &Catalog{
		version: version,
		modules: cloneModules(modules),
		byID:    make(map[string]int, len(modules)),
		labs:    make(map[string]lessonRef),
		quizzes: make(map[string]lessonRef),
	}

	sort.SliceStable(c.modules, func(i, j int) bool {
		return c.modules[i].Order < c.modules[j].Order
	})
	for mi := range c.modules {
		m := &c.modules[mi]
		sort.SliceStable(m.Lessons, func(i, j int) bool {
			return m.Lessons[i].Order < m.Lessons[j].Order
		})
		c.byID[m.ID] = mi
		for li := range m.Lessons {
			l := &m.Lessons[li]
			sort.SliceStable(l.Sections, func(i, j int) bool {
				return l.Sections[i].Order < l.Sections[j].Order
			})
			if l.Lab != nil {
				c.labs[l.Lab.ID] = lessonRef{mi, li}
			}
			if l.Quiz != nil {
				c.quizzes[l.Quiz.ID] = lessonRef{mi, li}
			}
			c.total++
		}
	}
	return c, nil
}

// validateModules performs the structural checks on a module set.
// Returns a combined error describing all problems found, or nil if valid.
func validateModules(modules []Module) error {
	var errs []string

	ids := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m.ID == "" {
			errs = append(errs, "module with empty id")
			continue
		}
		if ids[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module id: %q", m.ID))
		}
		ids[m.ID] = true
	}

	labIDs := make(map[string]bool)
	quizIDs := make(map[string]bool)
	for _, m := range modules {
		if !m.Level.Valid() {
			errs = append(errs, fmt.Sprintf("module %q has unknown level %q", m.ID, m.Level))
		}
		for _, p := range m.Prerequisites {
			if !ids[p] {
				errs = append(errs, fmt.Sprintf("module %q references nonexistent prerequisite %q", m.ID, p))
			}
		}

		lessonIDs := make(map[string]bool, len(m.Lessons))
		for _, l := range m.Lessons {
			if lessonIDs[l.ID] {
				errs = append(errs, fmt.Sprintf("module %q has duplicate lesson id %q", m.ID, l.ID))
			}
			lessonIDs[l.ID] = true
			if l.ModuleID != m.ID {
				errs = append(errs, fmt.Sprintf("lesson %q declares module %q but belongs to %q", l.ID, l.ModuleID, m.ID))
			}
			if l.Lab != nil {
				if labIDs[l.Lab.ID] {
					errs = append(errs, fmt.Sprintf("duplicate lab id: %q", l.Lab.ID))
				}
				labIDs[l.Lab.ID] = true
			}
			if l.Quiz != nil {
				if quizIDs[l.Quiz.ID] {
					errs = append(errs, fmt.Sprintf("duplicate quiz id: %q", l.Quiz.ID))
				}
				quizIDs[l.Quiz.ID] = true
			}
		}
	}

	if len(errs) > 0 {
		return errors.New("invalid catalog:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

// Version returns the catalog manifest version, or "" for catalogs built with New.
func (c *Catalog) Version() string {
	return c.version
}

// ListModules returns all modules ordered by Order ascending.
func (c *Catalog) ListModules() []Module {
	return cloneModules(c.modules)
}

// GetModule returns the module with the given id.
func (c *Catalog) GetModule(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, false
	}
	return cloneModule(c.modules[i]), true
}

// GetLesson returns a lesson by module and lesson id.
func (c *Catalog) GetLesson(moduleID, lessonID string) (Lesson, bool) {
	i, ok := c.byID[moduleID]
	if !ok {
		return Lesson{}, false
	}
	for _, l := range c.modules[i].Lessons {
		if l.ID == lessonID {
			return cloneLesson(l), true
		}
	}
	return Lesson{}, false
}

// ListModulesByLevel returns the modules of one level, ordered.
func (c *Catalog) ListModulesByLevel(level Level) []Module {
	var out []Module
	for _, m := range c.modules {
		if m.Level == level {
			out = append(out, cloneModule(m))
		}
	}
	return out
}

// NextModule returns the module with the lowest Order strictly greater
// than the current module's.
func (c *Catalog) NextModule(currentID string) (Module, bool) {
	i, ok := c.byID[currentID]
	if !ok {
		return Module{}, false
	}
	cur := c.modules[i].Order
	for _, m := range c.modules {
		if m.Order > cur {
			return cloneModule(m), true
		}
	}
	return Module{}, false
}

// NextLesson returns the lesson of moduleID with the lowest Order strictly
// greater than the current lesson's.
func (c *Catalog) NextLesson(moduleID, currentLessonID string) (Lesson, bool) {
	i, ok := c.byID[moduleID]
	if !ok {
		return Lesson{}, false
	}
	lessons := c.modules[i].Lessons
	idx := slices.IndexFunc(lessons, func(l Lesson) bool { return l.ID == currentLessonID })
	if idx < 0 {
		return Lesson{}, false
	}
	cur := lessons[idx].Order
	for _, l := range lessons {
		if l.Order > cur {
			return cloneLesson(l), true
		}
	}
	return Lesson{}, false
}

// TotalLessons returns the number of lessons across all modules.
func (c *Catalog) TotalLessons() int {
	return c.total
}

// HasLesson reports whether the lesson exists without copying it.
func (c *Catalog) HasLesson(moduleID, lessonID string) bool {
	i, ok := c.byID[moduleID]
	if !ok {
		return false
	}
	return slices.ContainsFunc(c.modules[i].Lessons, func(l Lesson) bool { return l.ID == lessonID })
}

// LessonIDs returns the lesson ids of a module in order.
func (c *Catalog) LessonIDs(moduleID string) []string {
	i, ok := c.byID[moduleID]
	if !ok {
		return nil
	}
	ids := make([]string, len(c.modules[i].Lessons))
	for j, l := range c.modules[i].Lessons {
		ids[j] = l.ID
	}
	return ids
}

// FindLab locates the module and lesson carrying a lab.
func (c *Catalog) FindLab(labID string) (Module, Lesson, bool) {
	ref, ok := c.labs[labID]
	if !ok {
		return Module{}, Lesson{}, false
	}
	m := c.modules[ref.module]
	return cloneModule(m), cloneLesson(m.Lessons[ref.lesson]), true
}

// FindQuiz locates the module and lesson carrying a quiz.
func (c *Catalog) FindQuiz(quizID string) (Module, Lesson, bool) {
	ref, ok := c.quizzes[quizID]
	if !ok {
		return Module{}, Lesson{}, false
	}
	m := c.modules[ref.module]
	return cloneModule(m), cloneLesson(m.Lessons[ref.lesson]), true
}

func cloneModules(in []Module) []Module {
	out := make([]Module, len(in))
	for i, m := range in {
		out[i] = cloneModule(m)
	}
	return out
}

func cloneModule(m Module) Module {
	m.Prerequisites = slices.Clone(m.Prerequisites)
	lessons := make([]Lesson, len(m.Lessons))
	for i, l := range m.Lessons {
		lessons[i] = cloneLesson(l)
	}
	m.Lessons = lessons
	return m
}

func cloneLesson(l Lesson) Lesson {
	l.Sections = slices.Clone(l.Sections)
	if l.Lab != nil {
		lab := *l.Lab
		lab.Hints = slices.Clone(lab.Hints)
		lab.ExpectedOutcomes = slices.Clone(lab.ExpectedOutcomes)
		lab.Parameters = maps.Clone(lab.Parameters)
		l.Lab = &lab
	}
	if l.Quiz != nil {
		quiz := *l.Quiz
		questions := make([]Question, len(quiz.Questions))
		for i, q := range quiz.Questions {
			q.Options = slices.Clone(q.Options)
			questions[i] = q
		}
		quiz.Questions = questions
		l.Quiz = &quiz
	}
	return l
}
