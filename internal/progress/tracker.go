package progress

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/genlearn/internal/achievements"
	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/cache"
	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/logger"
)

// DefaultStorageKey prefixes local record keys. Device ids are appended to it.
const DefaultStorageKey = "genlearn.progress"

// Options configures a Tracker. Zero values get in-process defaults.
type Options struct {
	Local      LocalStore
	Durable    DurableStore
	Cache      cache.Cache
	Catalog    *catalog.Catalog
	Logger     *logger.Logger
	StorageKey string
	Now        func() time.Time
}

// Tracker reads, mutates and persists learner progress. Anonymous
// identities go to the local store; authenticated ones to the durable
// store. Storage failures are logged and never returned.
type Tracker struct {
	local      LocalStore
	durable    DurableStore
	cache      cache.Cache
	catalog    *catalog.Catalog
	log        *logger.Logger
	storageKey string
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	sync.Mutex
	refs int
}

// NewTracker creates a Tracker.
func NewTracker(opts Options) *Tracker {
	t := &Tracker{
		local:      opts.Local,
		durable:    opts.Durable,
		cache:      opts.Cache,
		catalog:    opts.Catalog,
		log:        opts.Logger,
		storageKey: opts.StorageKey,
		now:        opts.Now,
		locks:      make(map[string]*identityLock),
	}
	if t.local == nil {
		t.local = newMemoryLocal()
	}
	if t.durable == nil {
		t.durable = NewMemoryStore()
	}
	if t.cache == nil {
		t.cache = cache.NewMemory(30 * time.Minute)
	}
	if t.log == nil {
		t.log = logger.Nop()
	}
	if t.storageKey == "" {
		t.storageKey = DefaultStorageKey
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.log = t.log.With("component", "progress")
	return t
}

// LocalKey returns the storage key for an anonymous identity.
func (t *Tracker) LocalKey(id auth.Identity) string {
	return t.storageKey + ":" + id.DeviceID
}

// lock serializes operations on one identity. Entries are dropped once no
// caller holds or waits on them.
func (t *Tracker) lock(id auth.Identity) func() {
	key := id.Key()

	t.mu.Lock()
	l := t.locks[key]
	if l == nil {
		l = &identityLock{}
		t.locks[key] = l
	}
	l.refs++
	t.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}

func (t *Tracker) lockCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

func cacheKey(id auth.Identity) string {
	return "progress:" + id.Key()
}

func recordUserID(id auth.Identity) string {
	if id.Authenticated {
		return id.UserID
	}
	return "anonymous:" + id.DeviceID
}

// GetProgress returns the learner's record, creating and persisting an
// empty one on first access. Device ids generated for the request are not
// persisted until their first mutation.
func (t *Tracker) GetProgress(ctx context.Context, id auth.Identity) *UserProgress {
	unlock := t.lock(id)
	defer unlock()
	return t.load(ctx, id)
}

// SaveProgress overwrites the learner's record and stamps LastActivity.
func (t *Tracker) SaveProgress(ctx context.Context, id auth.Identity, p *UserProgress) *UserProgress {
	unlock := t.lock(id)
	defer unlock()
	if p == nil {
		p = newUserProgress(recordUserID(id), t.now())
	}
	p.normalize()
	t.save(ctx, id, p)
	return p
}

// MarkLessonStarted records that a lesson was opened.
func (t *Tracker) MarkLessonStarted(ctx context.Context, id auth.Identity, moduleID, lessonID string) *UserProgress {
	return t.mutate(ctx, id, func(p *UserProgress, now time.Time) {
		ensureLesson(p, moduleID, lessonID, now)
	})
}

// MarkLessonCompleted records a lesson completion.
func (t *Tracker) MarkLessonCompleted(ctx context.Context, id auth.Identity, moduleID, lessonID string) *UserProgress {
	return t.mutate(ctx, id, func(p *UserProgress, now time.Time) {
		t.completeLesson(p, moduleID, lessonID, now)
	})
}

// MarkLabCompleted records a lab completion. The enclosing lesson is
// completed with it.
func (t *Tracker) MarkLabCompleted(ctx context.Context, id auth.Identity, moduleID, lessonID, labID string) *UserProgress {
	return t.mutate(ctx, id, func(p *UserProgress, now time.Time) {
		_, lp := ensureLesson(p, moduleID, lessonID, now)
		lab := ensureLab(lp, labID)
		if !lab.Completed {
			lab.Completed = true
			lab.CompletedAt = stamp(now)
		}
		t.completeLesson(p, moduleID, lessonID, now)
	})
}

// RecordLabAttempt counts a lab submission and keeps its text.
func (t *Tracker) RecordLabAttempt(ctx context.Context, id auth.Identity, moduleID, lessonID, labID, submission string) *UserProgress {
	return t.mutate(ctx, id, func(p *UserProgress, now time.Time) {
		_, lp := ensureLesson(p, moduleID, lessonID, now)
		lab := ensureLab(lp, labID)
		lab.AttemptsCount++
		lab.LastSubmission = submission
		lab.LastAttemptAt = stamp(now)
	})
}

// SaveQuizResult records a quiz attempt. The best score is kept and a pass
// is permanent; the lesson completes once the quiz has been passed.
func (t *Tracker) SaveQuizResult(ctx context.Context, id auth.Identity, moduleID, lessonID, quizID string, score int, passed bool) *UserProgress {
	score = min(max(score, 0), 100)
	return t.mutate(ctx, id, func(p *UserProgress, now time.Time) {
		_, lp := ensureLesson(p, moduleID, lessonID, now)
		if lp.Quiz == nil {
			lp.Quiz = &QuizProgress{QuizID: quizID}
		}
		q := lp.Quiz
		q.AttemptsCount++
		q.LastAttemptAt = stamp(now)
		if score > q.BestScore {
			q.BestScore = score
		}
		if passed && !q.IsPassed {
			q.IsPassed = true
			q.PassedAt = stamp(now)
		}
		if q.IsPassed {
			t.completeLesson(p, moduleID, lessonID, now)
		}
	})
}

// UpdateSettings replaces the learner's settings. Unknown themes fall back
// to the system theme.
func (t *Tracker) UpdateSettings(ctx context.Context, id auth.Identity, s Settings) *UserProgress {
	if !s.Theme.Valid() {
		s.Theme = ThemeSystem
	}
	return t.mutate(ctx, id, func(p *UserProgress, _ time.Time) {
		p.Settings = s
	})
}

// OverallProgressPercentage returns completed lessons over catalog lessons,
// rounded down. A nil cat uses the tracker's catalog.
func (t *Tracker) OverallProgressPercentage(ctx context.Context, id auth.Identity, cat *catalog.Catalog) int {
	if cat == nil {
		cat = t.catalog
	}
	return OverallPercentage(t.GetProgress(ctx, id), cat)
}

// OverallPercentage computes the overall completion of p against cat.
// Only lessons present in cat count; an empty catalog yields 0.
func OverallPercentage(p *UserProgress, cat *catalog.Catalog) int {
	if p == nil || cat == nil {
		return 0
	}
	total := cat.TotalLessons()
	if total == 0 {
		return 0
	}
	done := 0
	for moduleID, m := range p.Modules {
		for lessonID, l := range m.Lessons {
			if l.Completed && cat.HasLesson(moduleID, lessonID) {
				done++
			}
		}
	}
	return done * 100 / total
}

// ModulePercentage computes completion of one module against cat.
func ModulePercentage(p *UserProgress, cat *catalog.Catalog, moduleID string) int {
	if p == nil || cat == nil {
		return 0
	}
	ids := cat.LessonIDs(moduleID)
	if len(ids) == 0 {
		return 0
	}
	done := 0
	for _, lessonID := range ids {
		if l := p.Lesson(moduleID, lessonID); l != nil && l.Completed {
			done++
		}
	}
	return done * 100 / len(ids)
}

// ResetProgress deletes the stored record and the cached copy.
func (t *Tracker) ResetProgress(ctx context.Context, id auth.Identity) {
	unlock := t.lock(id)
	defer unlock()

	t.cache.Delete(ctx, cacheKey(id))

	var err error
	if id.Authenticated {
		err = t.durable.Delete(ctx, id.UserID)
	} else {
		err = t.local.Delete(ctx, t.LocalKey(id))
	}
	if err != nil {
		t.log.Warn("progress reset failed", "identity", id.Key(), "error", err)
	}
}

func (t *Tracker) mutate(ctx context.Context, id auth.Identity, fn func(p *UserProgress, now time.Time)) *UserProgress {
	unlock := t.lock(id)
	defer unlock()

	p := t.load(ctx, id)
	now := t.now()
	fn(p, now)

	for _, a := range achievements.Evaluate(t.snapshot(p), p.Achievements, now) {
		p.Achievements = append(p.Achievements, a)
		t.log.Info("achievement awarded", "identity", id.Key(), "achievement", a.ID)
	}

	t.save(ctx, id, p)
	return p
}

func (t *Tracker) load(ctx context.Context, id auth.Identity) *UserProgress {
	key := cacheKey(id)
	if data, ok := t.cache.Get(ctx, key); ok {
		if p, err := decode(data); err == nil {
			return p
		}
		t.cache.Delete(ctx, key)
	}

	data, err := t.read(ctx, id)
	if err != nil {
		t.log.Warn("progress read failed", "identity", id.Key(), "error", err)
		return newUserProgress(recordUserID(id), t.now())
	}
	if data == nil {
		p := newUserProgress(recordUserID(id), t.now())
		if !id.Generated {
			t.save(ctx, id, p)
		}
		return p
	}

	p, err := decode(data)
	if err != nil {
		t.log.Warn("progress record unreadable", "identity", id.Key(), "error", err)
		return newUserProgress(recordUserID(id), t.now())
	}
	t.cache.Set(ctx, key, data)
	return p
}

func (t *Tracker) read(ctx context.Context, id auth.Identity) ([]byte, error) {
	if id.Authenticated {
		row, err := t.durable.Get(ctx, id.UserID)
		if err != nil || row == nil {
			return nil, err
		}
		return row.Progress, nil
	}
	return t.local.Get(ctx, t.LocalKey(id))
}

// save persists p. The cache always receives the new record so the
// session sees its own writes even when the store is unavailable.
func (t *Tracker) save(ctx context.Context, id auth.Identity, p *UserProgress) {
	p.LastActivity = t.now()

	data, err := json.Marshal(p)
	if err != nil {
		t.log.Error("progress encode failed", "identity", id.Key(), "error", err)
		return
	}
	t.cache.Set(ctx, cacheKey(id), data)

	if id.Authenticated {
		name := p.Settings.DisplayName
		if name == "" {
			name = id.DisplayName
		}
		err = t.durable.Upsert(ctx, Row{
			UserID:       id.UserID,
			Email:        id.Email,
			DisplayName:  name,
			Progress:     data,
			LastActivity: p.LastActivity,
			CreatedAt:    p.CreatedAt,
		})
	} else {
		err = t.local.Put(ctx, t.LocalKey(id), data)
	}
	if err != nil {
		t.log.Warn("progress write failed", "identity", id.Key(), "error", err)
	}
}

func (t *Tracker) completeLesson(p *UserProgress, moduleID, lessonID string, now time.Time) {
	mp, lp := ensureLesson(p, moduleID, lessonID, now)
	if !lp.Completed {
		lp.Completed = true
		lp.CompletedAt = stamp(now)
	}
	if mp.Completed || t.catalog == nil {
		return
	}
	ids := t.catalog.LessonIDs(moduleID)
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if l := mp.Lessons[id]; l == nil || !l.Completed {
			return
		}
	}
	mp.Completed = true
	mp.CompletedAt = stamp(now)
}

func (t *Tracker) snapshot(p *UserProgress) achievements.Snapshot {
	var s achievements.Snapshot
	for moduleID, m := range p.Modules {
		if m.Completed {
			cm := achievements.CompletedModule{ID: moduleID}
			if t.catalog != nil {
				if mod, ok := t.catalog.GetModule(moduleID); ok {
					cm.Title = mod.Title
				}
			}
			s.CompletedModules = append(s.CompletedModules, cm)
		}
		for _, l := range m.Lessons {
			if l.Completed {
				s.CompletedLessons++
			}
			if l.Lab != nil {
				s.LabAttempts += l.Lab.AttemptsCount
				if l.Lab.Completed {
					s.CompletedLabs++
				}
			}
			if l.Quiz != nil && l.Quiz.BestScore >= 100 {
				s.PerfectQuizzes++
			}
		}
	}
	slices.SortFunc(s.CompletedModules, func(a, b achievements.CompletedModule) int {
		return strings.Compare(a.ID, b.ID)
	})
	return s
}

func ensureLesson(p *UserProgress, moduleID, lessonID string, now time.Time) (*ModuleProgress, *LessonProgress) {
	mp := p.Modules[moduleID]
	if mp == nil {
		mp = &ModuleProgress{ModuleID: moduleID, Lessons: make(map[string]*LessonProgress)}
		p.Modules[moduleID] = mp
	}
	if !mp.Started {
		mp.Started = true
		mp.StartedAt = stamp(now)
	}
	lp := mp.Lessons[lessonID]
	if lp == nil {
		lp = &LessonProgress{LessonID: lessonID}
		mp.Lessons[lessonID] = lp
	}
	if !lp.Started {
		lp.Started = true
		lp.StartedAt = stamp(now)
	}
	return mp, lp
}

func ensureLab(lp *LessonProgress, labID string) *LabProgress {
	if lp.Lab == nil {
		lp.Lab = &LabProgress{LabID: labID}
	}
	return lp.Lab
}

func stamp(t time.Time) *time.Time {
	return &t
}

func decode(data []byte) (*UserProgress, error) {
	var p UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.UserID == "" && p.CreatedAt.IsZero() {
		return nil, errors.New("progress record has no identity")
	}
	p.normalize()
	return &p, nil
}
