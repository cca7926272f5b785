package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/cache"
	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// testCatalog has two modules: "basics" with lessons b1..b3 and "labs"
// with l1 (lab) and l2 (quiz).
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Module{
		{ID: "basics", Title: "Basics", Order: 1, Level: catalog.LevelBeginner, Lessons: []catalog.Lesson{
			{ID: "b1", ModuleID: "basics", Order: 1, Type: catalog.LessonTheory},
			{ID: "b2", ModuleID: "basics", Order: 2, Type: catalog.LessonTheory},
			{ID: "b3", ModuleID: "basics", Order: 3, Type: catalog.LessonTheory},
		}},
		{ID: "labs", Title: "Labs", Order: 2, Level: catalog.LevelIntermediate, Lessons: []catalog.Lesson{
			{ID: "l1", ModuleID: "labs", Order: 1, Type: catalog.LessonLab, Lab: &catalog.Lab{ID: "lab-1"}},
			{ID: "l2", ModuleID: "labs", Order: 2, Type: catalog.LessonAssessment, Quiz: &catalog.Quiz{ID: "quiz-1"}},
		}},
	})
	require.NoError(t, err)
	return c
}

func newTestTracker(t *testing.T, opts Options) *Tracker {
	t.Helper()
	if opts.Catalog == nil {
		opts.Catalog = testCatalog(t)
	}
	if opts.Now == nil {
		opts.Now = newClock().Now
	}
	return NewTracker(opts)
}

var (
	device = auth.Anonymous("device-1")
	user   = auth.Identity{Authenticated: true, UserID: "u-1", Email: "ada@example.com", DisplayName: "Ada"}
)

func TestGetProgressCreatesAndPersists(t *testing.T) {
	local := newMemoryLocal()
	tr := newTestTracker(t, Options{Local: local})

	p := tr.GetProgress(context.Background(), device)
	assert.Equal(t, "anonymous:device-1", p.UserID)
	assert.Empty(t, p.Modules)
	assert.Equal(t, ThemeSystem, p.Settings.Theme)
	assert.False(t, p.CreatedAt.IsZero())

	data, err := local.Get(context.Background(), "genlearn.progress:device-1")
	require.NoError(t, err)
	assert.NotNil(t, data, "first read persists an empty record")
}

func TestGeneratedDevicePersistsOnFirstMutation(t *testing.T) {
	local := newMemoryLocal()
	tr := newTestTracker(t, Options{Local: local})
	ctx := context.Background()

	for range 100 {
		tr.GetProgress(ctx, auth.Anonymous(""))
	}
	assert.Empty(t, local.data, "reads for generated devices store nothing")

	fresh := auth.Anonymous("")
	tr.MarkLessonStarted(ctx, fresh, "basics", "b1")
	data, err := local.Get(ctx, tr.LocalKey(fresh))
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestIdentityLocksAreReleased(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	for i := range 50 {
		id := auth.Anonymous(fmt.Sprintf("device-%d", i))
		tr.GetProgress(ctx, id)
		tr.MarkLessonCompleted(ctx, id, "basics", "b1")
	}
	tr.ResetProgress(ctx, device)
	assert.Zero(t, tr.lockCount())
}

func TestMarkLessonCompleted(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	p := tr.GetProgress(ctx, device)

	m := p.Module("basics")
	require.NotNil(t, m)
	assert.True(t, m.Started)
	assert.NotNil(t, m.StartedAt)
	assert.False(t, m.Completed)

	l := p.Lesson("basics", "b1")
	require.NotNil(t, l)
	assert.True(t, l.Started)
	assert.True(t, l.Completed)
	assert.NotNil(t, l.StartedAt)
	assert.NotNil(t, l.CompletedAt)
}

func TestCompletionTimestampNeverMoves(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	first := *tr.MarkLessonCompleted(ctx, device, "basics", "b1").Lesson("basics", "b1").CompletedAt
	tr.MarkLessonStarted(ctx, device, "basics", "b1")
	again := tr.MarkLessonCompleted(ctx, device, "basics", "b1").Lesson("basics", "b1")

	assert.Equal(t, first, *again.CompletedAt)
	assert.True(t, again.Completed)
}

func TestModuleCompletesWithLastLesson(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	tr.MarkLessonCompleted(ctx, device, "basics", "b2")
	p := tr.MarkLessonCompleted(ctx, device, "basics", "b3")

	m := p.Module("basics")
	assert.True(t, m.Completed)
	assert.NotNil(t, m.CompletedAt)
	assert.True(t, p.HasAchievement("module-complete:basics"))
	assert.True(t, p.HasAchievement("first-lesson"))
}

func TestSaveQuizResult(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	tr.SaveQuizResult(ctx, device, "labs", "l2", "quiz-1", 60, false)
	p := tr.SaveQuizResult(ctx, device, "labs", "l2", "quiz-1", 80, true)

	q := p.Lesson("labs", "l2").Quiz
	require.NotNil(t, q)
	assert.Equal(t, 80, q.BestScore)
	assert.True(t, q.IsPassed)
	assert.Equal(t, 2, q.AttemptsCount)
	assert.NotNil(t, q.PassedAt)
	assert.True(t, p.Lesson("labs", "l2").Completed)

	p = tr.SaveQuizResult(ctx, device, "labs", "l2", "quiz-1", 40, false)
	q = p.Lesson("labs", "l2").Quiz
	assert.Equal(t, 80, q.BestScore, "best score never decreases")
	assert.True(t, q.IsPassed, "a pass is permanent")
	assert.Equal(t, 3, q.AttemptsCount)
}

func TestFailedQuizStartsButDoesNotComplete(t *testing.T) {
	tr := newTestTracker(t, Options{})
	p := tr.SaveQuizResult(context.Background(), device, "labs", "l2", "quiz-1", 30, false)

	l := p.Lesson("labs", "l2")
	assert.True(t, l.Started)
	assert.False(t, l.Completed)
	assert.True(t, p.Module("labs").Started)
}

func TestPerfectQuizEarnsAce(t *testing.T) {
	tr := newTestTracker(t, Options{})
	p := tr.SaveQuizResult(context.Background(), device, "labs", "l2", "quiz-1", 100, true)
	assert.True(t, p.HasAchievement("quiz-ace"))
}

func TestLabProgress(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	for i := range 5 {
		tr.RecordLabAttempt(ctx, device, "labs", "l1", "lab-1", fmt.Sprintf("attempt %d", i+1))
	}
	p := tr.MarkLabCompleted(ctx, device, "labs", "l1", "lab-1")

	lab := p.Lesson("labs", "l1").Lab
	require.NotNil(t, lab)
	assert.Equal(t, 5, lab.AttemptsCount)
	assert.Equal(t, "attempt 5", lab.LastSubmission)
	assert.True(t, lab.Completed)
	assert.NotNil(t, lab.CompletedAt)
	assert.True(t, p.Lesson("labs", "l1").Completed)
	assert.True(t, p.HasAchievement("first-lab"))
	assert.True(t, p.HasAchievement("prompt-tinkerer"))
}

func TestAchievementsAwardedOnce(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	p := tr.MarkLessonCompleted(ctx, device, "basics", "b2")

	count := 0
	for _, a := range p.Achievements {
		if a.ID == "first-lesson" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestOverallProgressPercentage(t *testing.T) {
	modules := []catalog.Module{{ID: "m", Order: 1, Level: catalog.LevelBeginner}}
	for i := range 10 {
		modules[0].Lessons = append(modules[0].Lessons, catalog.Lesson{
			ID: fmt.Sprintf("l%d", i), ModuleID: "m", Order: i,
		})
	}
	cat, err := catalog.New(modules)
	require.NoError(t, err)

	tr := newTestTracker(t, Options{Catalog: cat})
	ctx := context.Background()
	for i := range 3 {
		tr.MarkLessonCompleted(ctx, device, "m", fmt.Sprintf("l%d", i))
	}
	tr.MarkLessonCompleted(ctx, device, "m", "not-in-catalog")

	assert.Equal(t, 30, tr.OverallProgressPercentage(ctx, device, nil))

	empty, err := catalog.New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.OverallProgressPercentage(ctx, device, empty))
}

func TestOverallPercentageRoundsDown(t *testing.T) {
	cat := testCatalog(t)
	tr := newTestTracker(t, Options{Catalog: cat})
	ctx := context.Background()

	p := tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	assert.Equal(t, 20, OverallPercentage(p, cat))
	assert.Equal(t, 33, ModulePercentage(p, cat, "basics"))
	assert.Equal(t, 0, ModulePercentage(p, cat, "labs"))
}

func TestResetProgress(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	tr.ResetProgress(ctx, device)

	p := tr.GetProgress(ctx, device)
	assert.Empty(t, p.Modules)
	assert.Empty(t, p.Achievements)
}

func TestUpdateSettings(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	p := tr.UpdateSettings(ctx, device, Settings{DisplayName: "Grace", Theme: ThemeDark})
	assert.Equal(t, ThemeDark, p.Settings.Theme)

	p = tr.UpdateSettings(ctx, device, Settings{Theme: "neon"})
	assert.Equal(t, ThemeSystem, p.Settings.Theme)
}

func TestSaveProgressOverwrites(t *testing.T) {
	clk := newClock()
	tr := newTestTracker(t, Options{Now: clk.Now})
	ctx := context.Background()

	p := tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	before := p.LastActivity

	p.Settings.DisplayName = "Linus"
	delete(p.Modules, "basics")
	tr.SaveProgress(ctx, device, p)

	got := tr.GetProgress(ctx, device)
	assert.Equal(t, "Linus", got.Settings.DisplayName)
	assert.Empty(t, got.Modules)
	assert.True(t, got.LastActivity.After(before))
}

func TestIdentitiesAreIsolated(t *testing.T) {
	durable := NewMemoryStore()
	local := newMemoryLocal()
	tr := newTestTracker(t, Options{Local: local, Durable: durable})
	ctx := context.Background()

	tr.MarkLessonCompleted(ctx, user, "basics", "b1")
	assert.Empty(t, tr.GetProgress(ctx, device).Modules)
	assert.Empty(t, tr.GetProgress(ctx, auth.Anonymous("device-2")).Modules)

	row, err := durable.Get(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "ada@example.com", row.Email)
	assert.Equal(t, "Ada", row.DisplayName)
	assert.False(t, row.LastActivity.IsZero())

	data, err := local.Get(ctx, "genlearn.progress:u-1")
	require.NoError(t, err)
	assert.Nil(t, data, "authenticated progress never touches the local store")
}

func TestSQLiteLocalStore(t *testing.T) {
	st, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	tr := newTestTracker(t, Options{Local: st.ProgressRepo(), Cache: cache.NewMemory(0)})
	tr.MarkLessonCompleted(ctx, device, "basics", "b2")

	// A second tracker has a cold cache and must read from SQLite.
	fresh := newTestTracker(t, Options{Local: st.ProgressRepo()})
	p := fresh.GetProgress(ctx, device)
	require.NotNil(t, p.Lesson("basics", "b2"))
	assert.True(t, p.Lesson("basics", "b2").Completed)
}

type failingLocal struct{}

func (failingLocal) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk unavailable")
}
func (failingLocal) Put(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingLocal) Delete(context.Context, string) error      { return errors.New("disk full") }

func TestStorageFailuresAreSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := newTestTracker(t, Options{
		Local:  failingLocal{},
		Logger: logger.FromZap(zap.New(core)),
	})
	ctx := context.Background()

	p := tr.MarkLessonCompleted(ctx, device, "basics", "b1")
	assert.True(t, p.Lesson("basics", "b1").Completed, "caller still sees the mutation")
	assert.NotZero(t, logs.FilterMessage("progress read failed").Len())
	assert.NotZero(t, logs.FilterMessage("progress write failed").Len())

	tr.ResetProgress(ctx, device)
	assert.NotZero(t, logs.FilterMessage("progress reset failed").Len())
}

func TestCorruptRecordStartsFresh(t *testing.T) {
	local := newMemoryLocal()
	require.NoError(t, local.Put(context.Background(), "genlearn.progress:device-1", []byte("{not json")))

	tr := newTestTracker(t, Options{Local: local})
	p := tr.GetProgress(context.Background(), device)
	assert.Empty(t, p.Modules)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	tr := newTestTracker(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordLabAttempt(ctx, device, "labs", "l1", "lab-1", "x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, tr.GetProgress(ctx, device).Lesson("labs", "l1").Lab.AttemptsCount)
	assert.Zero(t, tr.lockCount())
}
