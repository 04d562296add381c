package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studypath-backend/internal/models"
)

type fakeResolver struct {
	courseRows  map[string]int64
	chapterRows map[string]int64
	courseErr   error
}

func (f *fakeResolver) FindCourseRowID(ctx context.Context, courseID string) (int64, error) {
	if f.courseErr != nil {
		return 0, f.courseErr
	}
	return f.courseRows[courseID], nil
}

func (f *fakeResolver) FindChapterRowID(ctx context.Context, courseID string, chapterNum int) (int64, error) {
	return f.chapterRows[courseID], nil
}

type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	started   []models.StudySession
	durations map[int64]int
	ended     []int64
	startErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 100, durations: make(map[int64]int)}
}

func (f *fakeStore) Start(ctx context.Context, s *models.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	if s.ChapterRowID == 0 {
		return errors.New("chapter row id is required")
	}
	f.nextID++
	s.SessionID = f.nextID
	f.started = append(f.started, *s)
	return nil
}

func (f *fakeStore) UpdateDuration(ctx context.Context, sessionID int64, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations[sessionID] = seconds
	return nil
}

func (f *fakeStore) End(ctx context.Context, sessionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, sessionID)
	return nil
}

func (f *fakeStore) endedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ended)
}

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func newTestManager(resolver Resolver, store SessionStore) *Manager {
	return NewManager(resolver, store, time.Hour)
}

func TestActivate_StartsSession(t *testing.T) {
	resolver := &fakeResolver{
		courseRows:  map[string]int64{"course-abc": 7},
		chapterRows: map[string]int64{"course-abc": 42},
	}
	store := newFakeStore()
	m := newTestManager(resolver, store)

	tr := m.Activate(context.Background(), "user-1", "course-abc", 3)
	if tr == nil {
		t.Fatal("Expected a tracker, got nil")
	}
	defer tr.Stop()

	if len(store.started) != 1 {
		t.Fatalf("Expected 1 started session, got %d", len(store.started))
	}
	s := store.started[0]
	if s.UserID != "user-1" || s.CourseRowID != 7 || s.ChapterRowID != 42 {
		t.Errorf("Unexpected session row: %+v", s)
	}
	if tr.SessionID != s.SessionID {
		t.Errorf("Expected tracker session id %d, got %d", s.SessionID, tr.SessionID)
	}
}

func TestActivate_SilentFailures(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		resolver *fakeResolver
		store    *fakeStore
	}{
		{
			"missing user",
			"",
			&fakeResolver{courseRows: map[string]int64{"c": 1}, chapterRows: map[string]int64{"c": 2}},
			newFakeStore(),
		},
		{
			"unknown course",
			"user-1",
			&fakeResolver{courseRows: map[string]int64{}, chapterRows: map[string]int64{}},
			newFakeStore(),
		},
		{
			"resolver error",
			"user-1",
			&fakeResolver{courseErr: errors.New("db down")},
			newFakeStore(),
		},
		{
			"store refuses without chapter row",
			"user-1",
			&fakeResolver{courseRows: map[string]int64{"c": 1}, chapterRows: map[string]int64{}},
			newFakeStore(),
		},
		{
			"store insert failure",
			"user-1",
			&fakeResolver{courseRows: map[string]int64{"c": 1}, chapterRows: map[string]int64{"c": 2}},
			func() *fakeStore { s := newFakeStore(); s.startErr = errors.New("insert failed"); return s }(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(tc.resolver, tc.store)
			if tr := m.Activate(context.Background(), tc.userID, "c", 1); tr != nil {
				t.Error("Expected nil tracker")
			}
		})
	}
}

func TestTracker_StopEndsSessionOnce(t *testing.T) {
	resolver := &fakeResolver{
		courseRows:  map[string]int64{"c": 1},
		chapterRows: map[string]int64{"c": 2},
	}
	store := newFakeStore()
	m := newTestManager(resolver, store)

	tr := m.Activate(context.Background(), "user-1", "c", 1)
	if tr == nil {
		t.Fatal("Expected a tracker, got nil")
	}

	tr.Stop()
	tr.Stop() // idempotent

	if got := store.endedCount(); got != 1 {
		t.Errorf("Expected exactly 1 end call, got %d", got)
	}

	m.mu.Lock()
	remaining := len(m.active)
	m.mu.Unlock()
	if remaining != 0 {
		t.Errorf("Expected no active trackers after stop, got %d", remaining)
	}
}

func TestTracker_PersistsElapsedOnTick(t *testing.T) {
	resolver := &fakeResolver{
		courseRows:  map[string]int64{"c": 1},
		chapterRows: map[string]int64{"c": 2},
	}
	store := newFakeStore()
	m := NewManager(resolver, store, 10*time.Millisecond)

	clock := &fakeClock{current: time.Now()}
	m.now = clock.Now

	tr := m.Activate(context.Background(), "user-1", "c", 1)
	if tr == nil {
		t.Fatal("Expected a tracker, got nil")
	}

	// Advance the clock, then wait for at least one tick to land.
	clock.Advance(90 * time.Second)

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		got, ok := store.durations[tr.SessionID]
		store.mu.Unlock()
		if ok {
			if got != 90 {
				t.Errorf("Expected persisted duration 90, got %d", got)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for a duration write")
		case <-time.After(5 * time.Millisecond):
		}
	}

	tr.Stop()
}

func TestTracker_ClampsNegativeElapsed(t *testing.T) {
	resolver := &fakeResolver{
		courseRows:  map[string]int64{"c": 1},
		chapterRows: map[string]int64{"c": 2},
	}
	store := newFakeStore()
	m := NewManager(resolver, store, 10*time.Millisecond)

	clock := &fakeClock{current: time.Now()}
	m.now = clock.Now

	tr := m.Activate(context.Background(), "user-1", "c", 1)
	if tr == nil {
		t.Fatal("Expected a tracker, got nil")
	}

	// Clock moves backwards: the persisted value must never go negative.
	clock.Advance(-time.Minute)

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		got, ok := store.durations[tr.SessionID]
		store.mu.Unlock()
		if ok {
			if got != 0 {
				t.Errorf("Expected clamped duration 0, got %d", got)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for a duration write")
		case <-time.After(5 * time.Millisecond):
		}
	}

	tr.Stop()
}

func TestManager_StopAll(t *testing.T) {
	resolver := &fakeResolver{
		courseRows:  map[string]int64{"a": 1, "b": 2},
		chapterRows: map[string]int64{"a": 10, "b": 20},
	}
	store := newFakeStore()
	m := newTestManager(resolver, store)

	if m.Activate(context.Background(), "user-1", "a", 1) == nil {
		t.Fatal("Expected a tracker for course a")
	}
	if m.Activate(context.Background(), "user-1", "b", 1) == nil {
		t.Fatal("Expected a tracker for course b")
	}

	m.StopAll()

	if got := store.endedCount(); got != 2 {
		t.Errorf("Expected 2 ended sessions, got %d", got)
	}
}
