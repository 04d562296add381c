// Package tracker maintains one open study session per viewing context. A
// context is activated when a client begins viewing a course chapter and
// deactivated when the view closes; in between, a ticker keeps the persisted
// duration approximately current.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"studypath-backend/internal/models"
)

// Resolver maps external course/chapter identifiers to internal row ids.
type Resolver interface {
	FindCourseRowID(ctx context.Context, courseID string) (int64, error)
	FindChapterRowID(ctx context.Context, courseID string, chapterNum int) (int64, error)
}

// SessionStore is the slice of the study-session repository the tracker needs.
type SessionStore interface {
	Start(ctx context.Context, s *models.StudySession) error
	UpdateDuration(ctx context.Context, sessionID int64, seconds int) error
	End(ctx context.Context, sessionID int64) error
}

type Manager struct {
	resolver Resolver
	store    SessionStore
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	active map[int64]*Tracker
}

func NewManager(resolver Resolver, store SessionStore, interval time.Duration) *Manager {
	return &Manager{
		resolver: resolver,
		store:    store,
		interval: interval,
		now:      time.Now,
		active:   make(map[int64]*Tracker),
	}
}

// Activate resolves the viewing context and opens a study session for it.
// Returns nil, without error, when tracking cannot proceed: missing user,
// unresolvable course, or a store failure on insert. An unresolvable chapter
// is treated as absent rather than fatal; the store then refuses the insert
// because the schema mandates a chapter row, and the activation stays
// sessionless. All of these are logged only.
func (m *Manager) Activate(ctx context.Context, userID, courseID string, chapterNum int) *Tracker {
	if userID == "" {
		return nil
	}

	courseRowID, err := m.resolver.FindCourseRowID(ctx, courseID)
	if err != nil {
		log.Printf("tracker: resolve course %q: %v", courseID, err)
		return nil
	}
	if courseRowID == 0 {
		return nil
	}

	var chapterRowID int64
	if chapterNum > 0 {
		chapterRowID, err = m.resolver.FindChapterRowID(ctx, courseID, chapterNum)
		if err != nil {
			log.Printf("tracker: resolve chapter %d of %q: %v", chapterNum, courseID, err)
			chapterRowID = 0
		}
	}

	session := &models.StudySession{
		UserID:       userID,
		CourseRowID:  courseRowID,
		ChapterRowID: chapterRowID,
	}
	if err := m.store.Start(ctx, session); err != nil {
		log.Printf("tracker: start session for %s/%q: %v", userID, courseID, err)
		return nil
	}

	t := &Tracker{
		SessionID: session.SessionID,
		manager:   m,
		start:     m.now(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.active[t.SessionID] = t
	m.mu.Unlock()

	go t.run()
	return t
}

// StopAll deactivates every live tracker. Called on server shutdown so open
// sessions get closed with a final duration.
func (m *Manager) StopAll() {
	m.mu.Lock()
	trackers := make([]*Tracker, 0, len(m.active))
	for _, t := range m.active {
		trackers = append(trackers, t)
	}
	m.mu.Unlock()

	for _, t := range trackers {
		t.Stop()
	}
}

func (m *Manager) remove(sessionID int64) {
	m.mu.Lock()
	delete(m.active, sessionID)
	m.mu.Unlock()
}

// Tracker follows a single session from activation to close. Instances are
// not reused: once Stop has run, the tracker is terminal.
type Tracker struct {
	SessionID int64

	manager  *Manager
	start    time.Time
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (t *Tracker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.manager.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.persistElapsed()
		case <-t.stop:
			t.close()
			return
		}
	}
}

// persistElapsed writes the seconds elapsed since activation as the session's
// duration. Failures are logged and dropped; the next tick tries again with a
// fresh value anyway.
func (t *Tracker) persistElapsed() {
	elapsed := int(t.manager.now().Sub(t.start).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.manager.store.UpdateDuration(ctx, t.SessionID, elapsed); err != nil {
		log.Printf("tracker: update duration for session %d: %v", t.SessionID, err)
	}
}

func (t *Tracker) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.manager.store.End(ctx, t.SessionID); err != nil {
		log.Printf("tracker: end session %d: %v", t.SessionID, err)
	}
	t.manager.remove(t.SessionID)
}

// Stop deactivates the tracker: the ticker goroutine exits and the session is
// closed with end time and final duration. Safe to call more than once; only
// the first call does anything. Stop returns after the close has been
// attempted.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
