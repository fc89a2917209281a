package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/phonebook/core/logger"
	"github.com/m3rciful/phonebook/core/telegram/state"
	"github.com/m3rciful/phonebook/internal/directory"
)

const component = "service.sessions"

// ErrNoActiveSession is returned by Input when the user has no dialogue in
// progress. Callers drop the message silently.
var ErrNoActiveSession = errors.New("session: no active session")

// Committer persists a finished draft.
type Committer interface {
	Add(ctx context.Context, d directory.Draft) (directory.Contact, error)
}

// Outcome describes what a Manager call did.
type Outcome struct {
	Effect Effect
	Step   Step
	// Restarted is set when Start replaced a dialogue already in progress.
	Restarted bool
	// Discarded is set when Cancel dropped a live draft.
	Discarded bool
	// Contact is the stored record for EffectCommit.
	Contact directory.Contact
}

// Manager owns the user -> Session table. Calls for the same user are
// serialized; different users proceed independently.
type Manager struct {
	store     state.Store[Session]
	committer Committer
	locks     userLocks
	now       func() time.Time
}

// NewManager wires a session table to the directory.
func NewManager(store state.Store[Session], committer Committer) *Manager {
	return &Manager{store: store, committer: committer, now: time.Now}
}

// Start opens the dialogue at the name prompt, discarding any draft in progress.
func (m *Manager) Start(ctx context.Context, userID int64) (Outcome, error) {
	return m.apply(ctx, userID, StartEvent())
}

// Input feeds one free-form answer into the user's dialogue.
func (m *Manager) Input(ctx context.Context, userID int64, text string) (Outcome, error) {
	return m.apply(ctx, userID, TextEvent(text))
}

// Cancel drops the user's dialogue without touching the directory.
func (m *Manager) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	return m.apply(ctx, userID, CancelEvent())
}

// Current returns the user's live session, if any.
func (m *Manager) Current(ctx context.Context, userID int64) (Session, bool, error) {
	s, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return Session{}, false, fmt.Errorf("session: load: %w", err)
	}
	if !ok || !s.Step.Active() {
		return Session{Step: StepIdle}, false, nil
	}
	return s, true, nil
}

// InProgress reports whether the user is inside the dialogue. Store errors
// count as not in progress.
func (m *Manager) InProgress(ctx context.Context, userID int64) bool {
	_, ok, err := m.Current(ctx, userID)
	if err != nil {
		logger.Warn(ctx, component, "session.load",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return ok
}

func (m *Manager) apply(ctx context.Context, userID int64, ev Event) (Outcome, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	// Replicas sharing a Redis table also serialize through the store.
	if l, isLocker := m.store.(state.Locker); isLocker {
		release, err := l.Lock(ctx, userID)
		if err != nil {
			return Outcome{}, fmt.Errorf("session: lock: %w", err)
		}
		defer release()
	}

	cur, ok, err := m.store.Load(ctx, userID)
	switch {
	case errors.Is(err, state.ErrCorrupt):
		// An undecodable entry is dropped and the user starts from idle.
		logger.Warn(ctx, component, "session.corrupt",
			slog.String("status", "reset"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		if err := m.store.Delete(ctx, userID); err != nil {
			return Outcome{}, fmt.Errorf("session: delete corrupt: %w", err)
		}
		ok = false
	case err != nil:
		return Outcome{}, fmt.Errorf("session: load: %w", err)
	}
	if !ok || !cur.Step.Active() {
		cur = Session{Step: StepIdle}
	}

	next, eff := Transition(cur, ev)
	out := Outcome{Effect: eff, Step: next.Step}

	switch eff {
	case EffectIgnored:
		return out, ErrNoActiveSession

	case EffectCancelled:
		out.Discarded = cur.Step.Active()
		if err := m.store.Delete(ctx, userID); err != nil {
			return out, fmt.Errorf("session: delete: %w", err)
		}
		logger.Info(ctx, component, "session.cancel",
			slog.String("status", "cancelled"),
			slog.Int64("user_id", userID),
			slog.String("prev_step", string(cur.Step)),
			slog.Bool("discarded", out.Discarded),
		)
		return out, nil

	case EffectCommit:
		contact, commitErr := m.committer.Add(ctx, next.Draft)
		// The draft is dropped whether or not the insert succeeded; there is no retry.
		if err := m.store.Delete(ctx, userID); err != nil {
			logger.Warn(ctx, component, "session.delete",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		if commitErr != nil {
			logger.Error(ctx, component, "session.commit",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.String("err", commitErr.Error()),
			)
			return out, fmt.Errorf("session: commit: %w", commitErr)
		}
		out.Contact = contact
		logger.Info(ctx, component, "session.commit",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int64("contact_id", contact.ID),
		)
		return out, nil
	}

	out.Restarted = ev.Kind == EventStart && cur.Step.Active()
	next.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, userID, next); err != nil {
		return out, fmt.Errorf("session: save: %w", err)
	}
	event := "session.step"
	if ev.Kind == EventStart {
		event = "session.start"
		if out.Restarted {
			event = "session.restart"
		}
	}
	logger.Debug(ctx, component, event,
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("prev_step", string(cur.Step)),
		slog.String("step", string(next.Step)),
	)
	return out, nil
}

type userLock struct {
	sync.Mutex
	refs int
}

// userLocks hands out one mutex per user and forgets it once unused.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*userLock
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[int64]*userLock)
	}
	e, ok := l.m[userID]
	if !ok {
		e = &userLock{}
		l.m[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
