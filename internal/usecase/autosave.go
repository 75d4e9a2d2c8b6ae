package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQuietPeriod = 1000 * time.Millisecond
	defaultSaveTimeout = 10 * time.Second
)

// DraftAutosaver debounces onboarding draft writes. Each edit resets a
// per-user quiet-period timer; only the data accumulated when the timer
// finally fires is written. At most one save is in flight per user: an
// edit landing mid-flight reschedules instead of starting a second
// concurrent write. Timers are cancellable; an in-flight write always runs
// to completion.
type DraftAutosaver struct {
	uc          *OnboardingUsecase
	quiet       time.Duration
	saveTimeout time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	buffers map[string]*draftBuffer
	closed  bool
}

type draftBuffer struct {
	timer    *time.Timer
	data     map[string]interface{}
	lastStep int
	inFlight bool
	saveDone chan struct{} // closed when the in-flight write returns
}

func NewDraftAutosaver(uc *OnboardingUsecase, quiet time.Duration, logger *zap.Logger) *DraftAutosaver {
	if quiet <= 0 {
		quiet = defaultQuietPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftAutosaver{
		uc:          uc,
		quiet:       quiet,
		saveTimeout: defaultSaveTimeout,
		logger:      logger,
		buffers:     make(map[string]*draftBuffer),
	}
}

// Queue merges an edit into the user's pending buffer and restarts the
// quiet-period timer.
func (a *DraftAutosaver) Queue(userID string, partial map[string]interface{}, lastStep int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || len(partial) == 0 {
		return
	}

	buf := a.buffers[userID]
	if buf == nil {
		buf = &draftBuffer{data: make(map[string]interface{})}
		a.buffers[userID] = buf
	}
	for k, v := range partial {
		buf.data[k] = v
	}
	if lastStep > 0 {
		buf.lastStep = lastStep
	}

	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.timer = time.AfterFunc(a.quiet, func() { a.fire(userID) })
}

// fire writes the accumulated buffer. It runs once per timer expiry.
func (a *DraftAutosaver) fire(userID string) {
	a.mu.Lock()
	buf := a.buffers[userID]
	if buf == nil {
		a.mu.Unlock()
		return
	}
	if len(buf.data) == 0 {
		if !buf.inFlight {
			delete(a.buffers, userID)
		}
		a.mu.Unlock()
		return
	}
	if buf.inFlight {
		// A write is already running; reschedule rather than queueing a
		// second concurrent one.
		buf.timer = time.AfterFunc(a.quiet, func() { a.fire(userID) })
		a.mu.Unlock()
		return
	}

	snapshot := buf.data
	lastStep := buf.lastStep
	buf.data = make(map[string]interface{})
	buf.lastStep = 0
	buf.inFlight = true
	buf.saveDone = make(chan struct{})
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	_, err := a.uc.SaveDraft(ctx, userID, snapshot, lastStep)
	cancel()

	a.mu.Lock()
	buf.inFlight = false
	close(buf.saveDone)
	buf.saveDone = nil
	if err != nil {
		a.logger.Warn("draft autosave failed; answers kept for the next attempt",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		// Newer edits that arrived mid-flight win over the failed snapshot.
		for k, v := range snapshot {
			if _, ok := buf.data[k]; !ok {
				buf.data[k] = v
			}
		}
		if buf.lastStep == 0 {
			buf.lastStep = lastStep
		}
	}
	if len(buf.data) > 0 && !a.closed {
		if buf.timer != nil {
			buf.timer.Stop()
		}
		buf.timer = time.AfterFunc(a.quiet, func() { a.fire(userID) })
	} else if len(buf.data) == 0 {
		delete(a.buffers, userID)
	}
	a.mu.Unlock()
}

// Flush writes any pending edits for the user immediately, bypassing the
// quiet period. It waits for an in-flight save to return first and only
// comes back once nothing is pending, so a finalize-then-purge that runs
// after Flush cannot be trailed by a buffered edit. A failed write keeps
// its answers for the next quiet period rather than spinning here.
func (a *DraftAutosaver) Flush(userID string) {
	for {
		a.mu.Lock()
		buf := a.buffers[userID]
		if buf == nil {
			a.mu.Unlock()
			return
		}
		if buf.inFlight {
			wait := buf.saveDone
			a.mu.Unlock()
			if wait != nil {
				<-wait
			}
			continue
		}
		if len(buf.data) == 0 {
			a.mu.Unlock()
			return
		}
		if buf.timer != nil {
			buf.timer.Stop()
		}
		a.mu.Unlock()

		a.fire(userID)

		a.mu.Lock()
		buf = a.buffers[userID]
		raced := buf != nil && buf.inFlight
		a.mu.Unlock()
		if !raced {
			return
		}
	}
}

// Cancel drops the user's pending edits without writing them, e.g. when the
// wizard is closed and the answers were discarded client-side. An in-flight
// write still runs to completion.
func (a *DraftAutosaver) Cancel(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.buffers[userID]
	if buf == nil {
		return
	}
	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.data = make(map[string]interface{})
	buf.lastStep = 0
	if !buf.inFlight {
		delete(a.buffers, userID)
	}
}

// Close cancels every pending timer. In-flight writes run to completion;
// un-fired buffers are dropped.
func (a *DraftAutosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	for userID, buf := range a.buffers {
		if buf.timer != nil {
			buf.timer.Stop()
		}
		if !buf.inFlight {
			delete(a.buffers, userID)
		}
	}
}
