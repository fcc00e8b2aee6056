package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"temperature-dashboard/feed"
	"temperature-dashboard/models"
	"temperature-dashboard/series"

	"github.com/google/uuid"
)

var ErrFeedUnavailable = errors.New("feed unavailable")

// FeedConnectionError reports that the subscription itself failed. The
// session stays unavailable afterwards.
type FeedConnectionError struct {
	Err error
}

func (e *FeedConnectionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrFeedUnavailable, e.Err)
}

func (e *FeedConnectionError) Unwrap() []error {
	return []error{ErrFeedUnavailable, e.Err}
}

// Hooks are optional callbacks used for instrumentation.
type Hooks struct {
	OnSnapshot func(report series.Report, readings int, took time.Duration)
	OnFailure  func(err error)
}

// Engine owns the feed subscription and the latest normalized series.
// Observers must not block: they are called from the engine goroutine.
type Engine struct {
	feed  feed.Feed
	loc   *time.Location
	now   func() time.Time
	hooks Hooks

	snapshots chan models.Snapshot
	failures  chan error

	mu        sync.RWMutex
	readings  []models.Reading
	received  bool
	updatedAt time.Time
	failure   error
	observers map[string]func()
}

func NewEngine(f feed.Feed, loc *time.Location, hooks Hooks) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		feed:      f,
		loc:       loc,
		now:       time.Now,
		hooks:     hooks,
		snapshots: make(chan models.Snapshot, 1),
		failures:  make(chan error, 1),
		observers: make(map[string]func()),
	}
}

// Location is the zone used for calendar arithmetic.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Run subscribes to the feed and applies snapshots until ctx is done or the
// feed fails. The subscription is released on every return path.
func (e *Engine) Run(ctx context.Context) error {
	unsubscribe, err := e.feed.Subscribe(ctx, e.enqueue, e.reportFailure)
	if err != nil {
		ferr := &FeedConnectionError{Err: err}
		e.fail(ferr)
		return ferr
	}
	defer unsubscribe()
	log.Println("Feed subscription started")
	defer log.Println("Feed subscription released")

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-e.snapshots:
			e.apply(s)
		case err := <-e.failures:
			ferr := &FeedConnectionError{Err: err}
			e.fail(ferr)
			return ferr
		}
	}
}

// enqueue keeps only the newest pending snapshot; each one is complete, so
// an older pending snapshot can be discarded.
func (e *Engine) enqueue(s models.Snapshot) {
	for {
		select {
		case e.snapshots <- s:
			return
		default:
		}
		select {
		case <-e.snapshots:
		default:
		}
	}
}

func (e *Engine) reportFailure(err error) {
	select {
	case e.failures <- err:
	default:
	}
}

func (e *Engine) apply(s models.Snapshot) {
	start := time.Now()
	readings, report := series.Normalize(s, e.loc)
	for _, id := range report.Malformed {
		log.Printf("WARNING: reading %s has a non-numeric value %q", id, s[id].Value)
	}
	for _, id := range report.Dropped {
		log.Printf("WARNING: reading %s dropped, bad timestamp %q", id, s[id].Timestamp)
	}

	e.mu.Lock()
	if e.failure != nil {
		e.mu.Unlock()
		return
	}
	e.readings = readings
	e.received = true
	e.updatedAt = e.now()
	e.mu.Unlock()

	if e.hooks.OnSnapshot != nil {
		e.hooks.OnSnapshot(report, len(readings), time.Since(start))
	}
	e.notify()
}

func (e *Engine) fail(err error) {
	log.Printf("ERROR: %v", err)
	e.mu.Lock()
	e.failure = err
	e.mu.Unlock()
	if e.hooks.OnFailure != nil {
		e.hooks.OnFailure(err)
	}
	e.notify()
}

func (e *Engine) notify() {
	e.mu.RLock()
	fns := make([]func(), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Observe registers fn to be called after every state change. The returned
// cancel func removes it.
func (e *Engine) Observe(fn func()) (string, func()) {
	id := uuid.NewString()
	e.mu.Lock()
	e.observers[id] = fn
	e.mu.Unlock()
	var once sync.Once
	return id, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.observers, id)
			e.mu.Unlock()
		})
	}
}

// State is a consistent view of the engine.
type State struct {
	Status    Status
	Readings  []models.Reading
	UpdatedAt time.Time
	Err       error
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case e.failure != nil:
		return State{Status: StatusUnavailable, Err: e.failure}
	case !e.received:
		return State{Status: StatusLoading}
	default:
		return State{Status: StatusOK, Readings: e.readings, UpdatedAt: e.updatedAt}
	}
}

// Dashboard computes the dashboard for sel from the latest snapshot.
func (e *Engine) Dashboard(sel Selection) Dashboard {
	st := e.State()
	now := e.now()
	if st.Status != StatusOK {
		d := Dashboard{
			Status:      st.Status,
			GeneratedAt: now,
			Period:      sel.Period,
			Comparison:  sel.Comparison,
			Chart:       []models.CombinedPoint{},
			NoData:      true,
		}
		if st.Err != nil {
			d.Error = "data unavailable"
		}
		return d
	}
	return Compute(st.Readings, sel, now, e.loc)
}
