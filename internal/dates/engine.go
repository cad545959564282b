package dates

import (
	"slices"
	"time"

	"canconf/internal/model"
)

// Engine resolves, classifies and orders event dates against an injected
// clock and location. The zero value is not usable; call New.
//
// An Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	clock Clock
	loc   *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for "now" and for the default year.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLocation sets the zone in which calendar days are built and compared.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New returns an Engine using the system clock and time.Local unless
// overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock: SystemClock{},
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time in the engine's location.
func (e *Engine) Now() time.Time {
	return e.clock.Now().In(e.loc)
}

// Location returns the zone calendar days are built in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Resolve parses text into a calendar day. It never fails.
func (e *Engine) Resolve(text string) Resolved {
	return resolve(text, e.Now().Year(), e.loc)
}

// Parse is Resolve without the bookkeeping.
func (e *Engine) Parse(text string) time.Time {
	return e.Resolve(text).Instant
}

// StartOfDay truncates t to midnight in the engine's location.
func (e *Engine) StartOfDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// IsPast reports whether text resolves to a day strictly before the day of
// ref. An event dated today is not past.
func (e *Engine) IsPast(text string, ref time.Time) bool {
	return e.Parse(text).Before(e.StartOfDay(ref))
}

// IsPastNow is IsPast against the engine clock.
func (e *Engine) IsPastNow(text string) bool {
	return e.IsPast(text, e.Now())
}

type keyedEvent struct {
	event model.Event
	at    time.Time
}

// SortByDate returns a new slice ordered by resolved date, earliest first
// when ascending is true and latest first otherwise. Equal dates keep their
// input order in both directions. Each date string is resolved once per call.
func (e *Engine) SortByDate(events []model.Event, ascending bool) []model.Event {
	// Resolve once up front so the default year cannot shift mid-sort.
	year := e.Now().Year()
	keyed := make([]keyedEvent, len(events))
	for i, ev := range events {
		keyed[i] = keyedEvent{event: ev, at: resolve(ev.Date, year, e.loc).Instant}
	}

	slices.SortStableFunc(keyed, func(a, b keyedEvent) int {
		if ascending {
			return a.at.Compare(b.at)
		}
		return b.at.Compare(a.at)
	})

	out := make([]model.Event, len(keyed))
	for i, k := range keyed {
		out[i] = k.event
	}
	return out
}

// Partition splits events into upcoming and past relative to ref. Every event
// lands in exactly one of the two; input order is kept inside each.
func (e *Engine) Partition(events []model.Event, ref time.Time) (upcoming, past []model.Event) {
	today := e.StartOfDay(ref)
	year := e.Now().Year()
	upcoming = make([]model.Event, 0, len(events))
	past = make([]model.Event, 0)
	for _, ev := range events {
		if resolve(ev.Date, year, e.loc).Instant.Before(today) {
			past = append(past, ev)
		} else {
			upcoming = append(upcoming, ev)
		}
	}
	return upcoming, past
}

// Upcoming returns the events that are not past relative to ref, earliest
// first.
func (e *Engine) Upcoming(events []model.Event, ref time.Time) []model.Event {
	upcoming, _ := e.Partition(events, ref)
	return e.SortByDate(upcoming, true)
}

// Past returns the events that are past relative to ref, most recent first.
func (e *Engine) Past(events []model.Event, ref time.Time) []model.Event {
	_, past := e.Partition(events, ref)
	return e.SortByDate(past, false)
}

var defaultEngine = New()

// Parse resolves text with the system clock and local time.
func Parse(text string) time.Time { return defaultEngine.Parse(text) }

// IsPast classifies text against ref using local time.
func IsPast(text string, ref time.Time) bool { return defaultEngine.IsPast(text, ref) }

// SortByDate orders events using the system clock and local time.
func SortByDate(events []model.Event, ascending bool) []model.Event {
	return defaultEngine.SortByDate(events, ascending)
}
