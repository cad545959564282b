// Package catalog holds the fixed snapshot of directory events.
//
// A Catalog never changes after construction. Reloading or merging produces a
// new Catalog that callers swap in.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appLog "canconf/internal/log"
	"canconf/internal/model"
)

//go:embed data/events.json
var embeddedEvents []byte

// ErrNoEvents is returned when a document decodes but carries no usable
// events at all.
var ErrNoEvents = errors.New("catalog: no valid events")

var (
	validate   = validator.New()
	whitespace = regexp.MustCompile(`\s+`)
)

// document is the on-disk shape: {"events": [...]}.
type document struct {
	Events []model.Event `json:"events"`
}

// Catalog is an immutable, ordered collection of events.
type Catalog struct {
	events []model.Event
	names  map[string]struct{}
}

// Load reads a catalog from path. An empty path loads the dataset compiled
// into the binary.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(embeddedEvents)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Records that fail validation are logged
// and skipped; one bad entry does not reject the whole file.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	valid := make([]model.Event, 0, len(doc.Events))
	for i, ev := range doc.Events {
		if err := Validate(ev); err != nil {
			appLog.Warn("catalog: skipping invalid event", "index", i, "name", ev.Name, "reason", err.Error())
			continue
		}
		valid = append(valid, ev)
	}
	if len(valid) == 0 && len(doc.Events) > 0 {
		return nil, ErrNoEvents
	}

	return New(valid), nil
}

// Validate checks a single record against its struct tags.
func Validate(ev model.Event) error {
	return validate.Struct(ev)
}

// New builds a catalog from already-validated events, in order. Missing IDs
// are derived from name and date.
func New(events []model.Event) *Catalog {
	c := &Catalog{
		events: make([]model.Event, 0, len(events)),
		names:  make(map[string]struct{}, len(events)),
	}
	for _, ev := range events {
		c.add(ev)
	}
	return c
}

func (c *Catalog) add(ev model.Event) {
	ev = ev.Clone()
	if ev.ID == "" {
		ev.ID = DeriveID(ev)
	}
	c.events = append(c.events, ev)
	c.names[NormalizeName(ev.Name)] = struct{}{}
}

// Events returns a copy of the events in catalog order.
func (c *Catalog) Events() []model.Event {
	out := make([]model.Event, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Clone()
	}
	return out
}

// Len returns the number of events.
func (c *Catalog) Len() int {
	return len(c.events)
}

// HasName reports whether an event with the same normalized name exists.
func (c *Catalog) HasName(name string) bool {
	_, ok := c.names[NormalizeName(name)]
	return ok
}

// Merge returns a new catalog with extra appended, skipping entries whose
// normalized name is already present (in c or earlier in extra) and entries
// that fail validation.
func (c *Catalog) Merge(extra []model.Event) *Catalog {
	merged := New(c.events)
	for _, ev := range extra {
		if merged.HasName(ev.Name) {
			continue
		}
		if err := Validate(ev); err != nil {
			appLog.Debug("catalog: merge skipped invalid event", "name", ev.Name, "reason", err.Error())
			continue
		}
		merged.add(ev)
	}
	return merged
}

// Marshal encodes events in the catalog document shape.
func Marshal(events []model.Event, pretty bool) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	doc := document{Events: events}
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// NormalizeName collapses whitespace, trims and lowercases a name for
// duplicate detection.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(whitespace.ReplaceAllString(name, " ")))
}

// DeriveID returns a deterministic UUIDv5 for an event from its name and
// date text.
func DeriveID(ev model.Event) string {
	key := NormalizeName(ev.Name) + "|" + strings.TrimSpace(ev.Date)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("canconf:event:"+key)).String()
}
