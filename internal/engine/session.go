// Package engine runs a life one simulated year at a time: event selection
// and resolution, life-transition actions, aging and mortality, and
// inheritance across generations.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/entropy"
	"github.com/talgya/lifesim/internal/family"
)

// Event categories.
const (
	CategoryWelcome     = "welcome"
	CategoryMilestone   = "milestone"
	CategoryStage       = "stage"
	CategoryRandom      = "random"
	CategoryOrdinary    = "ordinary"
	CategoryChoice      = "choice"
	CategoryCareer      = "career"
	CategoryBirth       = "birth"
	CategoryMarriage    = "marriage"
	CategoryDivorce     = "divorce"
	CategoryPurchase    = "purchase"
	CategoryAchievement = "achievement"
	CategoryDeath       = "death"
	CategoryInheritance = "inheritance"
	CategorySave        = "save"
)

// maxEvents bounds the session event log.
const maxEvents = 1000

// Event is a notable occurrence surfaced to the presentation layer.
type Event struct {
	Age         int    `json:"age"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Session is the explicit game context: the active character, the family
// graph shared by every generation, the content and the random stream.
// It is not safe for concurrent use.
type Session struct {
	Catalog   *catalog.Catalog
	Character *character.Character
	Family    *family.Graph
	Events    []Event

	// Clock stamps life-log entries. Defaults to time.Now.
	Clock func() time.Time

	// Saver, when set, receives a snapshot every AutosaveEvery years.
	Saver         Saver
	AutosaveEvery int

	pending *catalog.Event
	rng     entropy.Source
	spawner *character.Spawner
}

// NewSession creates a session with no active character.
func NewSession(cat *catalog.Catalog, rng entropy.Source) *Session {
	sp := character.NewSpawner(rng)
	sp.SetNames(cat.Names)
	return &Session{
		Catalog:       cat,
		Family:        family.NewGraph(),
		Clock:         time.Now,
		AutosaveEvery: 5,
		rng:           rng,
		spawner:       sp,
	}
}

// Start begins a new game with a fresh family graph. An empty name is
// drawn from the name tables.
func (s *Session) Start(name string, gender character.Gender, fam character.FamilyType) Turn {
	start := len(s.Events)
	talents := s.spawner.RollTalents(s.Catalog.Talents)
	if name == "" {
		name = s.spawner.GenerateName(gender)
	}

	c := s.spawner.Spawn(character.Params{
		Name:    name,
		Gender:  gender,
		Family:  fam,
		Talents: talents,
	})
	s.Character = c
	s.Family = family.NewGraph()
	s.Family.Register(c)
	s.pending = nil

	ev := Event{
		Age:         0,
		Title:       "欢迎来到这个世界",
		Description: fmt.Sprintf("你出生在了一个%s家庭，父母给你取名%s", fam, name),
		Category:    CategoryWelcome,
	}
	s.EmitEvent(ev)

	slog.Info("new life started", "name", c.Name, "gender", c.Gender, "family", c.FamilyType, "talents", len(c.Talents))
	return Turn{
		Age:      0,
		Present:  &Presentation{Title: ev.Title, Description: ev.Description},
		Before:   c.Attributes,
		After:    c.Attributes,
		Messages: s.since(start),
	}
}

// Pending returns the event awaiting a player choice, if any.
func (s *Session) Pending() *catalog.Event {
	return s.pending
}

// EmitEvent appends to the session event log.
func (s *Session) EmitEvent(e Event) {
	s.Events = append(s.Events, e)
}

func (s *Session) emit(c *character.Character, title, desc, category string) {
	s.EmitEvent(Event{Age: c.Age, Title: title, Description: desc, Category: category})
}

func (s *Session) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *Session) since(start int) []Event {
	if start > len(s.Events) {
		start = len(s.Events)
	}
	return append([]Event(nil), s.Events[start:]...)
}

// trimEvents drops old events so the log cannot grow without bound.
func (s *Session) trimEvents() {
	if len(s.Events) > maxEvents {
		s.Events = append([]Event(nil), s.Events[len(s.Events)-maxEvents:]...)
	}
}

// Presentation is the event the player sees for a turn.
type Presentation struct {
	EventID     string   `json:"event_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Choices     []string `json:"choices,omitempty"`
}

func present(ev *catalog.Event) *Presentation {
	p := &Presentation{EventID: ev.ID, Title: ev.Title, Description: ev.Description}
	for _, c := range ev.Choices {
		p.Choices = append(p.Choices, c.Text)
	}
	return p
}

// Turn is everything one step produced for the presentation layer.
type Turn struct {
	Age      int                  `json:"age"`
	Present  *Presentation        `json:"present,omitempty"` // Zero or one event
	Before   character.Attributes `json:"before"`
	After    character.Attributes `json:"after"`
	Messages []Event              `json:"messages,omitempty"`

	Died    bool             `json:"died,omitempty"`
	Summary *Summary         `json:"summary,omitempty"`
	Heirs   []*family.Member `json:"heirs,omitempty"`
}

// AwaitingChoice reports whether the turn ended on an interactive event.
func (t Turn) AwaitingChoice() bool {
	return t.Present != nil && len(t.Present.Choices) > 0
}

// Changes returns the non-zero attribute deltas of the turn.
func (t Turn) Changes() map[string]int {
	diffs := map[string]int{
		"iq":         t.After.IQ - t.Before.IQ,
		"eq":         t.After.EQ - t.Before.EQ,
		"health":     t.After.Health - t.Before.Health,
		"health_max": t.After.HealthMax - t.Before.HealthMax,
		"moral":      t.After.Moral - t.Before.Moral,
		"social":     t.After.Social - t.Before.Social,
		"money":      t.After.Money - t.Before.Money,
		"luck":       t.After.Luck - t.Before.Luck,
	}
	for k, v := range diffs {
		if v == 0 {
			delete(diffs, k)
		}
	}
	return diffs
}
