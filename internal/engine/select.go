// Event selection: milestones, stage pools and independent random pools.
package engine

import (
	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/entropy"
)

const (
	stageEventChance = 0.6 // Chance a non-milestone year draws from the stage pool
	randomBaseChance = 0.3 // Independent-event acceptance before luck
)

// SelectStageEvent returns the milestone event for the character's exact
// age, or otherwise a weighted draw from its stage pool 60% of the time.
func (s *Session) SelectStageEvent(c *character.Character) *catalog.Event {
	if id, ok := catalog.MilestoneFor(c.Age); ok {
		ev, found := s.Catalog.EventByID(id)
		if !found {
			return nil
		}
		return ev
	}

	pool := s.Catalog.StagePool(c.Stage())
	if len(pool) == 0 || s.rng.Float64() >= stageEventChance {
		return nil
	}
	ev, _ := weightedDraw(pool, s.rng)
	return ev
}

// SelectIndependentEvent accepts with probability 0.3 + luck/100 (not
// clamped), then draws from one uniformly chosen category. A draw that
// runs off the end of the pool falls back to its first event.
func (s *Session) SelectIndependentEvent(c *character.Character) *catalog.Event {
	accept := randomBaseChance + float64(c.Luck)/100
	if s.rng.Float64() > accept {
		return nil
	}

	cats := s.Catalog.Categories()
	if len(cats) == 0 {
		return nil
	}
	pool := cats[s.rng.Intn(len(cats))].Events
	if len(pool) == 0 {
		return nil
	}
	if ev, ok := weightedDraw(pool, s.rng); ok {
		return ev
	}
	return &pool[0]
}

// weightedDraw picks from pool by running subtraction: draw r in
// [0, total) and take the first entry where r drops to <= 0.
func weightedDraw(pool []catalog.Event, rng entropy.Source) (*catalog.Event, bool) {
	total := 0.0
	for _, e := range pool {
		total += e.Weight
	}
	r := rng.Float64() * total
	for i := range pool {
		r -= pool[i].Weight
		if r <= 0 {
			return &pool[i], true
		}
	}
	return nil, false
}
