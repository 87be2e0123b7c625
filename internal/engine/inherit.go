package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/family"
)

const (
	inheritedTalents = 2
	inheritFloor     = 30  // Minimum inherited iq and eq
	inheritShare     = 0.4 // Share of the parent's iq and eq passed on
	inheritSpread    = 40  // Width of the random top-up
)

// Heirs lists the living children of the deceased active character.
func (s *Session) Heirs() []*family.Member {
	c := s.Character
	if c == nil || !c.Deceased {
		return nil
	}
	return s.Family.LivingChildren(c.ID)
}

// Inherit continues the game as one of the deceased character's living
// children. The heir keeps its graph identity, restarts at age 0 and takes
// an equal share of the estate split over all children, living or not.
func (s *Session) Inherit(childID character.ID) (Turn, bool) {
	old := s.Character
	if old == nil || !old.Deceased || !hasChild(old, childID) {
		return Turn{}, false
	}
	m := s.Family.Get(childID)
	if m == nil || m.Dead() {
		return Turn{}, false
	}

	start := len(s.Events)
	talents := old.Talents
	if len(talents) > inheritedTalents {
		talents = talents[:inheritedTalents]
	}

	heir := s.spawner.Spawn(character.Params{
		Name:    m.Name,
		Gender:  m.Gender,
		Family:  m.FamilyType,
		Parent:  old,
		Talents: talents,
	})
	heir.ID = m.ID
	heir.IQ = s.inheritTrait(old.IQ)
	heir.EQ = s.inheritTrait(old.EQ)
	heir.Money = floorDiv(old.Money, max(1, len(old.Children)))
	heir.Health = heir.HealthMax

	s.Character = heir
	s.pending = nil

	slog.Info("inheritance", "from", old.ID, "to", heir.ID, "money", heir.Money)
	ev := Event{
		Age:         0,
		Title:       "继承人生",
		Description: fmt.Sprintf("你继承了%s的遗产，成为了%s", old.Name, heir.Name),
		Category:    CategoryInheritance,
	}
	s.EmitEvent(ev)

	return Turn{
		Age:      0,
		Present:  &Presentation{Title: ev.Title, Description: ev.Description},
		Before:   heir.Attributes,
		After:    heir.Attributes,
		Messages: s.since(start),
	}, true
}

func (s *Session) inheritTrait(parent int) int {
	v := int(math.Floor(float64(parent)*inheritShare + s.rng.Float64()*inheritSpread))
	return max(inheritFloor, v)
}

func hasChild(c *character.Character, id character.ID) bool {
	for _, ch := range c.Children {
		if ch == id {
			return true
		}
	}
	return false
}

// floorDiv rounds toward negative infinity, so debts split downward.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
