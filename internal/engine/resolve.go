// Effect application and choice resolution.
package engine

import (
	"fmt"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

// ApplyEffect patches the character with a sparse effect and writes one
// life-log entry. A nil effect changes nothing and logs nothing.
func ApplyEffect(c *character.Character, eff *catalog.Effect, text string, now time.Time) bool {
	if eff == nil {
		return false
	}

	c.IQ += eff.IQ
	c.EQ += eff.EQ
	c.Moral += eff.Moral
	c.Social += eff.Social
	c.Money += eff.Money
	c.Health += eff.Health
	c.ClampHealth()

	if eff.MoneyRate != 0 {
		if c.MoneyRate == 0 {
			c.MoneyRate = 1
		}
		c.MoneyRate *= eff.MoneyRate
	}
	if eff.Occupation != "" {
		c.Occupation = eff.Occupation
	}
	if eff.Education != "" {
		c.Education = eff.Education
	}
	if len(eff.Assets) > 0 && c.Assets == nil {
		c.Assets = make(map[string]string, len(eff.Assets))
	}
	for k, v := range eff.Assets {
		c.Assets[k] = v
	}

	c.AddLifeEvent(text, now)
	return true
}

// ResolveChoice applies the chosen option of ev to c: its effect, a
// decision record and its life-transition action. An out-of-range index
// is a no-op.
func (s *Session) ResolveChoice(c *character.Character, ev *catalog.Event, idx int) bool {
	if ev == nil || idx < 0 || idx >= len(ev.Choices) {
		return false
	}
	choice := ev.Choices[idx]
	now := s.now()

	ApplyEffect(c, choice.Effect, choice.LogText(), now)
	c.AddDecision(ev.Title, choice.Text, now)
	s.applyAction(c, choice.Action)

	s.emit(c, ev.Title, fmt.Sprintf("你选择了：%s", choice.Text), CategoryChoice)
	return true
}

// Choose resolves the pending event and immediately advances a year. It
// returns false without touching state when nothing is pending or the
// index is out of range.
func (s *Session) Choose(idx int) (Turn, bool) {
	ev := s.pending
	if s.Character == nil || ev == nil || idx < 0 || idx >= len(ev.Choices) {
		return Turn{}, false
	}

	s.trimEvents()
	start := len(s.Events)
	before := s.Character.Attributes

	s.ResolveChoice(s.Character, ev, idx)
	s.pending = nil

	// A choice that drops health to zero ends the life at the current age.
	return s.advance(before, start), true
}
