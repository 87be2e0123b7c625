// Yearly driver: career progress, mortality, event resolution, natural
// aging and achievements.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

const (
	mortalityOnsetAge = 60   // Death chance is zero below this age
	mortalityPerYear  = 0.02 // Added per year from 60
	mortalityMinAge   = 50   // The random death roll only counts above this age

	raiseEvery        = 5 // Career years between salary payouts
	socialDriftChance = 0.3
)

// DeathChance is the yearly random-death probability for an age.
func DeathChance(age int) float64 {
	if age < mortalityOnsetAge {
		return 0
	}
	return float64(age-(mortalityOnsetAge-1)) * mortalityPerYear
}

// AdvanceYear plays one year of the active character's life. It is a
// no-op for a missing or deceased character, and re-surfaces the pending
// event instead of advancing while a choice is outstanding. A character
// whose health is gone dies at its current age.
func (s *Session) AdvanceYear() Turn {
	c := s.Character
	if c == nil || c.Deceased {
		return Turn{}
	}
	if s.pending != nil {
		return Turn{Age: c.Age, Present: present(s.pending), Before: c.Attributes, After: c.Attributes}
	}

	s.trimEvents()
	return s.advance(c.Attributes, len(s.Events))
}

func (s *Session) advance(before character.Attributes, start int) Turn {
	c := s.Character
	turn := Turn{Before: before}

	switch {
	case !c.IsAlive():
		// Health ran out last year or in the choice just made. The life ends
		// at the current age with no further aging or pay.
		s.endLife(c, &turn)
	default:
		c.Age++
		s.progressCareer(c)
		if s.checkMortality(c) {
			s.endLife(c, &turn)
		} else {
			turn.Present = s.resolveYear(c)
			s.naturalAging(c)
			s.checkAchievements(c)
			s.autosave()
		}
	}

	turn.Age = c.Age
	turn.After = c.Attributes
	turn.Messages = s.since(start)
	slog.Debug("year advanced", "age", c.Age, "died", turn.Died, "pending", s.pending != nil)
	return turn
}

func (s *Session) endLife(c *character.Character, turn *Turn) {
	s.die(c)
	sum := s.Summarize()
	turn.Died = true
	turn.Summary = &sum
	turn.Heirs = s.Heirs()
	turn.Present = &Presentation{
		Title:       "人生终点",
		Description: fmt.Sprintf("%s在%d岁时离开了人世", c.Name, c.Age),
	}
}

func (s *Session) progressCareer(c *character.Character) {
	if !c.Employed() {
		return
	}
	c.CareerExp++
	if c.CareerExp%raiseEvery != 0 {
		return
	}
	if salary, ok := s.Catalog.Salary(c.Occupation); ok {
		c.Money += salary
		s.emit(c, "💼 职业发展", fmt.Sprintf("作为%s，你获得了%d元收入", c.Occupation, salary), CategoryCareer)
	}
}

// checkMortality draws the death roll every year so the random stream
// does not depend on age.
func (s *Session) checkMortality(c *character.Character) bool {
	if c.Age >= character.MaxAge {
		return true
	}
	roll := s.rng.Float64()
	return roll < DeathChance(c.Age) && c.Age > mortalityMinAge
}

func (s *Session) die(c *character.Character) {
	c.Deceased = true
	s.pending = nil
	s.Family.RecordDeath(c.ID, c.Age)
	slog.Info("character died", "id", c.ID, "name", c.Name, "age", c.Age, "children", len(c.Children))
	s.emit(c, "⚰️ 离世", fmt.Sprintf("%s享年%d岁", c.Name, c.Age), CategoryDeath)
}

// resolveYear picks the one event of the year: a stage event (interactive
// ones become pending), else an independent event, else an ordinary year.
func (s *Session) resolveYear(c *character.Character) *Presentation {
	if ev := s.SelectStageEvent(c); ev != nil {
		category := CategoryStage
		if _, ok := catalog.MilestoneFor(c.Age); ok {
			category = CategoryMilestone
		}
		if ev.HasChoices() {
			s.pending = ev
			s.emit(c, ev.Title, ev.Description, category)
			return present(ev)
		}
		ApplyEffect(c, ev.Effect, ev.LogText(), s.now())
		s.emit(c, ev.Title, ev.Description, category)
		return present(ev)
	}

	if ev := s.SelectIndependentEvent(c); ev != nil {
		ApplyEffect(c, ev.Effect, ev.LogText(), s.now())
		s.emit(c, ev.Title, ev.Description, CategoryRandom)
		return present(ev)
	}

	msg := s.ordinaryYear(c)
	s.emit(c, "平凡的一年", msg, CategoryOrdinary)
	return &Presentation{Title: "平凡的一年", Description: msg}
}

func (s *Session) ordinaryYear(c *character.Character) string {
	role := c.Stage().String()
	if c.Employed() {
		role = c.Occupation
	}
	switch s.rng.Intn(4) {
	case 0:
		return fmt.Sprintf("%d岁，%s的平凡一年", c.Age, role)
	case 1:
		return fmt.Sprintf("岁月如梭，%s迎来了%d岁生日", c.Name, c.Age)
	case 2:
		return fmt.Sprintf("%d岁，生活平淡但充实", c.Age)
	default:
		return fmt.Sprintf("%s的%d岁，没有特别的事情发生", c.Name, c.Age)
	}
}

// naturalAging wears health down after 30 and drifts the mental and social
// attributes, none of which go below zero.
func (s *Session) naturalAging(c *character.Character) {
	switch {
	case c.Age > 50:
		c.Health = max(0, c.Health-2)
	case c.Age > 30:
		c.Health = max(0, c.Health-1)
	}

	c.IQ = max(0, c.IQ+s.rng.Intn(3)-1)
	c.EQ = max(0, c.EQ+s.rng.Intn(3)-1)
	c.Moral = max(0, c.Moral+s.rng.Intn(3)-1)

	if s.rng.Float64() < socialDriftChance {
		c.Social = max(0, c.Social+s.rng.Intn(10)-5)
	}
}

func (s *Session) checkAchievements(c *character.Character) {
	for _, a := range s.Catalog.Achievements {
		if a.Predicate == nil || c.HasAchievement(a.ID) || !a.Predicate(c) {
			continue
		}
		c.UnlockAchievement(a.ID)
		slog.Info("achievement unlocked", "id", c.ID, "achievement", a.ID, "age", c.Age)
		s.emit(c, "🏆 解锁成就", fmt.Sprintf("你获得了成就：%s %s", a.Icon, a.ID), CategoryAchievement)
	}
}

func (s *Session) autosave() {
	if s.Saver == nil || s.AutosaveEvery <= 0 || s.Character.Age%s.AutosaveEvery != 0 {
		return
	}
	// Failures are logged and surfaced as a save event; play continues.
	_ = s.Save(context.Background())
}
