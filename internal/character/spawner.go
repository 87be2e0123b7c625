// Character spawning: base stats, talents, family background and names.
package character

import (
	"strings"

	"github.com/talgya/lifesim/internal/entropy"
)

// Params describe a character to spawn.
type Params struct {
	Name    string
	Gender  Gender
	Family  FamilyType
	Parent  *Character // Nil for a first-generation character
	Talents []Talent
}

// Spawner creates characters from a shared random stream.
type Spawner struct {
	rng   entropy.Source
	names NameTable
}

// NewSpawner creates a spawner drawing from rng with the default name tables.
func NewSpawner(rng entropy.Source) *Spawner {
	return &Spawner{rng: rng, names: DefaultNames}
}

// SetNames replaces the name tables.
func (s *Spawner) SetNames(t NameTable) {
	if len(t.Surnames) == 0 || len(t.Male) == 0 || len(t.Female) == 0 {
		return
	}
	s.names = t
}

// Spawn creates a newborn character. Draw order is fixed: iq, eq, moral,
// then the family-background money roll.
func (s *Spawner) Spawn(p Params) *Character {
	c := &Character{
		ID:         NewID(),
		Name:       p.Name,
		Gender:     p.Gender,
		FamilyType: p.Family,
		Age:        0,
		Attributes: Attributes{
			IQ:        40 + s.rng.Intn(30),
			EQ:        40 + s.rng.Intn(30),
			Health:    100,
			HealthMax: 100,
			Moral:     40 + s.rng.Intn(30),
		},
		MoneyRate: 1,
		Education: "未入学",
		Assets: map[string]string{
			AssetHouse: AssetNone,
			AssetCar:   AssetNone,
		},
		Talents:      append([]Talent{}, p.Talents...),
		Relations:    make(map[RelationKind]Relation),
		Children:     []ID{},
		LifePath:     []LifeEvent{},
		Decisions:    []Decision{},
		Achievements: []string{},
	}

	c.applyTalents()
	s.applyFamilyBonus(c)

	if p.Parent != nil {
		c.ParentID = p.Parent.ID
		c.AddRelation(RelationParent, p.Parent.Name, 70)
	}
	return c
}

func (c *Character) applyTalents() {
	for _, t := range c.Talents {
		c.IQ += t.Effect.IQ
		c.EQ += t.Effect.EQ
		c.HealthMax += t.Effect.Health
		c.Moral += t.Effect.Moral
		c.Luck += t.Effect.Luck
	}
	c.Health = c.HealthMax
}

func (s *Spawner) applyFamilyBonus(c *Character) {
	switch c.FamilyType {
	case FamilyRich:
		c.Money = 500 + s.rng.Intn(500)
		c.EQ += 15
		c.Education = "贵族幼儿园"
	case FamilyMiddle:
		c.Money = 200 + s.rng.Intn(300)
		c.IQ += 5
		c.EQ += 5
		c.HealthMax += 5
	case FamilyOrdinary:
		c.Money = 50 + s.rng.Intn(150)
	case FamilyPoor:
		c.IQ += 15
		c.Moral += 10
		c.Money = s.rng.Intn(100)
	}
	c.Health = c.HealthMax
}

// RandomGender flips a fair coin.
func (s *Spawner) RandomGender() Gender {
	if s.rng.Float64() > 0.5 {
		return GenderMale
	}
	return GenderFemale
}

// GenerateName draws a surname and a given name for the gender.
func (s *Spawner) GenerateName(g Gender) string {
	given := s.names.Female
	if g == GenderMale {
		given = s.names.Male
	}
	surname := s.names.Surnames[s.rng.Intn(len(s.names.Surnames))]
	return surname + given[s.rng.Intn(len(given))]
}

// GenerateChildName keeps the parent's surname when it comes from the
// surname table and draws a fresh given name.
func (s *Spawner) GenerateChildName(g Gender, parentName string) string {
	surname := ""
	for _, sn := range s.names.Surnames {
		if strings.HasPrefix(parentName, sn) && len(sn) > len(surname) {
			surname = sn
		}
	}
	if surname == "" {
		return s.GenerateName(g)
	}
	given := s.names.Female
	if g == GenderMale {
		given = s.names.Male
	}
	return surname + given[s.rng.Intn(len(given))]
}

// RollTalents picks one positive talent and, 30% of the time, one negative.
func (s *Spawner) RollTalents(pool []Talent) []Talent {
	var positive, negative []Talent
	for _, t := range pool {
		if t.Negative {
			negative = append(negative, t)
		} else {
			positive = append(positive, t)
		}
	}

	picked := []Talent{}
	if len(positive) > 0 {
		picked = append(picked, positive[s.rng.Intn(len(positive))])
	}
	if s.rng.Float64() < 0.3 && len(negative) > 0 {
		picked = append(picked, negative[s.rng.Intn(len(negative))])
	}
	return picked
}
