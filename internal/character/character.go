// Package character provides the per-life data model: attributes, relations,
// assets, talents, lineage pointers and the append-only life log.
package character

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxAge is the age at which a character is dead regardless of health.
const MaxAge = 100

// ID is a unique identifier for a character. IDs are stable across
// save/load and are the only way one character refers to another.
type ID string

// NewID returns a fresh random character ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Gender is a character's gender.
type Gender uint8

const (
	GenderMale Gender = iota
	GenderFemale
)

var genderLabels = [...]string{"男", "女"}

func (g Gender) String() string {
	if int(g) < len(genderLabels) {
		return genderLabels[g]
	}
	return fmt.Sprintf("Gender(%d)", uint8(g))
}

// Opposite returns the other recognized gender.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// ParseGender accepts the display label or an English alias.
func ParseGender(s string) (Gender, bool) {
	switch s {
	case "男", "male", "m", "M":
		return GenderMale, true
	case "女", "female", "f", "F":
		return GenderFemale, true
	}
	return 0, false
}

func (g Gender) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Gender) UnmarshalText(b []byte) error {
	v, ok := ParseGender(string(b))
	if !ok {
		return fmt.Errorf("unknown gender %q", b)
	}
	*g = v
	return nil
}

// FamilyType is the economic background a character is born into.
type FamilyType uint8

const (
	FamilyRich FamilyType = iota
	FamilyMiddle
	FamilyOrdinary
	FamilyPoor
)

var familyLabels = [...]string{"富裕", "中产", "普通", "贫困"}

func (f FamilyType) String() string {
	if int(f) < len(familyLabels) {
		return familyLabels[f]
	}
	return fmt.Sprintf("FamilyType(%d)", uint8(f))
}

// ParseFamilyType accepts the display label or an English alias.
func ParseFamilyType(s string) (FamilyType, bool) {
	switch s {
	case "富裕", "rich":
		return FamilyRich, true
	case "中产", "middle":
		return FamilyMiddle, true
	case "普通", "ordinary":
		return FamilyOrdinary, true
	case "贫困", "poor":
		return FamilyPoor, true
	}
	return 0, false
}

func (f FamilyType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FamilyType) UnmarshalText(b []byte) error {
	v, ok := ParseFamilyType(string(b))
	if !ok {
		return fmt.Errorf("unknown family type %q", b)
	}
	*f = v
	return nil
}

// Stage is a life phase derived purely from age.
type Stage uint8

const (
	StageInfancy Stage = iota
	StageChildhood
	StageAdolescence
	StageAdulthood
	StageOldAge
)

// Stages lists every stage in life order.
var Stages = []Stage{StageInfancy, StageChildhood, StageAdolescence, StageAdulthood, StageOldAge}

var stageLabels = [...]string{"婴儿期", "童年期", "青春期", "成年期", "老年期"}

func (s Stage) String() string {
	if int(s) < len(stageLabels) {
		return stageLabels[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// StageForAge maps an age to its life stage.
func StageForAge(age int) Stage {
	switch {
	case age < 3:
		return StageInfancy
	case age < 12:
		return StageChildhood
	case age < 18:
		return StageAdolescence
	case age < 60:
		return StageAdulthood
	default:
		return StageOldAge
	}
}

// ParseStage accepts the display label or an English alias.
func ParseStage(s string) (Stage, bool) {
	for i, label := range stageLabels {
		if s == label {
			return Stage(i), true
		}
	}
	switch s {
	case "infancy":
		return StageInfancy, true
	case "childhood":
		return StageChildhood, true
	case "adolescence":
		return StageAdolescence, true
	case "adulthood":
		return StageAdulthood, true
	case "old_age":
		return StageOldAge, true
	}
	return 0, false
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	v, ok := ParseStage(string(b))
	if !ok {
		return fmt.Errorf("unknown stage %q", b)
	}
	*s = v
	return nil
}

// Asset keys and the placeholder for "not owned".
const (
	AssetHouse = "house"
	AssetCar   = "car"
	AssetNone  = "无"
)

// RelationKind names a relation slot. Each kind holds one party.
type RelationKind string

const (
	RelationParent RelationKind = "父母"
	RelationSpouse RelationKind = "配偶"
	RelationInLaws RelationKind = "岳父母/公婆"
	RelationChild  RelationKind = "子女"
)

// Relation is the other party's name and an intimacy score (0-100).
type Relation struct {
	Name     string `json:"name"`
	Intimacy int    `json:"intimacy"`
}

// Spouse is a denormalized snapshot of a partner. Spouses are not
// simulated characters and have no Family Graph entry of their own.
type Spouse struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
	Age    int    `json:"age"`
}

// TalentEffect holds the one-time attribute deltas of a talent.
type TalentEffect struct {
	IQ     int `json:"iq,omitempty" yaml:"iq"`
	EQ     int `json:"eq,omitempty" yaml:"eq"`
	Health int `json:"health,omitempty" yaml:"health"` // added to HealthMax
	Moral  int `json:"moral,omitempty" yaml:"moral"`
	Luck   int `json:"luck,omitempty" yaml:"luck"`
}

// Talent is an innate trait applied once at creation.
type Talent struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Negative    bool         `json:"negative,omitempty" yaml:"negative"`
	Effect      TalentEffect `json:"effect" yaml:"effect"`
}

// Attributes is the numeric stat block of a character.
type Attributes struct {
	IQ        int `json:"iq"`
	EQ        int `json:"eq"`
	Health    int `json:"health"`     // 0..HealthMax
	HealthMax int `json:"health_max"`
	Moral     int `json:"moral"`
	Social    int `json:"social"`
	Money     int `json:"money"`
	Luck      int `json:"luck"`
}

// Character is the player-controlled life. It is mutated in place every
// simulated year and replaced, never copied, on inheritance.
type Character struct {
	ID         ID         `json:"id"`
	Name       string     `json:"name"`
	Gender     Gender     `json:"gender"`
	FamilyType FamilyType `json:"family_type"`
	Age        int        `json:"age"`

	Attributes
	MoneyRate float64 `json:"money_rate"` // Compounding income multiplier

	// Career
	Occupation string `json:"occupation"` // Empty when unemployed
	Education  string `json:"education"`
	CareerExp  int    `json:"career_exp"`

	Assets  map[string]string `json:"assets"`
	Talents []Talent          `json:"talents"`

	// Social
	Relations map[RelationKind]Relation `json:"relations"`
	Children  []ID                      `json:"children"`
	Spouse    *Spouse                   `json:"spouse,omitempty"`
	ParentID  ID                        `json:"parent_id,omitempty"` // Non-owning lineage pointer

	// History
	LifePath     []LifeEvent `json:"life_path"`
	Decisions    []Decision  `json:"decisions"`
	Achievements []string    `json:"achievements"`

	Deceased bool `json:"deceased"`
}

// Stage returns the life stage for the character's current age.
func (c *Character) Stage() Stage {
	return StageForAge(c.Age)
}

// IsAlive reports whether the character can still be advanced.
func (c *Character) IsAlive() bool {
	return !c.Deceased && c.Health > 0 && c.Age < MaxAge
}

// Employed reports whether the character holds an occupation.
func (c *Character) Employed() bool {
	return c.Occupation != ""
}

// AddRelation sets the party for a relation kind, replacing any previous one.
func (c *Character) AddRelation(kind RelationKind, name string, intimacy int) {
	if c.Relations == nil {
		c.Relations = make(map[RelationKind]Relation)
	}
	c.Relations[kind] = Relation{Name: name, Intimacy: intimacy}
}

// RemoveRelation clears a relation slot.
func (c *Character) RemoveRelation(kind RelationKind) {
	delete(c.Relations, kind)
}

// ClampHealth keeps Health within [0, HealthMax].
func (c *Character) ClampHealth() {
	if c.Health > c.HealthMax {
		c.Health = c.HealthMax
	}
	if c.Health < 0 {
		c.Health = 0
	}
}

// HasAchievement reports whether an achievement id is already unlocked.
func (c *Character) HasAchievement(id string) bool {
	for _, a := range c.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// UnlockAchievement records an achievement once. Returns false if it was
// already unlocked.
func (c *Character) UnlockAchievement(id string) bool {
	if c.HasAchievement(id) {
		return false
	}
	c.Achievements = append(c.Achievements, id)
	return true
}

// HasAsset reports whether the asset slot holds something other than the
// "not owned" placeholder.
func (c *Character) HasAsset(key string) bool {
	v, ok := c.Assets[key]
	return ok && v != "" && v != AssetNone
}
