package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

// Summary is the end-of-life report for a character.
type Summary struct {
	Name         string                `json:"name"`
	Gender       character.Gender      `json:"gender"`
	Age          int                   `json:"age"`
	Generation   int                   `json:"generation"`
	Occupation   string                `json:"occupation"`
	Education    string                `json:"education"`
	Estate       int                   `json:"estate"`
	House        string                `json:"house"`
	Car          string                `json:"car"`
	Children     int                   `json:"children"`
	Spouse       string                `json:"spouse,omitempty"`
	Decisions    int                   `json:"decisions"`
	Achievements []catalog.Achievement `json:"-"`
}

// Summarize reports on the active character. Achievements are every
// predicate the final state satisfies, unlocked or not.
func (s *Session) Summarize() Summary {
	c := s.Character
	if c == nil {
		return Summary{}
	}
	sum := Summary{
		Name:         c.Name,
		Gender:       c.Gender,
		Age:          c.Age,
		Generation:   len(s.Family.Ancestors(c.ID)) + 1,
		Occupation:   c.Occupation,
		Education:    c.Education,
		Estate:       c.Money,
		House:        assetOr(c, character.AssetHouse),
		Car:          assetOr(c, character.AssetCar),
		Children:     len(c.Children),
		Decisions:    len(c.Decisions),
		Achievements: catalog.Satisfied(s.Catalog.Achievements, c),
	}
	if sum.Occupation == "" {
		sum.Occupation = "无业"
	}
	if c.Spouse != nil {
		sum.Spouse = c.Spouse.Name
	}
	return sum
}

func (sm Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s（%s，第%d代）享年%d岁\n", sm.Name, sm.Gender, sm.Generation, sm.Age)
	fmt.Fprintf(&b, "职业：%s  学历：%s\n", sm.Occupation, sm.Education)
	fmt.Fprintf(&b, "遗产：%s元  房产：%s  车辆：%s\n", humanize.Comma(int64(sm.Estate)), sm.House, sm.Car)
	if sm.Spouse != "" {
		fmt.Fprintf(&b, "配偶：%s  ", sm.Spouse)
	}
	fmt.Fprintf(&b, "子女：%d  人生抉择：%d次\n", sm.Children, sm.Decisions)
	if len(sm.Achievements) == 0 {
		b.WriteString("成就：无")
		return b.String()
	}
	b.WriteString("成就：")
	for i, a := range sm.Achievements {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(a.Icon + a.ID)
	}
	return b.String()
}

func assetOr(c *character.Character, key string) string {
	if v, ok := c.Assets[key]; ok && v != "" {
		return v
	}
	return character.AssetNone
}
