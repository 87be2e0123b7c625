package catalog

import (
	"github.com/talgya/lifesim/internal/character"
)

// Achievement is an unlockable badge with a predicate over character state.
type Achievement struct {
	ID        string
	Icon      string
	Predicate func(c *character.Character) bool
}

// DefaultAchievements is checked in order every simulated year.
var DefaultAchievements = []Achievement{
	{ID: "学霸", Icon: "📚", Predicate: func(c *character.Character) bool { return c.IQ >= 150 }},
	{ID: "情商达人", Icon: "💬", Predicate: func(c *character.Character) bool { return c.EQ >= 150 }},
	{ID: "道德楷模", Icon: "😇", Predicate: func(c *character.Character) bool { return c.Moral >= 150 }},
	{ID: "小有积蓄", Icon: "💰", Predicate: func(c *character.Character) bool { return c.Money >= 1000 }},
	{ID: "百万富翁", Icon: "🤑", Predicate: func(c *character.Character) bool { return c.Money >= 10000 }},
	{ID: "社交达人", Icon: "🤝", Predicate: func(c *character.Character) bool { return c.Social >= 100 }},
	{ID: "有房有车", Icon: "🏠", Predicate: func(c *character.Character) bool {
		return c.HasAsset(character.AssetHouse) && c.HasAsset(character.AssetCar)
	}},
	{ID: "成家立业", Icon: "💍", Predicate: func(c *character.Character) bool { return c.Spouse != nil && c.Employed() }},
	{ID: "子孙满堂", Icon: "👨‍👩‍👧‍👦", Predicate: func(c *character.Character) bool { return len(c.Children) >= 3 }},
	{ID: "长命百岁", Icon: "🎂", Predicate: func(c *character.Character) bool { return c.Age >= 90 }},
	{ID: "天选之人", Icon: "🍀", Predicate: func(c *character.Character) bool { return c.Luck >= 20 }},
}

// Satisfied returns the achievements whose predicates hold right now,
// regardless of whether they were unlocked.
func Satisfied(table []Achievement, c *character.Character) []Achievement {
	var out []Achievement
	for _, a := range table {
		if a.Predicate != nil && a.Predicate(c) {
			out = append(out, a)
		}
	}
	return out
}
