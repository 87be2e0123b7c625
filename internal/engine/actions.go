// Life-transition actions triggered by choices: marriage, children,
// divorce and purchases.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

const (
	weddingCost = 100
	childCost   = 150
	houseCost   = 300
	carCost     = 150

	spouseIntimacy = 80
	inLawIntimacy  = 40
	childIntimacy  = 90

	divorceSocialPenalty = 10
	divorceKeepRatio     = 0.7

	houseSocialBonus = 10
	carSocialBonus   = 5
)

// applyAction dispatches a choice action. Returns false when the action
// did nothing.
func (s *Session) applyAction(c *character.Character, a catalog.Action) bool {
	switch a {
	case catalog.ActionNone:
		return false
	case catalog.ActionMarry:
		s.marry(c)
	case catalog.ActionHaveChild:
		s.haveChild(c)
	case catalog.ActionDivorce:
		return s.divorce(c)
	case catalog.ActionBuyHouse:
		s.buyHouse(c)
	case catalog.ActionBuyCar:
		s.buyCar(c)
	default:
		slog.Warn("unhandled action", "action", a)
		return false
	}
	return true
}

// marry synthesizes a spouse of the opposite gender within two years of
// the character's age.
func (s *Session) marry(c *character.Character) {
	g := c.Gender.Opposite()
	spouse := &character.Spouse{
		Name:   s.spawner.GenerateName(g),
		Gender: g,
		Age:    c.Age - 2 + s.rng.Intn(5),
	}
	c.Spouse = spouse
	c.AddRelation(character.RelationSpouse, spouse.Name, spouseIntimacy)
	c.AddRelation(character.RelationInLaws, "未知", inLawIntimacy)
	c.Money -= weddingCost
	s.Family.SetSpouse(c.ID, spouse.Name)

	s.emit(c, "💒 结婚", fmt.Sprintf("你与%s结为夫妻", spouse.Name), CategoryMarriage)
}

// haveChild creates an ordinary-family child with no talents and links it
// into the family graph.
func (s *Session) haveChild(c *character.Character) *character.Character {
	g := s.spawner.RandomGender()
	child := s.spawner.Spawn(character.Params{
		Name:   s.spawner.GenerateChildName(g, c.Name),
		Gender: g,
		Family: character.FamilyOrdinary,
		Parent: c,
	})

	s.Family.Register(child)
	s.Family.AddChild(c.ID, child.ID)
	c.Children = append(c.Children, child.ID)
	c.AddRelation(character.RelationChild, child.Name, childIntimacy)
	c.Money -= childCost

	slog.Debug("child born", "parent", c.ID, "child", child.ID, "gender", g)
	s.emit(c, "👶 添丁", fmt.Sprintf("你有了一个%s孩，取名%s", g, child.Name), CategoryBirth)
	return child
}

// divorce is a no-op without a spouse.
func (s *Session) divorce(c *character.Character) bool {
	if c.Spouse == nil {
		return false
	}
	name := c.Spouse.Name
	c.AddLifeEvent(fmt.Sprintf("与%s离婚", name), s.now())
	c.Spouse = nil
	c.RemoveRelation(character.RelationSpouse)
	c.Social -= divorceSocialPenalty
	c.Money = int(math.Floor(float64(c.Money) * divorceKeepRatio))
	s.Family.SetSpouse(c.ID, "")

	s.emit(c, "💔 离婚", fmt.Sprintf("你与%s离婚了", name), CategoryDivorce)
	return true
}

func (s *Session) buyHouse(c *character.Character) {
	ensureAssets(c)
	c.Assets[character.AssetHouse] = "一套房产"
	c.Money -= houseCost
	c.Social += houseSocialBonus
	c.AddLifeEvent("购买了一套房产", s.now())
	s.emit(c, "🏠 购房", "购买了一套房产", CategoryPurchase)
}

func (s *Session) buyCar(c *character.Character) {
	ensureAssets(c)
	c.Assets[character.AssetCar] = "一辆汽车"
	c.Money -= carCost
	c.Social += carSocialBonus
	c.AddLifeEvent("购买了一辆汽车", s.now())
	s.emit(c, "🚗 购车", "购买了一辆汽车", CategoryPurchase)
}

func ensureAssets(c *character.Character) {
	if c.Assets == nil {
		c.Assets = make(map[string]string)
	}
}
