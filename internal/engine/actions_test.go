package engine

import (
	"testing"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

func TestApplyEffect(t *testing.T) {
	c := &character.Character{
		Attributes: character.Attributes{Health: 90, HealthMax: 100, Money: 10},
		MoneyRate:  1,
		Assets:     map[string]string{character.AssetHouse: character.AssetNone, character.AssetCar: "旧车"},
	}
	now := time.UnixMilli(1)

	ApplyEffect(c, &catalog.Effect{Health: 30, Money: -50, MoneyRate: 1.5, Assets: map[string]string{character.AssetHouse: "小公寓"}}, "a", now)
	if c.Health != 100 {
		t.Fatalf("expected health clamped to 100, got %d", c.Health)
	}
	if c.Money != -40 {
		t.Fatalf("expected money -40, got %d", c.Money)
	}
	if c.Assets[character.AssetHouse] != "小公寓" || c.Assets[character.AssetCar] != "旧车" {
		t.Fatalf("expected shallow merge of assets, got %v", c.Assets)
	}

	ApplyEffect(c, &catalog.Effect{Health: -500, MoneyRate: 2, Occupation: "教师"}, "b", now)
	if c.Health != 0 {
		t.Fatalf("expected health clamped to 0, got %d", c.Health)
	}
	if c.MoneyRate != 3 {
		t.Fatalf("expected compounding money rate 3, got %v", c.MoneyRate)
	}
	if c.Occupation != "教师" {
		t.Fatalf("expected occupation overwrite, got %q", c.Occupation)
	}
	if len(c.LifePath) != 2 || c.LifePath[1].Description != "b" {
		t.Fatalf("expected one log entry per application, got %+v", c.LifePath)
	}

	if ApplyEffect(c, nil, "c", now) {
		t.Fatal("expected nil effect to report no change")
	}
	if len(c.LifePath) != 2 {
		t.Fatal("expected nil effect not to log")
	}
}

func TestResolveChoiceRecordsDecision(t *testing.T) {
	s := startTestLife(t, 3)
	s.AdvanceYear()
	ev := s.Pending()
	if ev == nil {
		t.Fatal("expected pending milestone at age 1")
	}

	turn, ok := s.Choose(1)
	if !ok {
		t.Fatal("expected valid choice")
	}
	c := s.Character
	if turn.Age != 2 || c.Age != 2 {
		t.Fatalf("expected choice to advance to age 2, got %d", c.Age)
	}
	if len(c.Decisions) != 1 || c.Decisions[0].Event != ev.Title || c.Decisions[0].Choice != ev.Choices[1].Text {
		t.Fatalf("unexpected decisions: %+v", c.Decisions)
	}
	if len(c.EventsAt(1)) == 0 {
		t.Fatal("expected life-log entry at age 1")
	}
}

func TestInvalidChoiceIsNoop(t *testing.T) {
	s := startTestLife(t, 4)
	s.AdvanceYear()
	before := mustJSON(t, s.Character)
	events := len(s.Events)

	for _, idx := range []int{-1, 99} {
		if _, ok := s.Choose(idx); ok {
			t.Fatalf("expected choice %d to be rejected", idx)
		}
	}
	if after := mustJSON(t, s.Character); after != before {
		t.Fatal("expected invalid choice to leave the character untouched")
	}
	if len(s.Events) != events || s.Pending() == nil {
		t.Fatal("expected pending event and log unchanged")
	}

	turn := s.AdvanceYear()
	if turn.Age != 1 || turn.Present == nil || turn.Present.EventID != "zhua_zhou" {
		t.Fatalf("expected advance to re-surface the pending event, got %+v", turn)
	}
}

func TestChooseWithoutPending(t *testing.T) {
	s := startTestLife(t, 5)
	if _, ok := s.Choose(0); ok {
		t.Fatal("expected no-op without a pending event")
	}
}

func TestBuyHouseAndCar(t *testing.T) {
	s := startTestLife(t, 6)
	c := s.Character
	c.Money = 100
	c.Assets[character.AssetHouse] = "老房子"

	s.applyAction(c, catalog.ActionBuyHouse)
	if c.Money != -200 {
		t.Fatalf("expected money -200, got %d", c.Money)
	}
	if c.Assets[character.AssetHouse] != "一套房产" {
		t.Fatalf("expected house replaced, got %q", c.Assets[character.AssetHouse])
	}

	social := c.Social
	s.applyAction(c, catalog.ActionBuyCar)
	if c.Money != -350 || c.Social != social+5 || !c.HasAsset(character.AssetCar) {
		t.Fatalf("unexpected state after car: money %d social %d assets %v", c.Money, c.Social, c.Assets)
	}
}

func TestHaveChildTwice(t *testing.T) {
	s := startTestLife(t, 7)
	c := s.Character
	c.Age = 30
	money := c.Money

	s.applyAction(c, catalog.ActionHaveChild)
	s.applyAction(c, catalog.ActionHaveChild)

	if len(c.Children) != 2 || c.Children[0] == c.Children[1] {
		t.Fatalf("expected two distinct children, got %v", c.Children)
	}
	if c.Money != money-300 {
		t.Fatalf("expected money %d, got %d", money-300, c.Money)
	}
	for _, id := range c.Children {
		m := s.Family.Get(id)
		if m == nil {
			t.Fatalf("child %s missing from family graph", id)
		}
		if m.ParentID != c.ID {
			t.Fatalf("expected parent %s, got %s", c.ID, m.ParentID)
		}
		if m.FamilyType != character.FamilyOrdinary {
			t.Fatalf("expected ordinary family, got %v", m.FamilyType)
		}
	}
	if got := s.Family.Get(c.ID).Children; len(got) != 2 {
		t.Fatalf("expected parent graph entry to list 2 children, got %v", got)
	}
	if _, ok := c.Relations[character.RelationChild]; !ok {
		t.Fatal("expected child relation")
	}
}

func TestDivorceWithoutSpouseIsNoop(t *testing.T) {
	s := startTestLife(t, 8)
	before := mustJSON(t, s.Character)
	events := len(s.Events)

	if s.applyAction(s.Character, catalog.ActionDivorce) {
		t.Fatal("expected divorce without spouse to report no change")
	}
	if after := mustJSON(t, s.Character); after != before {
		t.Fatal("expected character unchanged")
	}
	if len(s.Events) != events {
		t.Fatal("expected no event emitted")
	}
}

func TestMarryThenDivorce(t *testing.T) {
	s := startTestLife(t, 9)
	c := s.Character
	c.Age = 30
	c.Money = 1000
	c.Social = 20

	s.applyAction(c, catalog.ActionMarry)
	if c.Spouse == nil {
		t.Fatal("expected spouse")
	}
	if c.Spouse.Gender != c.Gender.Opposite() {
		t.Fatalf("expected opposite gender spouse, got %v", c.Spouse.Gender)
	}
	if c.Spouse.Age < 28 || c.Spouse.Age > 32 {
		t.Fatalf("expected spouse age in [28,32], got %d", c.Spouse.Age)
	}
	if c.Money != 900 {
		t.Fatalf("expected money 900, got %d", c.Money)
	}
	if r := c.Relations[character.RelationSpouse]; r.Name != c.Spouse.Name || r.Intimacy != 80 {
		t.Fatalf("unexpected spouse relation %+v", r)
	}
	if r := c.Relations[character.RelationInLaws]; r.Intimacy != 40 {
		t.Fatalf("unexpected in-law relation %+v", r)
	}
	if s.Family.Get(c.ID).Spouse != c.Spouse.Name {
		t.Fatal("expected spouse recorded in family graph")
	}

	name := c.Spouse.Name
	s.applyAction(c, catalog.ActionDivorce)
	if c.Spouse != nil {
		t.Fatal("expected spouse cleared")
	}
	if _, ok := c.Relations[character.RelationSpouse]; ok {
		t.Fatal("expected spouse relation removed")
	}
	if c.Money != 630 || c.Social != 10 {
		t.Fatalf("expected money 630 social 10, got %d %d", c.Money, c.Social)
	}
	last := c.LifePath[len(c.LifePath)-1]
	if last.Description != "与"+name+"离婚" {
		t.Fatalf("unexpected divorce log %q", last.Description)
	}
	if s.Family.Get(c.ID).Spouse != "" {
		t.Fatal("expected graph spouse cleared")
	}
}

func TestDivorceFloorsDebt(t *testing.T) {
	s := startTestLife(t, 10)
	c := s.Character
	c.Spouse = &character.Spouse{Name: "王芳", Gender: character.GenderFemale, Age: 30}
	c.Money = -15

	s.applyAction(c, catalog.ActionDivorce)
	if c.Money != -11 {
		t.Fatalf("expected floor(-10.5) = -11, got %d", c.Money)
	}
}
