package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/lifesim/internal/character"
)

func TestDefaultContentLoads(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("load default content: %v", err)
	}

	for _, m := range Milestones {
		e, ok := cat.Milestone(m.Age)
		if !ok {
			t.Fatalf("milestone at age %d (%s) missing", m.Age, m.EventID)
		}
		if e.ID != m.EventID {
			t.Fatalf("expected milestone id %s, got %s", m.EventID, e.ID)
		}
		if !e.HasChoices() {
			t.Fatalf("milestone %s has no choices", e.ID)
		}
	}

	for _, stage := range character.Stages {
		if len(cat.StagePool(stage)) == 0 {
			t.Fatalf("stage %v has no pool", stage)
		}
	}
	if len(cat.Categories()) == 0 {
		t.Fatal("expected random categories")
	}
	if len(cat.Talents) == 0 {
		t.Fatal("expected talents")
	}
	if len(cat.Achievements) == 0 {
		t.Fatal("expected achievements")
	}
}

func TestDefaultContentCarriesEveryAction(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("load default content: %v", err)
	}
	seen := make(map[Action]bool)
	collect := func(events []Event) {
		for _, e := range events {
			for _, c := range e.Choices {
				seen[c.Action] = true
			}
		}
	}
	for _, m := range Milestones {
		e, _ := cat.EventByID(m.EventID)
		collect([]Event{*e})
	}
	for _, stage := range character.Stages {
		collect(cat.StagePool(stage))
	}
	for _, a := range []Action{ActionMarry, ActionHaveChild, ActionDivorce, ActionBuyHouse, ActionBuyCar} {
		if !seen[a] {
			t.Fatalf("no content triggers action %v", a)
		}
	}
}

func TestMilestoneIsExactMatch(t *testing.T) {
	for _, age := range []int{0, 2, 4, 17, 19, 31, 59, 61} {
		if id, ok := MilestoneFor(age); ok {
			t.Fatalf("age %d unexpectedly matched milestone %s", age, id)
		}
	}
	if id, ok := MilestoneFor(1); !ok || id != "zhua_zhou" {
		t.Fatalf("expected zhua_zhou at age 1, got %q", id)
	}
}

func TestSalaryLookup(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("load default content: %v", err)
	}
	if got, ok := cat.Salary("程序员"); !ok || got != 300 {
		t.Fatalf("expected 程序员 salary 300, got %d (%v)", got, ok)
	}
	if _, ok := cat.Salary("宇航员"); ok {
		t.Fatal("expected unknown occupation to miss")
	}
}

func TestLoadRejectsBadContent(t *testing.T) {
	cases := map[string]string{
		"zero weight": `
stages:
  婴儿期:
    - title: a
      weight: 0
`,
		"unknown stage": `
stages:
  中年期:
    - title: a
      weight: 1
`,
		"empty category": `
random:
  - category: 健康
    events: []
`,
		"unknown field": `
careers:
  - { name: 工人, salary: 1 }
`,
	}
	for name, doc := range cases {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsUnknownAction(t *testing.T) {
	doc := `
milestones:
  zhua_zhou:
    title: 抓周
    choices:
      - text: x
        action: fly
`
	_, err := Load(strings.NewReader(doc))
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMissingMilestoneYieldsNoEvent(t *testing.T) {
	cat, err := Load(strings.NewReader("careers: []\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cat.Milestone(1); ok {
		t.Fatal("expected no milestone event in empty content")
	}
	if len(cat.StagePool(character.StageAdulthood)) != 0 {
		t.Fatal("expected empty pool")
	}
	if cat.Names.Surnames == nil {
		t.Fatal("expected default names when content omits them")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	doc := `
random:
  - category: 财运
    events:
      - title: 年终奖
        weight: 2
        effect: { money: 200, assets: { house: 小公寓 } }
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	cats := cat.Categories()
	if len(cats) != 1 || cats[0].Events[0].Effect.Money != 200 {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	if cats[0].Events[0].Effect.Assets["house"] != "小公寓" {
		t.Fatalf("unexpected assets: %+v", cats[0].Events[0].Effect.Assets)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestActionText(t *testing.T) {
	for _, a := range []Action{ActionNone, ActionMarry, ActionHaveChild, ActionDivorce, ActionBuyHouse, ActionBuyCar} {
		b, err := a.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", a, err)
		}
		var back Action
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %q: %v", b, err)
		}
		if back != a {
			t.Fatalf("expected %v, got %v", a, back)
		}
	}
}

func TestSatisfied(t *testing.T) {
	c := &character.Character{Age: 95}
	c.IQ = 160
	got := Satisfied(DefaultAchievements, c)
	ids := make(map[string]bool)
	for _, a := range got {
		ids[a.ID] = true
	}
	if !ids["学霸"] || !ids["长命百岁"] || ids["百万富翁"] {
		t.Fatalf("unexpected satisfied set: %v", ids)
	}
}
