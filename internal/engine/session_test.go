package engine

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

func newTestSession(t *testing.T, seed int64) *Session {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load content: %v", err)
	}
	s := NewSession(cat, rand.New(rand.NewSource(seed)))
	s.Clock = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return s
}

func startTestLife(t *testing.T, seed int64) *Session {
	t.Helper()
	s := newTestSession(t, seed)
	s.Start("", character.GenderFemale, character.FamilyOrdinary)
	return s
}

// play advances one step, resolving a pending event with its first choice.
func play(s *Session) Turn {
	if s.Pending() != nil {
		turn, _ := s.Choose(0)
		return turn
	}
	return s.AdvanceYear()
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestStartCreatesRegisteredCharacter(t *testing.T) {
	s := newTestSession(t, 1)
	turn := s.Start("", character.GenderMale, character.FamilyRich)

	c := s.Character
	if c == nil || c.Name == "" {
		t.Fatal("expected a named character")
	}
	if c.Age != 0 || c.Deceased {
		t.Fatalf("expected a living newborn, got age %d deceased %v", c.Age, c.Deceased)
	}
	if c.Money < 500 || c.Money >= 1000 {
		t.Fatalf("expected rich money in [500,1000), got %d", c.Money)
	}
	if s.Family.Len() != 1 || s.Family.Get(c.ID) == nil {
		t.Fatal("expected character registered in family graph")
	}
	if len(c.Talents) == 0 {
		t.Fatal("expected at least one talent")
	}
	if turn.Present == nil || len(turn.Messages) != 1 || turn.Messages[0].Category != CategoryWelcome {
		t.Fatalf("expected welcome event, got %+v", turn.Messages)
	}
}

func TestStartResetsFamily(t *testing.T) {
	s := startTestLife(t, 2)
	first := s.Character.ID
	s.Start("李雷", character.GenderMale, character.FamilyPoor)
	if s.Family.Get(first) != nil {
		t.Fatal("expected a new game to start a fresh family graph")
	}
	if s.Character.Name != "李雷" {
		t.Fatalf("expected given name to be kept, got %s", s.Character.Name)
	}
}

func TestTurnChanges(t *testing.T) {
	turn := Turn{
		Before: character.Attributes{IQ: 50, Money: 100},
		After:  character.Attributes{IQ: 52, Money: 100, Social: -3},
	}
	got := turn.Changes()
	if len(got) != 2 || got["iq"] != 2 || got["social"] != -3 {
		t.Fatalf("unexpected changes: %v", got)
	}
}
