package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
)

func TestRunnerPlaysToDeath(t *testing.T) {
	s := startTestLife(t, 41)
	turns := 0
	var last Turn
	r := &Runner{
		Session: s,
		Chooser: RandomChooser(rand.New(rand.NewSource(41))),
		OnTurn: func(turn Turn) {
			turns++
			last = turn
		},
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !s.Character.Deceased || !last.Died {
		t.Fatal("expected the runner to stop at death")
	}
	want := s.Character.Age
	if s.Character.Health <= 0 {
		want++ // the final turn ends the life without aging
	}
	if turns != want {
		t.Fatalf("expected %d turns for age %d, got %d", want, s.Character.Age, turns)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	s := startTestLife(t, 42)
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		Session:  s,
		Interval: time.Hour,
		OnTurn:   func(Turn) { cancel() },
	}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.Character.Age != 1 {
		t.Fatalf("expected one year played, got %d", s.Character.Age)
	}
}

func TestRunnerFallsBackToFirstChoice(t *testing.T) {
	s := startTestLife(t, 43)
	s.AdvanceYear()
	r := &Runner{Session: s, Chooser: func(*catalog.Event) int { return 42 }}
	turn := r.step()
	if turn.Age != 2 || len(s.Character.Decisions) != 1 {
		t.Fatalf("expected first choice taken, got age %d", turn.Age)
	}
}

func TestRunnerWithoutCharacter(t *testing.T) {
	r := &Runner{Session: newTestSession(t, 1)}
	if err := r.Run(context.Background()); !errors.Is(err, ErrNoCharacter) {
		t.Fatalf("expected ErrNoCharacter, got %v", err)
	}
}

func TestSummaryString(t *testing.T) {
	s := startTestLife(t, 44)
	c := s.Character
	c.Money = 12345
	c.Age = 95
	c.Occupation = ""
	c.Gender = character.GenderMale

	sum := s.Summarize()
	if sum.Generation != 1 || sum.Occupation != "无业" {
		t.Fatalf("unexpected summary %+v", sum)
	}
	out := sum.String()
	for _, want := range []string{"12,345元", "享年95岁", "长命百岁", "第1代"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}
