package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/entropy"
)

// Runner plays a life unattended, one year per interval.
type Runner struct {
	Session  *Session
	Interval time.Duration // Pause between years; zero runs flat out
	Speed    float64       // Multiplier on the pace; <= 0 is treated as 1

	// Chooser picks a choice index for a pending event. An out-of-range
	// answer falls back to the first choice.
	Chooser func(ev *catalog.Event) int
	// OnTurn receives every turn, including the fatal one.
	OnTurn func(Turn)
}

// RandomChooser picks uniformly among an event's choices.
func RandomChooser(rng entropy.Source) func(ev *catalog.Event) int {
	return func(ev *catalog.Event) int {
		if len(ev.Choices) == 0 {
			return 0
		}
		return rng.Intn(len(ev.Choices))
	}
}

// Run advances until the active character dies or ctx is done. It returns
// ctx.Err() when cancelled and nil on death.
func (r *Runner) Run(ctx context.Context) error {
	s := r.Session
	if s.Character == nil {
		return ErrNoCharacter
	}
	slog.Info("autoplay started", "name", s.Character.Name, "age", s.Character.Age, "interval", r.Interval)

	for !s.Character.Deceased {
		start := time.Now()
		turn := r.step()
		if r.OnTurn != nil {
			r.OnTurn(turn)
		}
		if turn.Died {
			break
		}

		target := r.pace()
		if elapsed := time.Since(start); elapsed < target {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(target - elapsed):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}

	slog.Info("autoplay stopped", "name", s.Character.Name, "age", s.Character.Age)
	return nil
}

func (r *Runner) step() Turn {
	s := r.Session
	ev := s.Pending()
	if ev == nil {
		return s.AdvanceYear()
	}
	idx := 0
	if r.Chooser != nil {
		idx = r.Chooser(ev)
	}
	if turn, ok := s.Choose(idx); ok {
		return turn
	}
	turn, _ := s.Choose(0)
	return turn
}

func (r *Runner) pace() time.Duration {
	speed := r.Speed
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(r.Interval) / speed)
}
