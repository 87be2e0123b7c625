package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/family"
)

// SaveVersion tags every snapshot. Loading any other version fails.
const SaveVersion = "2.0"

var (
	// ErrIncompatibleSave is returned when a snapshot's version does not match SaveVersion.
	ErrIncompatibleSave = errors.New("incompatible save version")
	// ErrNoCharacter is returned when an operation needs an active character.
	ErrNoCharacter = errors.New("no active character")
)

// Snapshot is the persisted game state.
type Snapshot struct {
	Version   string               `json:"version"`
	SavedAt   int64                `json:"saved_at"` // Unix milliseconds
	Character *character.Character `json:"character"`
	Family    *family.Graph        `json:"family"`
	Pending   *catalog.Event       `json:"pending,omitempty"`
}

// Saver persists snapshots.
type Saver interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Snapshot captures the current state. The result shares memory with the
// session; serialize it before advancing again.
func (s *Session) Snapshot() (Snapshot, error) {
	if s.Character == nil {
		return Snapshot{}, ErrNoCharacter
	}
	return Snapshot{
		Version:   SaveVersion,
		SavedAt:   s.now().UnixMilli(),
		Character: s.Character,
		Family:    s.Family,
		Pending:   s.pending,
	}, nil
}

// Save hands a snapshot to the configured Saver.
func (s *Session) Save(ctx context.Context) error {
	if s.Saver == nil {
		return errors.New("no saver configured")
	}
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := s.Saver.SaveSnapshot(ctx, snap); err != nil {
		slog.Warn("save failed", "age", s.Character.Age, "error", err)
		s.emit(s.Character, "❌ 保存失败", err.Error(), CategorySave)
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Debug("game saved", "id", s.Character.ID, "age", s.Character.Age)
	s.emit(s.Character, "✅ 游戏已保存", fmt.Sprintf("%d岁存档", s.Character.Age), CategorySave)
	return nil
}

// Restore replaces the session state with a snapshot.
func (s *Session) Restore(snap Snapshot) error {
	if snap.Version != SaveVersion {
		return fmt.Errorf("%w: %q", ErrIncompatibleSave, snap.Version)
	}
	if snap.Character == nil {
		return ErrNoCharacter
	}
	graph := snap.Family
	if graph == nil {
		graph = family.NewGraph()
	}
	if graph.Members == nil {
		graph.Members = make(map[character.ID]*family.Member)
	}
	graph.Register(snap.Character)
	if err := graph.Validate(); err != nil {
		return fmt.Errorf("restore family: %w", err)
	}

	s.Character = snap.Character
	s.Family = graph
	s.pending = snap.Pending
	slog.Info("game restored", "id", snap.Character.ID, "name", snap.Character.Name, "age", snap.Character.Age)
	return nil
}

// MarshalSnapshot encodes a snapshot as JSON.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a snapshot and rejects other versions.
func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version != SaveVersion {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrIncompatibleSave, snap.Version)
	}
	return snap, nil
}
