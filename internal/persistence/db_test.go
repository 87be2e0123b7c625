package persistence

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "lifesim.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// playedSession returns a session with a married parent of two children
// whose first child has died.
func playedSession(t *testing.T) *engine.Session {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load content: %v", err)
	}
	s := engine.NewSession(cat, rand.New(rand.NewSource(7)))
	s.Clock = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	s.Start("", character.GenderMale, character.FamilyMiddle)

	for s.Character.Age < 36 && !s.Character.Deceased {
		if s.Pending() != nil {
			s.Choose(0)
			continue
		}
		s.AdvanceYear()
	}
	if s.Character.Deceased {
		t.Fatal("test life ended early")
	}
	if len(s.Character.Children) > 0 {
		s.Family.RecordDeath(s.Character.Children[0], 2)
	}
	return s
}

func TestLoadEmptySlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.LoadSnapshot(ctx); !errors.Is(err, ErrNoSave) {
		t.Fatalf("expected ErrNoSave, got %v", err)
	}
	ok, err := db.HasSave(ctx)
	if err != nil || ok {
		t.Fatalf("expected empty slot, got %v %v", ok, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := playedSession(t)

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != engine.SaveVersion || got.SavedAt != snap.SavedAt {
		t.Fatalf("unexpected meta: %s %d", got.Version, got.SavedAt)
	}
	if !reflect.DeepEqual(got.Character, snap.Character) {
		t.Fatalf("character mismatch:\n got %+v\nwant %+v", got.Character, snap.Character)
	}
	if !reflect.DeepEqual(got.Family, snap.Family) {
		t.Fatalf("family mismatch:\n got %+v\nwant %+v", got.Family, snap.Family)
	}
	if !reflect.DeepEqual(got.Pending, snap.Pending) {
		t.Fatalf("pending mismatch:\n got %+v\nwant %+v", got.Pending, snap.Pending)
	}

	restored := engine.NewSession(s.Catalog, rand.New(rand.NewSource(1)))
	if err := restored.Restore(got); err != nil {
		t.Fatalf("restore: %v", err)
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := playedSession(t)

	first, _ := s.Snapshot()
	if err := db.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.Start("张伟", character.GenderMale, character.FamilyPoor)
	second, _ := s.Snapshot()
	if err := db.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Character.Name != "张伟" || got.Character.Age != 0 {
		t.Fatalf("expected the second save, got %s at %d", got.Character.Name, got.Character.Age)
	}
	if got.Family.Len() != 1 || len(got.Character.LifePath) != 0 {
		t.Fatalf("expected the first save's rows to be gone, family %d log %d", got.Family.Len(), len(got.Character.LifePath))
	}
}

func TestAutosaveThroughSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load content: %v", err)
	}
	s := engine.NewSession(cat, rand.New(rand.NewSource(3)))
	s.Saver = db
	s.Start("", character.GenderFemale, character.FamilyRich)

	for s.Character.Age < 5 {
		if s.Pending() != nil {
			s.Choose(0)
			continue
		}
		s.AdvanceYear()
	}

	got, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load autosave: %v", err)
	}
	if got.Character.Age != 5 || got.Character.ID != s.Character.ID {
		t.Fatalf("expected autosave at age 5, got %d", got.Character.Age)
	}
}

func TestIncompatibleVersion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := playedSession(t)
	snap, _ := s.Snapshot()
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveMeta(ctx, "version", "1.0"); err != nil {
		t.Fatalf("save meta: %v", err)
	}

	if _, err := db.LoadSnapshot(ctx); !errors.Is(err, engine.ErrIncompatibleSave) {
		t.Fatalf("expected ErrIncompatibleSave, got %v", err)
	}
}

func TestDeleteSave(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := playedSession(t)
	snap, _ := s.Snapshot()
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, _ := db.HasSave(ctx); !ok {
		t.Fatal("expected a save")
	}

	if err := db.DeleteSave(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.LoadSnapshot(ctx); !errors.Is(err, ErrNoSave) {
		t.Fatalf("expected ErrNoSave after delete, got %v", err)
	}
}
