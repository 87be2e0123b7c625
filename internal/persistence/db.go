// Package persistence stores the single save slot in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/lifesim/internal/catalog"
	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/engine"
	"github.com/talgya/lifesim/internal/family"
)

// ErrNoSave is returned when the slot is empty.
var ErrNoSave = errors.New("no saved game")

var _ engine.Saver = (*DB)(nil)

// DB wraps a SQLite connection holding one saved game.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		family_type TEXT NOT NULL,
		age INTEGER NOT NULL,
		iq INTEGER NOT NULL,
		eq INTEGER NOT NULL,
		health INTEGER NOT NULL,
		health_max INTEGER NOT NULL,
		moral INTEGER NOT NULL,
		social INTEGER NOT NULL,
		money INTEGER NOT NULL,
		luck INTEGER NOT NULL,
		money_rate REAL NOT NULL,
		occupation TEXT NOT NULL,
		education TEXT NOT NULL,
		career_exp INTEGER NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		deceased INTEGER NOT NULL,
		spouse_json TEXT,
		assets_json TEXT NOT NULL,
		talents_json TEXT NOT NULL,
		relations_json TEXT NOT NULL,
		children_json TEXT NOT NULL,
		achievements_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS life_events (
		seq INTEGER PRIMARY KEY,
		age INTEGER NOT NULL,
		stage TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		seq INTEGER PRIMARY KEY,
		age INTEGER NOT NULL,
		event TEXT NOT NULL,
		choice TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS family_members (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		family_type TEXT NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		children_json TEXT NOT NULL,
		spouse TEXT NOT NULL DEFAULT '',
		lifespan INTEGER
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_life_events_age ON life_events(age);
	CREATE INDEX IF NOT EXISTS idx_family_parent ON family_members(parent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot replaces the slot with snap in one transaction.
func (db *DB) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	c := snap.Character
	if c == nil {
		return engine.ErrNoCharacter
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"characters", "life_events", "decisions", "family_members", "world_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertCharacter(ctx, tx, c); err != nil {
		return fmt.Errorf("insert character %s: %w", c.ID, err)
	}
	if err := insertLifeLog(ctx, tx, c); err != nil {
		return err
	}
	if snap.Family != nil {
		if err := insertFamily(ctx, tx, snap.Family); err != nil {
			return err
		}
	}

	meta := map[string]string{
		"version":  snap.Version,
		"saved_at": strconv.FormatInt(snap.SavedAt, 10),
	}
	if snap.Pending != nil {
		b, err := json.Marshal(snap.Pending)
		if err != nil {
			return fmt.Errorf("encode pending: %w", err)
		}
		meta["pending"] = string(b)
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("game saved", "id", c.ID, "age", c.Age, "life_events", len(c.LifePath))
	return nil
}

func insertCharacter(ctx context.Context, tx *sqlx.Tx, c *character.Character) error {
	var spouse sql.NullString
	if c.Spouse != nil {
		b, err := json.Marshal(c.Spouse)
		if err != nil {
			return err
		}
		spouse = sql.NullString{String: string(b), Valid: true}
	}
	assets, err := json.Marshal(c.Assets)
	if err != nil {
		return err
	}
	talents, err := json.Marshal(c.Talents)
	if err != nil {
		return err
	}
	relations, err := json.Marshal(c.Relations)
	if err != nil {
		return err
	}
	children, err := json.Marshal(c.Children)
	if err != nil {
		return err
	}
	achievements, err := json.Marshal(c.Achievements)
	if err != nil {
		return err
	}

	deceased := 0
	if c.Deceased {
		deceased = 1
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO characters
		(id, name, gender, family_type, age, iq, eq, health, health_max, moral,
		 social, money, luck, money_rate, occupation, education, career_exp,
		 parent_id, deceased, spouse_json, assets_json, talents_json,
		 relations_json, children_json, achievements_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Gender.String(), c.FamilyType.String(), c.Age,
		c.IQ, c.EQ, c.Health, c.HealthMax, c.Moral,
		c.Social, c.Money, c.Luck, c.MoneyRate, c.Occupation, c.Education, c.CareerExp,
		c.ParentID, deceased, spouse, string(assets), string(talents),
		string(relations), string(children), string(achievements),
	)
	return err
}

func insertLifeLog(ctx context.Context, tx *sqlx.Tx, c *character.Character) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO life_events
		(seq, age, stage, description, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range c.LifePath {
		if _, err := stmt.ExecContext(ctx, i, e.Age, e.Stage.String(), e.Description, e.Timestamp); err != nil {
			return fmt.Errorf("insert life event %d: %w", i, err)
		}
	}

	for i, d := range c.Decisions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO decisions (seq, age, event, choice, timestamp) VALUES (?, ?, ?, ?, ?)",
			i, d.Age, d.Event, d.Choice, d.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert decision %d: %w", i, err)
		}
	}
	return nil
}

func insertFamily(ctx context.Context, tx *sqlx.Tx, g *family.Graph) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO family_members
		(seq, id, name, gender, family_type, parent_id, children_json, spouse, lifespan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range g.Order {
		m := g.Members[id]
		if m == nil {
			return fmt.Errorf("family order references unknown member %s", id)
		}
		children, err := json.Marshal(m.Children)
		if err != nil {
			return err
		}
		var lifespan sql.NullInt64
		if m.Lifespan != nil {
			lifespan = sql.NullInt64{Int64: int64(*m.Lifespan), Valid: true}
		}
		_, err = stmt.ExecContext(ctx, i, m.ID, m.Name, m.Gender.String(), m.FamilyType.String(),
			m.ParentID, string(children), m.Spouse, lifespan)
		if err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in the save metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasSave reports whether the slot holds a character.
func (db *DB) HasSave(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM characters"); err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteSave empties the slot.
func (db *DB) DeleteSave(ctx context.Context) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"characters", "life_events", "decisions", "family_members", "world_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot reads the slot. It returns ErrNoSave for an empty slot and
// wraps engine.ErrIncompatibleSave for a save of another version.
func (db *DB) LoadSnapshot(ctx context.Context) (engine.Snapshot, error) {
	version, err := db.GetMeta(ctx, "version")
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, ErrNoSave
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("read version: %w", err)
	}
	if version != engine.SaveVersion {
		return engine.Snapshot{}, fmt.Errorf("%w: %q", engine.ErrIncompatibleSave, version)
	}

	snap := engine.Snapshot{Version: version}
	if v, err := db.GetMeta(ctx, "saved_at"); err == nil {
		snap.SavedAt, _ = strconv.ParseInt(v, 10, 64)
	}

	c, err := db.loadCharacter(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	snap.Character = c

	g, err := db.loadFamily(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	snap.Family = g

	pending, err := db.GetMeta(ctx, "pending")
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return engine.Snapshot{}, fmt.Errorf("read pending: %w", err)
	default:
		var ev catalog.Event
		if err := json.Unmarshal([]byte(pending), &ev); err != nil {
			return engine.Snapshot{}, fmt.Errorf("decode pending: %w", err)
		}
		snap.Pending = &ev
	}

	slog.Info("game loaded", "id", c.ID, "age", c.Age, "family", g.Len())
	return snap, nil
}

type characterRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Gender       string         `db:"gender"`
	FamilyType   string         `db:"family_type"`
	Age          int            `db:"age"`
	IQ           int            `db:"iq"`
	EQ           int            `db:"eq"`
	Health       int            `db:"health"`
	HealthMax    int            `db:"health_max"`
	Moral        int            `db:"moral"`
	Social       int            `db:"social"`
	Money        int            `db:"money"`
	Luck         int            `db:"luck"`
	MoneyRate    float64        `db:"money_rate"`
	Occupation   string         `db:"occupation"`
	Education    string         `db:"education"`
	CareerExp    int            `db:"career_exp"`
	ParentID     string         `db:"parent_id"`
	Deceased     bool           `db:"deceased"`
	Spouse       sql.NullString `db:"spouse_json"`
	Assets       string         `db:"assets_json"`
	Talents      string         `db:"talents_json"`
	Relations    string         `db:"relations_json"`
	Children     string         `db:"children_json"`
	Achievements string         `db:"achievements_json"`
}

type lifeEventRow struct {
	Seq         int    `db:"seq"`
	Age         int    `db:"age"`
	Stage       string `db:"stage"`
	Description string `db:"description"`
	Timestamp   int64  `db:"timestamp"`
}

type decisionRow struct {
	Seq       int    `db:"seq"`
	Age       int    `db:"age"`
	Event     string `db:"event"`
	Choice    string `db:"choice"`
	Timestamp int64  `db:"timestamp"`
}

type memberRow struct {
	Seq        int           `db:"seq"`
	ID         string        `db:"id"`
	Name       string        `db:"name"`
	Gender     string        `db:"gender"`
	FamilyType string        `db:"family_type"`
	ParentID   string        `db:"parent_id"`
	Children   string        `db:"children_json"`
	Spouse     string        `db:"spouse"`
	Lifespan   sql.NullInt64 `db:"lifespan"`
}

func (db *DB) loadCharacter(ctx context.Context) (*character.Character, error) {
	var row characterRow
	err := db.conn.GetContext(ctx, &row, "SELECT * FROM characters LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}

	c := &character.Character{
		ID:         character.ID(row.ID),
		Name:       row.Name,
		Age:        row.Age,
		MoneyRate:  row.MoneyRate,
		Occupation: row.Occupation,
		Education:  row.Education,
		CareerExp:  row.CareerExp,
		ParentID:   character.ID(row.ParentID),
		Deceased:   row.Deceased,
		Attributes: character.Attributes{
			IQ:        row.IQ,
			EQ:        row.EQ,
			Health:    row.Health,
			HealthMax: row.HealthMax,
			Moral:     row.Moral,
			Social:    row.Social,
			Money:     row.Money,
			Luck:      row.Luck,
		},
	}
	if err := c.Gender.UnmarshalText([]byte(row.Gender)); err != nil {
		return nil, err
	}
	if err := c.FamilyType.UnmarshalText([]byte(row.FamilyType)); err != nil {
		return nil, err
	}

	columns := []struct {
		name string
		raw  string
		dst  any
	}{
		{"assets", row.Assets, &c.Assets},
		{"talents", row.Talents, &c.Talents},
		{"relations", row.Relations, &c.Relations},
		{"children", row.Children, &c.Children},
		{"achievements", row.Achievements, &c.Achievements},
	}
	for _, col := range columns {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	if row.Spouse.Valid {
		c.Spouse = &character.Spouse{}
		if err := json.Unmarshal([]byte(row.Spouse.String), c.Spouse); err != nil {
			return nil, fmt.Errorf("decode spouse: %w", err)
		}
	}
	ensureCollections(c)

	var events []lifeEventRow
	if err := db.conn.SelectContext(ctx, &events, "SELECT * FROM life_events ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load life events: %w", err)
	}
	for _, e := range events {
		stage, ok := character.ParseStage(e.Stage)
		if !ok {
			return nil, fmt.Errorf("life event %d: unknown stage %q", e.Seq, e.Stage)
		}
		c.LifePath = append(c.LifePath, character.LifeEvent{
			Age: e.Age, Stage: stage, Description: e.Description, Timestamp: e.Timestamp,
		})
	}

	var decisions []decisionRow
	if err := db.conn.SelectContext(ctx, &decisions, "SELECT * FROM decisions ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}
	for _, d := range decisions {
		c.Decisions = append(c.Decisions, character.Decision{
			Age: d.Age, Event: d.Event, Choice: d.Choice, Timestamp: d.Timestamp,
		})
	}
	return c, nil
}

// ensureCollections gives every collection a non-nil empty value and
// resets the logs before their rows are appended.
func ensureCollections(c *character.Character) {
	if c.Assets == nil {
		c.Assets = make(map[string]string)
	}
	if c.Talents == nil {
		c.Talents = []character.Talent{}
	}
	if c.Relations == nil {
		c.Relations = make(map[character.RelationKind]character.Relation)
	}
	if c.Children == nil {
		c.Children = []character.ID{}
	}
	if c.Achievements == nil {
		c.Achievements = []string{}
	}
	c.LifePath = []character.LifeEvent{}
	c.Decisions = []character.Decision{}
}

func (db *DB) loadFamily(ctx context.Context) (*family.Graph, error) {
	var rows []memberRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM family_members ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load family: %w", err)
	}

	g := family.NewGraph()
	for _, r := range rows {
		m := &family.Member{
			ID:       character.ID(r.ID),
			Name:     r.Name,
			ParentID: character.ID(r.ParentID),
			Spouse:   r.Spouse,
		}
		if err := m.Gender.UnmarshalText([]byte(r.Gender)); err != nil {
			return nil, fmt.Errorf("member %s: %w", r.ID, err)
		}
		if err := m.FamilyType.UnmarshalText([]byte(r.FamilyType)); err != nil {
			return nil, fmt.Errorf("member %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Children), &m.Children); err != nil {
			return nil, fmt.Errorf("member %s children: %w", r.ID, err)
		}
		if m.Children == nil {
			m.Children = []character.ID{}
		}
		if r.Lifespan.Valid {
			lifespan := int(r.Lifespan.Int64)
			m.Lifespan = &lifespan
		}
		g.Members[m.ID] = m
		g.Order = append(g.Order, m.ID)
	}
	return g, nil
}
