package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/lifesim/internal/character"
)

//go:embed content.yaml
var defaultContent []byte

type document struct {
	Milestones map[string]Event    `yaml:"milestones"`
	Stages     map[string][]Event  `yaml:"stages"`
	Random     []Category          `yaml:"random"`
	Careers    []Career            `yaml:"careers"`
	Talents    []character.Talent  `yaml:"talents"`
	Names      character.NameTable `yaml:"names"`
}

// Default loads the embedded content.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultContent))
}

// LoadFile loads content from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates YAML content. Achievements are not data; the
// default table is attached to every loaded catalog.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	cat := &Catalog{
		events:       make(map[string]*Event, len(doc.Milestones)),
		stages:       make(map[character.Stage][]Event, len(doc.Stages)),
		careers:      doc.Careers,
		Talents:      doc.Talents,
		Names:        character.DefaultNames,
		Achievements: DefaultAchievements,
	}
	if len(doc.Names.Surnames) > 0 && len(doc.Names.Male) > 0 && len(doc.Names.Female) > 0 {
		cat.Names = doc.Names
	}

	for id, e := range doc.Milestones {
		e := e
		if e.ID == "" {
			e.ID = id
		}
		if e.ID != id {
			return nil, fmt.Errorf("milestone %q: id mismatch %q", id, e.ID)
		}
		cat.events[id] = &e
	}

	for label, pool := range doc.Stages {
		stage, ok := character.ParseStage(label)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", label)
		}
		if err := validatePool(label, pool); err != nil {
			return nil, err
		}
		cat.stages[stage] = pool
	}

	for _, c := range doc.Random {
		if c.Name == "" {
			return nil, fmt.Errorf("random category without a name")
		}
		if len(c.Events) == 0 {
			return nil, fmt.Errorf("random category %q is empty", c.Name)
		}
		if err := validatePool(c.Name, c.Events); err != nil {
			return nil, err
		}
		cat.categories = append(cat.categories, c)
	}

	for _, career := range doc.Careers {
		if career.Name == "" {
			return nil, fmt.Errorf("career without a name")
		}
	}

	return cat, nil
}

func validatePool(name string, pool []Event) error {
	for i, e := range pool {
		if e.Weight <= 0 {
			return fmt.Errorf("pool %q event %d (%s): weight must be positive", name, i, e.Title)
		}
	}
	return nil
}
