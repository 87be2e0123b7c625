// Package family provides the cross-generation registry of every character
// created in a session. It is the only state shared between a character and
// its heirs; entries are never removed.
package family

import (
	"fmt"

	"github.com/talgya/lifesim/internal/character"
)

// Member is the lineage record for one character.
type Member struct {
	ID         character.ID         `json:"id"`
	Name       string               `json:"name"`
	Gender     character.Gender     `json:"gender"`
	FamilyType character.FamilyType `json:"family_type"`
	ParentID   character.ID         `json:"parent_id,omitempty"`
	Children   []character.ID       `json:"children"`
	Spouse     string               `json:"spouse,omitempty"`
	Lifespan   *int                 `json:"lifespan,omitempty"` // Set once, at death
}

// Dead reports whether the member's lifespan has been recorded.
func (m *Member) Dead() bool {
	return m.Lifespan != nil
}

// Graph maps character IDs to lineage records.
type Graph struct {
	Members map[character.ID]*Member `json:"members"`
	Order   []character.ID           `json:"order"` // Registration order
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Members: make(map[character.ID]*Member),
		Order:   []character.ID{},
	}
}

// Register creates the entry for a character. Registering an ID that is
// already present leaves the existing entry untouched and returns it.
func (g *Graph) Register(c *character.Character) *Member {
	if m, ok := g.Members[c.ID]; ok {
		return m
	}
	m := &Member{
		ID:         c.ID,
		Name:       c.Name,
		Gender:     c.Gender,
		FamilyType: c.FamilyType,
		ParentID:   c.ParentID,
		Children:   []character.ID{},
	}
	g.Members[c.ID] = m
	g.Order = append(g.Order, c.ID)
	return m
}

// Get returns the entry for id, or nil.
func (g *Graph) Get(id character.ID) *Member {
	return g.Members[id]
}

// Len returns the number of registered members.
func (g *Graph) Len() int {
	return len(g.Members)
}

// AddChild links a registered child to its parent's entry.
func (g *Graph) AddChild(parentID, childID character.ID) bool {
	parent, ok := g.Members[parentID]
	if !ok {
		return false
	}
	if _, ok := g.Members[childID]; !ok {
		return false
	}
	for _, id := range parent.Children {
		if id == childID {
			return true
		}
	}
	parent.Children = append(parent.Children, childID)
	return true
}

// SetSpouse records (or with an empty name clears) a member's spouse.
func (g *Graph) SetSpouse(id character.ID, name string) bool {
	m, ok := g.Members[id]
	if !ok {
		return false
	}
	m.Spouse = name
	return true
}

// RecordDeath freezes a member's lifespan. A lifespan is never revised:
// the second call for the same member returns false.
func (g *Graph) RecordDeath(id character.ID, age int) bool {
	m, ok := g.Members[id]
	if !ok || m.Lifespan != nil {
		return false
	}
	lifespan := age
	m.Lifespan = &lifespan
	return true
}

// LivingChildren returns the children of id whose lifespan is unset, in
// birth order.
func (g *Graph) LivingChildren(id character.ID) []*Member {
	m, ok := g.Members[id]
	if !ok {
		return nil
	}
	var out []*Member
	for _, cid := range m.Children {
		child, ok := g.Members[cid]
		if ok && !child.Dead() {
			out = append(out, child)
		}
	}
	return out
}

// Roots returns first-generation members (no parent), in registration order.
func (g *Graph) Roots() []*Member {
	var out []*Member
	for _, id := range g.Order {
		if m, ok := g.Members[id]; ok && m.ParentID == "" {
			out = append(out, m)
		}
	}
	return out
}

// Walk visits every member reachable from the roots depth-first, children
// in birth order, passing the generation depth (roots are 0).
func (g *Graph) Walk(fn func(m *Member, depth int)) {
	seen := make(map[character.ID]bool, len(g.Members))
	var visit func(m *Member, depth int)
	visit = func(m *Member, depth int) {
		if seen[m.ID] {
			return
		}
		seen[m.ID] = true
		fn(m, depth)
		for _, cid := range m.Children {
			if child, ok := g.Members[cid]; ok {
				visit(child, depth+1)
			}
		}
	}
	for _, root := range g.Roots() {
		visit(root, 0)
	}
}

// Ancestors returns the chain of parents above id, nearest first.
func (g *Graph) Ancestors(id character.ID) []*Member {
	var out []*Member
	m, ok := g.Members[id]
	for ok && m.ParentID != "" && len(out) < len(g.Members) {
		m, ok = g.Members[m.ParentID]
		if ok {
			out = append(out, m)
		}
	}
	return out
}

// Validate checks that every parent and child reference resolves.
func (g *Graph) Validate() error {
	if len(g.Order) != len(g.Members) {
		return fmt.Errorf("order has %d ids for %d members", len(g.Order), len(g.Members))
	}
	for _, id := range g.Order {
		m, ok := g.Members[id]
		if !ok {
			return fmt.Errorf("order references unknown member %s", id)
		}
		if m.ID != id {
			return fmt.Errorf("member %s stored under key %s", m.ID, id)
		}
		if m.ParentID != "" {
			if _, ok := g.Members[m.ParentID]; !ok {
				return fmt.Errorf("member %s: unknown parent %s", id, m.ParentID)
			}
		}
		for _, cid := range m.Children {
			if _, ok := g.Members[cid]; !ok {
				return fmt.Errorf("member %s: unknown child %s", id, cid)
			}
		}
	}
	return nil
}
