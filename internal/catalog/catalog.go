package catalog

import (
	"github.com/talgya/lifesim/internal/character"
)

// Milestone binds one exact age to a unique event.
type Milestone struct {
	Age     int
	EventID string
}

// Milestones is the fixed, ordered milestone schedule.
var Milestones = []Milestone{
	{Age: 1, EventID: "zhua_zhou"},
	{Age: 3, EventID: "kindergarten"},
	{Age: 6, EventID: "primary_school"},
	{Age: 12, EventID: "middle_school"},
	{Age: 15, EventID: "high_school_choice"},
	{Age: 16, EventID: "arts_or_science"},
	{Age: 18, EventID: "gaokao"},
	{Age: 22, EventID: "college_major"},
	{Age: 25, EventID: "career_choice"},
	{Age: 30, EventID: "marriage"},
	{Age: 35, EventID: "children"},
	{Age: 60, EventID: "retirement"},
}

// MilestoneFor returns the milestone event id bound to exactly this age.
func MilestoneFor(age int) (string, bool) {
	for _, m := range Milestones {
		if m.Age == age {
			return m.EventID, true
		}
	}
	return "", false
}

// Category is a named pool of independent random events.
type Category struct {
	Name   string  `yaml:"category"`
	Events []Event `yaml:"events"`
}

// Career is a row of the career table.
type Career struct {
	Name       string `yaml:"name"`
	BaseSalary int    `yaml:"base_salary"`
}

// Catalog is the loaded, read-only content set.
type Catalog struct {
	events     map[string]*Event
	stages     map[character.Stage][]Event
	categories []Category
	careers    []Career

	Talents      []character.Talent
	Names        character.NameTable
	Achievements []Achievement
}

// Milestone returns the event bound to exactly this age. A milestone age
// whose event is missing from the content yields no event.
func (c *Catalog) Milestone(age int) (*Event, bool) {
	id, ok := MilestoneFor(age)
	if !ok {
		return nil, false
	}
	return c.EventByID(id)
}

// EventByID looks up a milestone event.
func (c *Catalog) EventByID(id string) (*Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

// StagePool returns the weighted pool for a stage in content order.
func (c *Catalog) StagePool(stage character.Stage) []Event {
	return c.stages[stage]
}

// Categories returns the independent-event categories in content order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Careers returns the career table.
func (c *Catalog) Careers() []Career {
	return c.careers
}

// Salary returns the base salary for an occupation.
func (c *Catalog) Salary(occupation string) (int, bool) {
	for _, career := range c.careers {
		if career.Name == occupation {
			return career.BaseSalary, true
		}
	}
	return 0, false
}
