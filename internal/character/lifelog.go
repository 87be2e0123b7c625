// Life log: the ordered record of what happened to a character.
package character

import "time"

// LifeEvent is one entry in a character's life path.
type LifeEvent struct {
	Age         int    `json:"age"`
	Stage       Stage  `json:"stage"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"` // Unix milliseconds
}

// Decision records a resolved player choice.
type Decision struct {
	Age       int    `json:"age"`
	Event     string `json:"event"`
	Choice    string `json:"choice"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// AddLifeEvent appends an entry stamped with the current age and stage.
func (c *Character) AddLifeEvent(desc string, now time.Time) {
	c.LifePath = append(c.LifePath, LifeEvent{
		Age:         c.Age,
		Stage:       c.Stage(),
		Description: desc,
		Timestamp:   now.UnixMilli(),
	})
}

// AddDecision appends a choice record stamped with the current age.
func (c *Character) AddDecision(event, choice string, now time.Time) {
	c.Decisions = append(c.Decisions, Decision{
		Age:       c.Age,
		Event:     event,
		Choice:    choice,
		Timestamp: now.UnixMilli(),
	})
}

// RecentEvents returns the most recent N life events, newest first.
func (c *Character) RecentEvents(count int) []LifeEvent {
	if count > len(c.LifePath) {
		count = len(c.LifePath)
	}
	if count <= 0 {
		return nil
	}
	out := make([]LifeEvent, 0, count)
	for i := len(c.LifePath) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, c.LifePath[i])
	}
	return out
}

// EventsAt returns the life events logged at a given age, in log order.
func (c *Character) EventsAt(age int) []LifeEvent {
	var out []LifeEvent
	for _, e := range c.LifePath {
		if e.Age == age {
			out = append(out, e)
		}
	}
	return out
}
