// Package catalog holds the static content the engine consults: weighted
// event pools by life stage and by random category, milestone events,
// careers, talents, names and achievements. Nothing here is mutated after
// load.
package catalog

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAction is returned when content names an action tag that does
// not exist.
var ErrUnknownAction = errors.New("unknown action")

// Action is a hard-coded life transition a choice can trigger.
type Action uint8

const (
	ActionNone Action = iota
	ActionMarry
	ActionHaveChild
	ActionDivorce
	ActionBuyHouse
	ActionBuyCar
)

var actionTags = [...]string{"", "marry", "haveChild", "divorce", "buyHouse", "buyCar"}

func (a Action) String() string {
	if int(a) < len(actionTags) {
		if a == ActionNone {
			return "none"
		}
		return actionTags[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// ParseAction maps a content tag to an Action. The empty tag is ActionNone.
func ParseAction(tag string) (Action, error) {
	for i, t := range actionTags {
		if t == tag {
			return Action(i), nil
		}
	}
	return ActionNone, fmt.Errorf("%w %q", ErrUnknownAction, tag)
}

func (a Action) MarshalText() ([]byte, error) {
	if int(a) >= len(actionTags) {
		return nil, fmt.Errorf("%w %d", ErrUnknownAction, a)
	}
	return []byte(actionTags[a]), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalYAML decodes an action tag scalar.
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var tag string
	if err := value.Decode(&tag); err != nil {
		return err
	}
	v, err := ParseAction(tag)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = v
	return nil
}

// Effect is a sparse patch over a character. Zero fields are absent:
// additive deltas of zero, a zero rate and empty strings change nothing.
type Effect struct {
	IQ         int               `yaml:"iq" json:"iq,omitempty"`
	EQ         int               `yaml:"eq" json:"eq,omitempty"`
	Health     int               `yaml:"health" json:"health,omitempty"`
	Moral      int               `yaml:"moral" json:"moral,omitempty"`
	Social     int               `yaml:"social" json:"social,omitempty"`
	Money      int               `yaml:"money" json:"money,omitempty"`
	MoneyRate  float64           `yaml:"money_rate" json:"money_rate,omitempty"` // Multiplies the persistent rate
	Occupation string            `yaml:"occupation" json:"occupation,omitempty"` // Overwrites when set
	Education  string            `yaml:"education" json:"education,omitempty"`   // Overwrites when set
	Assets     map[string]string `yaml:"assets" json:"assets,omitempty"`         // Shallow-merged
}

// Choice is one option of an interactive event.
type Choice struct {
	Text        string  `yaml:"text" json:"text"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Effect      *Effect `yaml:"effect" json:"effect,omitempty"`
	Action      Action  `yaml:"action" json:"action,omitempty"`
}

// LogText is the life-log line for this choice.
func (c Choice) LogText() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Text
}

// Event is a catalog entry. Pool events carry a Weight; milestone events
// are bound to an age and ignore it.
type Event struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Weight      float64  `yaml:"weight" json:"weight,omitempty"`
	Choices     []Choice `yaml:"choices" json:"choices,omitempty"`
	Effect      *Effect  `yaml:"effect" json:"effect,omitempty"`
}

// HasChoices reports whether the event needs a player decision.
func (e *Event) HasChoices() bool {
	return len(e.Choices) > 0
}

// LogText is the life-log line for an auto-resolved event.
func (e *Event) LogText() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Title
}
