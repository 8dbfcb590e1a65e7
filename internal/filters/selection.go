package filters

import (
	"encoding/json"
	"fmt"
)

// Choice is the value picked for one filter column.
type Choice struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Selection holds one choice per filter column, in filter order. It is a
// value: every mutating method returns a new Selection.
type Selection struct {
	choices []Choice
}

// NewSelection starts every column at All.
func NewSelection(order []string) Selection {
	choices := make([]Choice, len(order))
	for i, col := range order {
		choices[i] = Choice{Column: col, Value: All}
	}
	return Selection{choices: choices}
}

// Get returns the value chosen for column, All when the column is unconstrained
// or unknown.
func (s Selection) Get(column string) string {
	for _, c := range s.choices {
		if c.Column == column {
			if c.Value == "" {
				return All
			}
			return c.Value
		}
	}
	return All
}

// Has reports whether column is part of the selection.
func (s Selection) Has(column string) bool {
	for _, c := range s.choices {
		if c.Column == column {
			return true
		}
	}
	return false
}

// Set returns a copy with column set to value. Unknown columns are appended.
func (s Selection) Set(column, value string) Selection {
	out := s.Choices()
	for i := range out {
		if out[i].Column == column {
			out[i].Value = value
			return Selection{choices: out}
		}
	}
	return Selection{choices: append(out, Choice{Column: column, Value: value})}
}

// Choices returns a copy of the ordered choices.
func (s Selection) Choices() []Choice {
	out := make([]Choice, len(s.choices))
	copy(out, s.choices)
	return out
}

// Active returns only the constrained choices.
func (s Selection) Active() []Choice {
	var out []Choice
	for _, c := range s.choices {
		if c.Value != "" && c.Value != All {
			out = append(out, c)
		}
	}
	return out
}

// IsAll reports whether nothing is constrained.
func (s Selection) IsAll() bool {
	return len(s.Active()) == 0
}

// Map flattens the selection, handy for logging and query strings.
func (s Selection) Map() map[string]string {
	out := make(map[string]string, len(s.choices))
	for _, c := range s.choices {
		out[c.Column] = s.Get(c.Column)
	}
	return out
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.choices)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var choices []Choice
	if err := json.Unmarshal(data, &choices); err != nil {
		return fmt.Errorf("decoding selection: %w", err)
	}
	s.choices = choices
	return nil
}
