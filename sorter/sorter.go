// Package sorter parses user-supplied sorting expressions
// (e.g. "name:asc,created_at:desc") into structured sort options that can be
// rendered as SQL ORDER BY fragments.
package sorter

import (
	"slices"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"

	// expectedPartsCount is the expected number of parts in a sort pair (field:direction).
	expectedPartsCount = 2
)

// Opt represents a single sorting option.
type Opt struct {
	Field     string
	Direction Direction
}

// ToSQL renders the option as an SQL ORDER BY fragment (e.g. "name asc").
func (o Opt) ToSQL() string {
	return o.Field + " " + string(o.Direction)
}

// SortOpts is an ordered list of sorting options.
type SortOpts []Opt

// Parse parses a sorting expression into SortOpts. Pairs referencing fields
// outside allowedFields, or with an unknown direction, are silently dropped
// so untrusted input can never order by an unexpected column.
func Parse(expr string, allowedFields ...string) SortOpts {
	if expr == "" {
		return nil
	}

	var options SortOpts
	for pair := range strings.SplitSeq(expr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != expectedPartsCount {
			continue
		}

		field := strings.TrimSpace(parts[0])
		if !slices.Contains(allowedFields, field) {
			continue
		}

		direction := Direction(strings.ToLower(strings.TrimSpace(parts[1])))
		if direction != Asc && direction != Desc {
			continue
		}

		options = append(options, Opt{Field: field, Direction: direction})
	}

	return options
}
