package rules

import "time"

// Field names a song attribute a rule can test.
type Field string

const (
	FieldTitle     Field = "title"
	FieldArtist    Field = "artist"
	FieldAlbum     Field = "album"
	FieldGenre     Field = "genre"
	FieldYear      Field = "year"
	FieldDuration  Field = "duration"  // milliseconds
	FieldPlayCount Field = "playCount"
	FieldDateAdded Field = "dateAdded"
)

// Operator names a comparison a rule applies to its field.
type Operator string

const (
	// String operators (title, artist, album, genre). Case-insensitive.
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpIs          Operator = "is"
	OpIsNot       Operator = "isNot"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"

	// Numeric operators (year, duration, playCount).
	OpEquals  Operator = "equals"
	OpGreater Operator = "greaterThan"
	OpAtLeast Operator = "atLeast"
	OpLess    Operator = "lessThan"
	OpAtMost  Operator = "atMost"
	OpBetween Operator = "between"

	// Date operators (dateAdded).
	OpBefore     Operator = "before"
	OpAfter      Operator = "after"
	OpInLastDays Operator = "inLastDays"
)

// Match selects how a group combines its children.
type Match string

const (
	MatchAll Match = "all" // every child must match
	MatchAny Match = "any" // at least one child must match
)

// Rule is a single field comparison. Exactly one value slot is meaningful
// for a given operator: Text for string operators, Number (plus NumberTo for
// between) for numeric ones, Date (or Number for inLastDays) for date ones.
type Rule struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Text     string   `json:"text,omitempty"`
	Number   int64    `json:"number,omitempty"`
	NumberTo int64    `json:"numberTo,omitempty"`
	Date     string   `json:"date,omitempty"`   // RFC 3339 or 2006-01-02
	DateTo   string   `json:"dateTo,omitempty"` // reserved for date ranges
}

// Group combines rules and nested groups under a single match mode. Groups
// nest to arbitrary depth; a smart playlist persists one root group.
type Group struct {
	Match  Match   `json:"match"`
	Rules  []Rule  `json:"rules,omitempty"`
	Groups []Group `json:"groups,omitempty"`
}

// Empty reports whether the group has no rules and no subgroups at any
// level. An empty group matches nothing.
func (g Group) Empty() bool {
	if len(g.Rules) > 0 {
		return false
	}
	for _, sub := range g.Groups {
		if !sub.Empty() {
			return false
		}
	}
	return true
}

// fieldKind classifies fields by the value type their operators take.
type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindDate
)

var fieldKinds = map[Field]fieldKind{
	FieldTitle:     kindString,
	FieldArtist:    kindString,
	FieldAlbum:     kindString,
	FieldGenre:     kindString,
	FieldYear:      kindNumber,
	FieldDuration:  kindNumber,
	FieldPlayCount: kindNumber,
	FieldDateAdded: kindDate,
}

var operatorKinds = map[Operator]fieldKind{
	OpContains:    kindString,
	OpNotContains: kindString,
	OpIs:          kindString,
	OpIsNot:       kindString,
	OpStartsWith:  kindString,
	OpEndsWith:    kindString,
	OpEquals:      kindNumber,
	OpGreater:     kindNumber,
	OpAtLeast:     kindNumber,
	OpLess:        kindNumber,
	OpAtMost:      kindNumber,
	OpBetween:     kindNumber,
	OpBefore:      kindDate,
	OpAfter:       kindDate,
	OpInLastDays:  kindDate,
}

// dateLayouts are accepted formats for Rule.Date values.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseRuleDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
