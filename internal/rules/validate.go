package rules

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxGroupDepth bounds rule tree nesting so a hostile payload cannot recurse
// the evaluator to death.
const maxGroupDepth = 10

// Parse decodes and validates a serialized rule tree.
func Parse(raw []byte) (*Group, error) {
	var g Group
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid rule tree: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks the group and everything beneath it.
func (g Group) Validate() error {
	return g.validateAtDepth(0)
}

func (g Group) validateAtDepth(depth int) error {
	if depth > maxGroupDepth {
		return fmt.Errorf("rule groups nested deeper than %d levels", maxGroupDepth)
	}

	err := validation.ValidateStruct(&g,
		validation.Field(&g.Match, validation.Required,
			validation.In(MatchAll, MatchAny)),
	)
	if err != nil {
		return err
	}

	for i, r := range g.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	for i, sub := range g.Groups {
		if err := sub.validateAtDepth(depth + 1); err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks that the rule's field and operator agree and that the
// right value slot is populated.
func (r Rule) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Field, validation.Required,
			validation.In(FieldTitle, FieldArtist, FieldAlbum, FieldGenre,
				FieldYear, FieldDuration, FieldPlayCount, FieldDateAdded)),
		validation.Field(&r.Operator, validation.Required,
			validation.In(OpContains, OpNotContains, OpIs, OpIsNot,
				OpStartsWith, OpEndsWith,
				OpEquals, OpGreater, OpAtLeast, OpLess, OpAtMost, OpBetween,
				OpBefore, OpAfter, OpInLastDays)),
	)
	if err != nil {
		return err
	}

	fk := fieldKinds[r.Field]
	ok := operatorKinds[r.Operator]
	if fk != ok {
		return fmt.Errorf("operator %q does not apply to field %q", r.Operator, r.Field)
	}

	switch fk {
	case kindString:
		if r.Text == "" {
			return fmt.Errorf("operator %q requires a text value", r.Operator)
		}
	case kindNumber:
		if r.Number < 0 || r.NumberTo < 0 {
			return fmt.Errorf("numeric values must not be negative")
		}
		if r.Operator == OpBetween && r.NumberTo < r.Number {
			return fmt.Errorf("between range is inverted (%d > %d)", r.Number, r.NumberTo)
		}
	case kindDate:
		if r.Operator == OpInLastDays {
			if r.Number <= 0 {
				return fmt.Errorf("inLastDays requires a positive day count")
			}
			break
		}
		if _, parsed := parseRuleDate(r.Date); !parsed {
			return fmt.Errorf("operator %q requires a date (RFC 3339 or YYYY-MM-DD)", r.Operator)
		}
	}
	return nil
}
