package rules

import (
	"sort"
	"strings"
	"time"

	"tunevault/internal/catalog"
	"tunevault/internal/metrics"
)

// SortSpec overrides the default ordering of an evaluation result.
type SortSpec struct {
	Field string // same names as rule fields; empty = dateAdded
	Desc  bool
}

// DefaultSort orders by date added, newest first.
var DefaultSort = SortSpec{Field: string(FieldDateAdded), Desc: true}

// Evaluate filters songs through the rule tree and returns the matches in
// the requested order. The input slice is never modified.
func Evaluate(g *Group, songs []catalog.SongView, spec SortSpec) []catalog.SongView {
	start := time.Now()
	defer func() {
		metrics.RuleEvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	if g == nil || g.Empty() {
		metrics.RuleEvaluationsTotal.WithLabelValues("success").Inc()
		return []catalog.SongView{}
	}

	now := time.Now()
	matched := make([]catalog.SongView, 0, len(songs))
	for _, s := range songs {
		if matchGroup(g, &s, now) {
			matched = append(matched, s)
		}
	}

	sortSongs(matched, spec)
	metrics.RuleEvaluationsTotal.WithLabelValues("success").Inc()
	return matched
}

func matchGroup(g *Group, s *catalog.SongView, now time.Time) bool {
	all := g.Match != MatchAny

	for i := range g.Rules {
		hit := matchRule(&g.Rules[i], s, now)
		if all && !hit {
			return false
		}
		if !all && hit {
			return true
		}
	}
	for i := range g.Groups {
		sub := &g.Groups[i]
		if sub.Empty() {
			// Empty subgroups match nothing; under "all" that sinks the
			// whole group, under "any" they simply contribute nothing.
			if all {
				return false
			}
			continue
		}
		hit := matchGroup(sub, s, now)
		if all && !hit {
			return false
		}
		if !all && hit {
			return true
		}
	}

	return all
}

func matchRule(r *Rule, s *catalog.SongView, now time.Time) bool {
	switch fieldKinds[r.Field] {
	case kindString:
		return matchString(r, stringField(r.Field, s))
	case kindNumber:
		return matchNumber(r, numberField(r.Field, s))
	case kindDate:
		return matchDate(r, s.DateAdded, now)
	}
	return false
}

func stringField(f Field, s *catalog.SongView) string {
	switch f {
	case FieldTitle:
		return s.Title
	case FieldArtist:
		return s.Artist
	case FieldAlbum:
		return s.Album
	case FieldGenre:
		return s.Genre
	}
	return ""
}

func numberField(f Field, s *catalog.SongView) int64 {
	switch f {
	case FieldYear:
		return int64(s.Year)
	case FieldDuration:
		return s.DurationMS
	case FieldPlayCount:
		return int64(s.PlayCount)
	}
	return 0
}

func matchString(r *Rule, value string) bool {
	v := strings.ToLower(value)
	want := strings.ToLower(r.Text)

	switch r.Operator {
	case OpContains:
		return strings.Contains(v, want)
	case OpNotContains:
		return !strings.Contains(v, want)
	case OpIs:
		return v == want
	case OpIsNot:
		return v != want
	case OpStartsWith:
		return strings.HasPrefix(v, want)
	case OpEndsWith:
		return strings.HasSuffix(v, want)
	}
	return false
}

func matchNumber(r *Rule, value int64) bool {
	switch r.Operator {
	case OpEquals:
		return value == r.Number
	case OpGreater:
		return value > r.Number
	case OpAtLeast:
		return value >= r.Number
	case OpLess:
		return value < r.Number
	case OpAtMost:
		return value <= r.Number
	case OpBetween:
		return value >= r.Number && value <= r.NumberTo
	}
	return false
}

func matchDate(r *Rule, value, now time.Time) bool {
	switch r.Operator {
	case OpInLastDays:
		cutoff := now.AddDate(0, 0, -int(r.Number))
		return !value.Before(cutoff)
	case OpBefore:
		t, ok := parseRuleDate(r.Date)
		return ok && value.Before(t)
	case OpAfter:
		t, ok := parseRuleDate(r.Date)
		return ok && value.After(t)
	}
	return false
}

func sortSongs(songs []catalog.SongView, spec SortSpec) {
	if spec.Field == "" {
		spec = DefaultSort
	}

	less := lessFunc(spec.Field)
	sort.SliceStable(songs, func(i, j int) bool {
		a, b := &songs[i], &songs[j]
		if spec.Desc {
			a, b = b, a
		}
		if c := less(a, b); c != 0 {
			return c < 0
		}
		// Stable pagination requires a total order.
		return a.ID < b.ID
	})
}

// lessFunc returns a three-way comparison for the given sort field.
func lessFunc(field string) func(a, b *catalog.SongView) int {
	switch Field(field) {
	case FieldTitle:
		return func(a, b *catalog.SongView) int { return compareFold(a.Title, b.Title) }
	case FieldArtist:
		return func(a, b *catalog.SongView) int { return compareFold(a.Artist, b.Artist) }
	case FieldAlbum:
		return func(a, b *catalog.SongView) int { return compareFold(a.Album, b.Album) }
	case FieldGenre:
		return func(a, b *catalog.SongView) int { return compareFold(a.Genre, b.Genre) }
	case FieldYear:
		return func(a, b *catalog.SongView) int { return compareInt(int64(a.Year), int64(b.Year)) }
	case FieldDuration:
		return func(a, b *catalog.SongView) int { return compareInt(a.DurationMS, b.DurationMS) }
	case FieldPlayCount:
		return func(a, b *catalog.SongView) int { return compareInt(int64(a.PlayCount), int64(b.PlayCount)) }
	default:
		return func(a, b *catalog.SongView) int {
			return compareInt(a.DateAdded.Unix(), b.DateAdded.Unix())
		}
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
