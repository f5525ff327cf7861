package rules

import (
	"testing"
	"time"

	"tunevault/internal/catalog"
)

func testSongs() []catalog.SongView {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []catalog.SongView{
		{ID: 1, Title: "Old Rocker", Artist: "RockBand", Genre: "Rock", Year: 1995, DurationMS: 180000, PlayCount: 10, DateAdded: base},
		{ID: 2, Title: "New Rocker", Artist: "RockBand", Genre: "Rock", Year: 2005, DurationMS: 240000, PlayCount: 3, DateAdded: base.AddDate(0, 1, 0)},
		{ID: 3, Title: "Jazz Tune", Artist: "JazzTrio", Genre: "Jazz", Year: 2010, DurationMS: 300000, PlayCount: 0, DateAdded: base.AddDate(0, 2, 0)},
		{ID: 4, Title: "Another Rocker", Artist: "OtherBand", Genre: "Rock", Year: 2020, DurationMS: 200000, PlayCount: 7, DateAdded: base.AddDate(0, 3, 0)},
	}
}

func ids(songs []catalog.SongView) []int64 {
	out := make([]int64, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEvaluateAllGroup(t *testing.T) {
	t.Parallel()

	// genre is Rock AND year >= 2000, default order: date added, newest first.
	g := &Group{
		Match: MatchAll,
		Rules: []Rule{
			{Field: FieldGenre, Operator: OpIs, Text: "rock"},
			{Field: FieldYear, Operator: OpAtLeast, Number: 2000},
		},
	}

	got := Evaluate(g, testSongs(), SortSpec{})
	if !equalIDs(ids(got), []int64{4, 2}) {
		t.Errorf("got ids %v, want [4 2]", ids(got))
	}
}

func TestEvaluateAnyGroup(t *testing.T) {
	t.Parallel()

	g := &Group{
		Match: MatchAny,
		Rules: []Rule{
			{Field: FieldGenre, Operator: OpIs, Text: "Jazz"},
			{Field: FieldPlayCount, Operator: OpAtLeast, Number: 10},
		},
	}

	got := Evaluate(g, testSongs(), SortSpec{Field: "year"})
	if !equalIDs(ids(got), []int64{1, 3}) {
		t.Errorf("got ids %v, want [1 3]", ids(got))
	}
}

func TestEvaluateNestedGroups(t *testing.T) {
	t.Parallel()

	// Rock AND (year < 2000 OR playCount >= 7)
	g := &Group{
		Match: MatchAll,
		Rules: []Rule{
			{Field: FieldGenre, Operator: OpIs, Text: "Rock"},
		},
		Groups: []Group{{
			Match: MatchAny,
			Rules: []Rule{
				{Field: FieldYear, Operator: OpLess, Number: 2000},
				{Field: FieldPlayCount, Operator: OpAtLeast, Number: 7},
			},
		}},
	}

	got := Evaluate(g, testSongs(), SortSpec{Field: "title"})
	if !equalIDs(ids(got), []int64{4, 1}) {
		t.Errorf("got ids %v, want [4 1]", ids(got))
	}
}

func TestEvaluateEmptyGroupMatchesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		g    *Group
	}{
		{"nil group", nil},
		{"no rules", &Group{Match: MatchAll}},
		{"any with no rules", &Group{Match: MatchAny}},
		{"only empty subgroups", &Group{Match: MatchAll, Groups: []Group{{Match: MatchAny}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tt.g, testSongs(), SortSpec{})
			if got == nil {
				t.Fatal("Evaluate returned nil, want empty slice")
			}
			if len(got) != 0 {
				t.Errorf("got %d songs, want 0", len(got))
			}
		})
	}
}

func TestEvaluateStringOperators(t *testing.T) {
	t.Parallel()

	songs := testSongs()
	tests := []struct {
		name string
		rule Rule
		want []int64
	}{
		{"contains is case-insensitive", Rule{Field: FieldTitle, Operator: OpContains, Text: "ROCKER"}, []int64{4, 2, 1}},
		{"notContains", Rule{Field: FieldTitle, Operator: OpNotContains, Text: "Rocker"}, []int64{3}},
		{"startsWith", Rule{Field: FieldTitle, Operator: OpStartsWith, Text: "new"}, []int64{2}},
		{"endsWith", Rule{Field: FieldArtist, Operator: OpEndsWith, Text: "band"}, []int64{4, 2, 1}},
		{"isNot", Rule{Field: FieldGenre, Operator: OpIsNot, Text: "rock"}, []int64{3}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := &Group{Match: MatchAll, Rules: []Rule{tt.rule}}
			got := Evaluate(g, songs, SortSpec{})
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("got ids %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestEvaluateNumberOperators(t *testing.T) {
	t.Parallel()

	songs := testSongs()
	tests := []struct {
		name string
		rule Rule
		want int
	}{
		{"equals", Rule{Field: FieldYear, Operator: OpEquals, Number: 2010}, 1},
		{"greaterThan", Rule{Field: FieldYear, Operator: OpGreater, Number: 2005}, 2},
		{"between", Rule{Field: FieldDuration, Operator: OpBetween, Number: 190000, NumberTo: 250000}, 2},
		{"atMost", Rule{Field: FieldPlayCount, Operator: OpAtMost, Number: 3}, 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := &Group{Match: MatchAll, Rules: []Rule{tt.rule}}
			got := Evaluate(g, songs, SortSpec{})
			if len(got) != tt.want {
				t.Errorf("got %d songs, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEvaluateDateOperators(t *testing.T) {
	t.Parallel()

	songs := testSongs()

	t.Run("before", func(t *testing.T) {
		t.Parallel()
		g := &Group{Match: MatchAll, Rules: []Rule{
			{Field: FieldDateAdded, Operator: OpBefore, Date: "2026-02-15"},
		}}
		got := Evaluate(g, songs, SortSpec{})
		if !equalIDs(ids(got), []int64{2, 1}) {
			t.Errorf("got ids %v, want [2 1]", ids(got))
		}
	})

	t.Run("after", func(t *testing.T) {
		t.Parallel()
		g := &Group{Match: MatchAll, Rules: []Rule{
			{Field: FieldDateAdded, Operator: OpAfter, Date: "2026-02-15"},
		}}
		got := Evaluate(g, songs, SortSpec{})
		if !equalIDs(ids(got), []int64{4, 3}) {
			t.Errorf("got ids %v, want [4 3]", ids(got))
		}
	})

	t.Run("inLastDays", func(t *testing.T) {
		t.Parallel()
		songs := []catalog.SongView{
			{ID: 1, DateAdded: time.Now().AddDate(0, 0, -2)},
			{ID: 2, DateAdded: time.Now().AddDate(0, 0, -40)},
		}
		g := &Group{Match: MatchAll, Rules: []Rule{
			{Field: FieldDateAdded, Operator: OpInLastDays, Number: 7},
		}}
		got := Evaluate(g, songs, SortSpec{})
		if !equalIDs(ids(got), []int64{1}) {
			t.Errorf("got ids %v, want [1]", ids(got))
		}
	})
}

func TestEvaluateDefaultSortTiebreak(t *testing.T) {
	t.Parallel()

	// Identical date added: newest-first order falls back to id descending.
	same := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	songs := []catalog.SongView{
		{ID: 1, Genre: "Rock", DateAdded: same},
		{ID: 2, Genre: "Rock", DateAdded: same},
		{ID: 3, Genre: "Rock", DateAdded: same},
	}
	g := &Group{Match: MatchAll, Rules: []Rule{
		{Field: FieldGenre, Operator: OpIs, Text: "Rock"},
	}}

	got := Evaluate(g, songs, SortSpec{})
	if !equalIDs(ids(got), []int64{3, 2, 1}) {
		t.Errorf("got ids %v, want [3 2 1]", ids(got))
	}
}

func TestEvaluateSortAscending(t *testing.T) {
	t.Parallel()

	g := &Group{Match: MatchAll, Rules: []Rule{
		{Field: FieldGenre, Operator: OpIs, Text: "Rock"},
	}}
	got := Evaluate(g, testSongs(), SortSpec{Field: "year"})
	if !equalIDs(ids(got), []int64{1, 2, 4}) {
		t.Errorf("got ids %v, want [1 2 4]", ids(got))
	}
}
