package query

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func fixtureNovels() []novel {
	added := func(day int) time.Time {
		return time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC)
	}
	return []novel{
		{ID: 1, Title: "The Lord of the Rings", Language: "English", Year: 1954, Pages: 1178, Rating: 4.8, AddedAt: added(1), Available: true},
		{ID: 2, Title: "Dune", Language: "English", Year: 1965, Pages: 412, Rating: 4.6, AddedAt: added(2), Available: true},
		{ID: 3, Title: "Ringworld", Language: "English", Year: 1970, Pages: 342, Rating: 4.1, AddedAt: added(3), Available: false},
		{ID: 4, Title: "Solaris", Language: "Polish", Year: 1961, Pages: 204, Rating: 4.2, AddedAt: added(4), Available: true},
		{ID: 5, Title: "Le Petit Prince", Language: "French", Year: 1943, Pages: 96, Rating: 4.7, AddedAt: added(5), Available: true},
	}
}

func runQuery(t *testing.T, p Params) (Page[novel], error) {
	t.Helper()
	reg := novelRegistry(t)
	src := NewMemorySource(fixtureNovels()...)
	return Run(context.Background(), reg, src, p)
}

func titles(items []novel) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.Title
	}
	return out
}

func TestRun_ContainsIsCaseInsensitive(t *testing.T) {
	page, err := runQuery(t, Params{
		Filters:  map[string]string{"Title~=": "ring"},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"The Lord of the Rings", "Ringworld"}
	if got := titles(page.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestRun_ConjunctiveFilters(t *testing.T) {
	page, err := runQuery(t, Params{
		Filters: map[string]string{
			"Language==": "English",
			"Pages>=":    "300",
			"Year<":      "1970",
		},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"The Lord of the Rings", "Dune"}
	if got := titles(page.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestRun_SortDescending(t *testing.T) {
	page, err := runQuery(t, Params{
		SortBy:         "Pages",
		SortDescending: true,
		Page:           1,
		PageSize:       10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var pages []int64
	for _, n := range page.Items {
		pages = append(pages, n.Pages)
	}
	want := []int64{1178, 412, 342, 204, 96}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("page counts = %v, want %v", pages, want)
	}
}

func TestRun_DefaultSortIsIdentityAscending(t *testing.T) {
	page, err := runQuery(t, Params{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, n := range page.Items {
		if n.ID != int64(i+1) {
			t.Fatalf("item %d has ID %d, want identity-ascending order", i, n.ID)
		}
	}
}

func TestRun_SortTieBrokenByIdentity(t *testing.T) {
	reg := novelRegistry(t)
	src := NewMemorySource(
		novel{ID: 3, Title: "C", Language: "English"},
		novel{ID: 1, Title: "A", Language: "English"},
		novel{ID: 2, Title: "B", Language: "English"},
	)

	page, err := Run(context.Background(), reg, src, Params{
		SortBy:   "Language",
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"A", "B", "C"}
	if got := titles(page.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("tied rows must fall back to identity order, got %v", got)
	}
}

func TestRun_TextRelationalIsLexicographic(t *testing.T) {
	// Relational operators on Text compare lexicographically, the same
	// behavior the generic comparison gives every other type.
	page, err := runQuery(t, Params{
		Filters:  map[string]string{"Title>=": "S"},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Default identity-ascending order.
	want := []string{"The Lord of the Rings", "Solaris"}
	if got := titles(page.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestRun_PaginationBoundaries(t *testing.T) {
	// 5 matching rows, page size 2: pages are [2, 2, 1].
	base := Params{PageSize: 2}

	tests := []struct {
		name       string
		page       int
		wantLen    int
		wantErr    bool
		wantTotals int
	}{
		{name: "first page", page: 1, wantLen: 2, wantTotals: 3},
		{name: "middle page", page: 2, wantLen: 2, wantTotals: 3},
		{name: "last page remainder", page: 3, wantLen: 1, wantTotals: 3},
		{name: "past the end", page: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Page = tt.page
			page, err := runQuery(t, p)

			if tt.wantErr {
				var outOfRange *PageOutOfRangeError
				if !errors.As(err, &outOfRange) {
					t.Fatalf("error = %v, want PageOutOfRangeError", err)
				}
				if outOfRange.Requested != 4 || outOfRange.TotalPages != 3 {
					t.Fatalf("error = {requested:%d total:%d}, want {requested:4 total:3}",
						outOfRange.Requested, outOfRange.TotalPages)
				}
				return
			}

			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(page.Items) != tt.wantLen {
				t.Fatalf("len(items) = %d, want %d", len(page.Items), tt.wantLen)
			}
			if page.TotalPages != tt.wantTotals {
				t.Fatalf("totalPages = %d, want %d", page.TotalPages, tt.wantTotals)
			}
		})
	}
}

func TestRun_EmptyResultIsSuccess(t *testing.T) {
	page, err := runQuery(t, Params{
		Filters:  map[string]string{"Title==": "No Such Book"},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(page.Items) != 0 || page.TotalPages != 0 {
		t.Fatalf("page = {len:%d totalPages:%d}, want empty with 0 pages", len(page.Items), page.TotalPages)
	}
	if page.HasPrevious() || page.HasNext() {
		t.Fatalf("empty page must have no neighbors")
	}
}

func TestRun_InvalidPageParameters(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{name: "zero page", page: 0, pageSize: 10},
		{name: "negative page", page: -1, pageSize: 10},
		{name: "zero page size", page: 1, pageSize: 0},
		{name: "negative page size", page: 1, pageSize: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runQuery(t, Params{Page: tt.page, PageSize: tt.pageSize})
			var invalid *InvalidPageParametersError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidPageParametersError", err)
			}
		})
	}
}

func TestRun_UnknownSortField(t *testing.T) {
	_, err := runQuery(t, Params{SortBy: "Publisher", Page: 1, PageSize: 10})
	var unknown *UnknownSortFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownSortFieldError", err)
	}
	if len(unknown.Allowed) == 0 {
		t.Fatalf("error must enumerate the allow-list")
	}
}

func TestRun_FilterErrorsPrecedePageValidation(t *testing.T) {
	// The pipeline parses before it paginates, so a bad filter wins
	// over bad page parameters.
	_, err := runQuery(t, Params{
		Filters:  map[string]string{"Bogus": "1"},
		Page:     0,
		PageSize: 0,
	})
	var malformed *MalformedFilterKeyError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedFilterKeyError", err)
	}
}

func TestRun_PageMetadata(t *testing.T) {
	page, err := runQuery(t, Params{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !page.HasPrevious() {
		t.Fatalf("page 2 of 3 must have a previous page")
	}
	if !page.HasNext() {
		t.Fatalf("page 2 of 3 must have a next page")
	}

	last, err := runQuery(t, Params{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if last.HasNext() {
		t.Fatalf("last page must not have a next page")
	}
}

func TestRun_Idempotent(t *testing.T) {
	p := Params{
		Filters:        map[string]string{"Language==": "English"},
		SortBy:         "Pages",
		SortDescending: true,
		Page:           1,
		PageSize:       2,
	}

	first, err := runQuery(t, p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := runQuery(t, p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical requests over unchanged data returned different pages")
	}
}

func TestRun_BooleanAndDateFilters(t *testing.T) {
	page, err := runQuery(t, Params{
		Filters: map[string]string{
			"Available==": "false",
		},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := titles(page.Items); !reflect.DeepEqual(got, []string{"Ringworld"}) {
		t.Fatalf("titles = %v, want [Ringworld]", got)
	}

	page, err = runQuery(t, Params{
		Filters: map[string]string{
			"AddedAt>=": "2021-01-04",
		},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := titles(page.Items); !reflect.DeepEqual(got, []string{"Solaris", "Le Petit Prince"}) {
		t.Fatalf("titles = %v, want [Solaris, Le Petit Prince]", got)
	}
}
