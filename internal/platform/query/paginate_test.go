package query

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const reportTemplate = "SELECT * FROM report r $P"

func reportPlaceholder() Placeholder {
	return Placeholder{
		Token: "$P",
		Base:  "WHERE r.active = TRUE",
		Filters: Filters{
			{Column: "name", Value: "x"},
			{Column: "url", Value: nil},
		},
	}
}

// assertContiguous checks that the "$n" references in sql are 1..len(args) in
// textual order.
func assertContiguous(t *testing.T, s Statement) {
	t.Helper()
	refs := ParamRefs(s.SQL)
	if len(refs) != len(s.Args) {
		t.Fatalf("statement references %d params but has %d args: %s", len(refs), len(s.Args), s.SQL)
	}
	for i, n := range refs {
		if n != i+1 {
			t.Fatalf("param reference %d is $%d, want $%d: %s", i, n, i+1, s.SQL)
		}
	}
}

func TestCursorPlan_Scenario(t *testing.T) {
	q := CursorQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{reportPlaceholder()},
		Cursor:       Cursor{Column: "id", Value: 42},
		PageSize:     10,
	}
	plan, err := q.Plan(20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "WHERE r.active = TRUE AND name = $1 AND id < $2 LIMIT $3"
	if !strings.Contains(plan.Data.SQL, want) {
		t.Errorf("expected SQL to contain %q, got %q", want, plan.Data.SQL)
	}
	args := plan.Data.Args
	if len(args) != 3 || args[0] != "x" || args[1] != 42 || args[2] != 10 {
		t.Errorf("unexpected args: %v", args)
	}
	if plan.Count != nil {
		t.Error("expected no count statement")
	}
	assertContiguous(t, plan.Data)
}

func TestCursorPlan_FirstPage(t *testing.T) {
	for _, v := range []interface{}{nil, ""} {
		q := CursorQuery{
			Template:     reportTemplate,
			Placeholders: []Placeholder{reportPlaceholder()},
			Cursor:       Cursor{Column: "id", Value: v},
			PageSize:     10,
		}
		plan, err := q.Plan(20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(plan.Data.SQL, "id <") || strings.Contains(plan.Data.SQL, "id >") {
			t.Errorf("expected no cursor predicate, got %q", plan.Data.SQL)
		}
		if !strings.HasSuffix(plan.Data.SQL, "name = $1 LIMIT $2") {
			t.Errorf("expected only LIMIT appended, got %q", plan.Data.SQL)
		}
		assertContiguous(t, plan.Data)
	}
}

func TestCursorPlan_DirectionInference(t *testing.T) {
	tests := []struct {
		name  string
		order *OrderBy
		op    string
	}{
		{"ascending", &OrderBy{Column: "r.id", Direction: "asc"}, ">"},
		{"descending", &OrderBy{Column: "r.id", Direction: "desc"}, "<"},
		{"unspecified direction", &OrderBy{Column: "r.id"}, "<"},
		{"no order", nil, "<"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := reportPlaceholder()
			p.OrderBy = tt.order
			plan, err := CursorQuery{
				Template:     reportTemplate,
				Placeholders: []Placeholder{p},
				Cursor:       Cursor{Column: "r.id", Value: 5},
			}.Plan(10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(plan.Data.SQL, "r.id "+tt.op+" $2") {
				t.Errorf("expected operator %s, got %q", tt.op, plan.Data.SQL)
			}
		})
	}
}

func TestCursorPlan_PredicateBeforeOrderBy(t *testing.T) {
	p := reportPlaceholder()
	p.OrderBy = &OrderBy{Column: "r.id", Direction: "desc"}
	p.SearchColumns = []string{"r.name", "r.report_path"}

	plan, err := CursorQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{p},
		Search:       "blood",
		Cursor:       Cursor{Column: "r.id", Value: 9},
		PageSize:     10,
	}.Plan(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sql := plan.Data.SQL
	like := strings.Index(sql, "LIKE LOWER($2)")
	cursor := strings.Index(sql, "r.id < $3")
	order := strings.Index(sql, "ORDER BY r.id DESC")
	limit := strings.Index(sql, "LIMIT $4")
	if like < 0 || cursor < 0 || order < 0 || limit < 0 {
		t.Fatalf("missing clause in %q", sql)
	}
	if !(like < cursor && cursor < order && order < limit) {
		t.Errorf("clauses out of order: %q", sql)
	}
	if plan.Data.Args[1] != "%blood%" {
		t.Errorf("unexpected search arg: %v", plan.Data.Args[1])
	}
	assertContiguous(t, plan.Data)
}

func TestCursorPlan_DefaultPageSize(t *testing.T) {
	plan, err := CursorQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{reportPlaceholder()},
	}.Plan(25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := plan.Data.Args
	if args[len(args)-1] != 25 {
		t.Errorf("expected default page size 25 as last arg, got %v", args)
	}

	if _, err := (CursorQuery{Template: reportTemplate, Placeholders: []Placeholder{reportPlaceholder()}}).Plan(0); !errors.Is(err, ErrMalformedSpec) {
		t.Errorf("expected malformed spec without any page size, got %v", err)
	}
}

func TestCursorPlan_CountIgnoresCursorAndLimit(t *testing.T) {
	p := reportPlaceholder()
	p.OrderBy = &OrderBy{Column: "r.id", Direction: "desc"}
	plan, err := CursorQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{p},
		Cursor:       Cursor{Column: "r.id", Value: 100},
		PageSize:     10,
		IncludeTotal: true,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Count == nil {
		t.Fatal("expected count statement")
	}
	want := "SELECT COUNT(*) FROM (SELECT * FROM report r WHERE r.active = TRUE AND name = $1 ORDER BY r.id DESC) AS subquery"
	if plan.Count.SQL != want {
		t.Errorf("got  %q\nwant %q", plan.Count.SQL, want)
	}
	if len(plan.Count.Args) != 1 || plan.Count.Args[0] != "x" {
		t.Errorf("unexpected count args: %v", plan.Count.Args)
	}
	assertContiguous(t, *plan.Count)
	assertContiguous(t, plan.Data)
}

func TestCursorPlan_NoPlaceholders(t *testing.T) {
	_, err := CursorQuery{
		Template: "SELECT * FROM report",
		Cursor:   Cursor{Column: "id", Value: 3},
	}.Plan(10)
	if !errors.Is(err, ErrNoCursorTarget) {
		t.Errorf("expected ErrNoCursorTarget, got %v", err)
	}

	plan, err := CursorQuery{Template: "SELECT * FROM report"}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Data.SQL != "SELECT * FROM report LIMIT $1" {
		t.Errorf("unexpected SQL %q", plan.Data.SQL)
	}
}

func TestPlan_NextCursor(t *testing.T) {
	rows := []Row{{"id": 30}, {"id": 20}, {"id": 10}}

	desc := &Plan{cursor: true, idField: "id"}
	if got := desc.NextCursor(rows); got != 10 {
		t.Errorf("descending: expected last row id 10, got %v", got)
	}

	asc := &Plan{cursor: true, ascending: true, idField: "id"}
	if got := asc.NextCursor(rows); got != 30 {
		t.Errorf("ascending: expected first row id 30, got %v", got)
	}

	if got := desc.NextCursor(nil); got != nil {
		t.Errorf("empty page: expected nil cursor, got %v", got)
	}

	offset := &Plan{}
	if got := offset.NextCursor(rows); got != nil {
		t.Errorf("offset plan: expected nil cursor, got %v", got)
	}
}

func TestOffsetPlan_LimitOffset(t *testing.T) {
	tests := []struct {
		page, size    int
		limit, offset int
	}{
		{1, 10, 10, 0},
		{2, 5, 5, 5},
		{4, 25, 25, 75},
		{0, 10, 10, 0},
	}
	for _, tt := range tests {
		plan, err := OffsetQuery{
			Template:     reportTemplate,
			Placeholders: []Placeholder{reportPlaceholder()},
			Page:         tt.page,
			PageSize:     tt.size,
		}.Plan(10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		args := plan.Data.Args
		if args[len(args)-2] != tt.limit || args[len(args)-1] != tt.offset {
			t.Errorf("page=%d size=%d: got LIMIT %v OFFSET %v, want %d/%d",
				tt.page, tt.size, args[len(args)-2], args[len(args)-1], tt.limit, tt.offset)
		}
		if !strings.HasSuffix(plan.Data.SQL, "LIMIT $2 OFFSET $3") {
			t.Errorf("unexpected SQL %q", plan.Data.SQL)
		}
		assertContiguous(t, plan.Data)
	}
}

func TestOffsetPlan_PageOverflow(t *testing.T) {
	t.Run("offset beyond int range is rejected", func(t *testing.T) {
		plan, err := OffsetQuery{
			Template:     reportTemplate,
			Placeholders: []Placeholder{reportPlaceholder()},
			Page:         math.MaxInt / 50,
			PageSize:     100,
		}.Plan(10)
		if !errors.Is(err, ErrPageOutOfRange) {
			t.Fatalf("expected ErrPageOutOfRange, got %v (plan %+v)", err, plan)
		}
		if !errors.Is(err, ErrMalformedSpec) {
			t.Errorf("expected error to wrap ErrMalformedSpec: %v", err)
		}
	})

	t.Run("largest addressable page is accepted", func(t *testing.T) {
		page := math.MaxInt/100 + 1
		plan, err := OffsetQuery{
			Template:     reportTemplate,
			Placeholders: []Placeholder{reportPlaceholder()},
			Page:         page,
			PageSize:     100,
		}.Plan(10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		args := plan.Data.Args
		offset, ok := args[len(args)-1].(int)
		if !ok || offset < 0 || offset != (page-1)*100 {
			t.Errorf("expected non-negative OFFSET %d, got %v", (page-1)*100, args[len(args)-1])
		}
	})
}

func TestOffsetPlan_BaseWithJoinAndWhere(t *testing.T) {
	plan, err := OffsetQuery{
		Template: reportTemplate,
		Placeholders: []Placeholder{{
			Token:   "$P",
			Base:    "LEFT JOIN x ON x.id = r.id WHERE r.active = TRUE",
			Filters: Filters{{Column: "r.name", Value: "CBC"}},
		}},
		PageSize: 10,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT * FROM report r LEFT JOIN x ON x.id = r.id WHERE r.active = TRUE AND r.name = $1 LIMIT $2 OFFSET $3"
	if plan.Data.SQL != want {
		t.Errorf("got  %q\nwant %q", plan.Data.SQL, want)
	}
	if strings.Count(plan.Data.SQL, "WHERE") != 1 {
		t.Errorf("expected a single WHERE, got %q", plan.Data.SQL)
	}
}

func TestOffsetPlan_TotalCountScenario(t *testing.T) {
	plan, err := OffsetQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{reportPlaceholder()},
		Page:         2,
		PageSize:     5,
		IncludeTotal: true,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := plan.Data.Args[len(plan.Data.Args)-1]; got != 5 {
		t.Errorf("expected OFFSET arg 5, got %v", got)
	}
	if plan.Count == nil {
		t.Fatal("expected count statement")
	}
	if strings.Contains(plan.Count.SQL, "LIMIT") {
		t.Errorf("count query must not be limited: %q", plan.Count.SQL)
	}
	if !strings.HasPrefix(plan.Count.SQL, "SELECT COUNT(*) FROM (SELECT * FROM report r") {
		t.Errorf("unexpected count SQL %q", plan.Count.SQL)
	}
	assertContiguous(t, *plan.Count)
	assertContiguous(t, plan.Data)
}

func TestOffsetPlan_RoundTripDefaultBase(t *testing.T) {
	base := " WHERE pm.active = TRUE AND pl.active = TRUE "
	plan, err := OffsetQuery{
		Template: "SELECT * FROM prescription_master pm $P",
		Placeholders: []Placeholder{{
			Token:         "$P",
			Base:          base,
			Filters:       Filters{{Column: "pm.name", Value: ""}},
			SearchColumns: []string{"pm.name"},
		}},
		PageSize: 10,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT * FROM prescription_master pm " + strings.TrimRight(base, " ") + " LIMIT $1 OFFSET $2"
	if plan.Data.SQL != want {
		t.Errorf("got  %q\nwant %q", plan.Data.SQL, want)
	}
}

func TestOffsetPlan_MultiplePlaceholders(t *testing.T) {
	tmpl := `SELECT d.*, (SELECT COUNT(*) FROM report r $REPORTS) AS reports
FROM doctor d $DOCTORS`

	// Declared in reverse textual order: numbering must still follow the text.
	plan, err := OffsetQuery{
		Template: tmpl,
		Placeholders: []Placeholder{
			{
				Token:   "$DOCTORS",
				Base:    "WHERE d.active = TRUE",
				Filters: Filters{{Column: "d.city", Value: "Pune"}},
				OrderBy: &OrderBy{Column: "d.name", Direction: "asc"},
			},
			{
				Token:   "$REPORTS",
				Base:    "WHERE r.created_by = d.phone",
				Filters: Filters{{Column: "r.name", Value: "x-ray"}, {Column: "r.phone", Value: nil}},
			},
		},
		Page:         3,
		PageSize:     10,
		IncludeTotal: true,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sql := plan.Data.SQL
	if !strings.Contains(sql, "r.name = $1") || !strings.Contains(sql, "d.city = $2") {
		t.Errorf("expected numbering in textual order, got %q", sql)
	}
	args := plan.Data.Args
	if args[0] != "x-ray" || args[1] != "Pune" || args[2] != 10 || args[3] != 20 {
		t.Errorf("unexpected args: %v", args)
	}
	if strings.Contains(sql, "$REPORTS") || strings.Contains(sql, "$DOCTORS") {
		t.Errorf("tokens left in SQL: %q", sql)
	}
	assertContiguous(t, plan.Data)
	assertContiguous(t, *plan.Count)
}

func TestPlan_GroupHavingOrderLayout(t *testing.T) {
	plan, err := OffsetQuery{
		Template: "SELECT pm.id, COUNT(*) AS n FROM prescription_master pm $P",
		Placeholders: []Placeholder{{
			Token:         "$P",
			Filters:       Filters{{Column: "pm.created_by", Value: "dr"}},
			SearchColumns: []string{"pm.name"},
			GroupBy:       []string{"pm.id"},
			Having:        Filters{{Column: "COUNT(*)", Value: 2}},
			OrderBy:       &OrderBy{Column: "pm.id", Direction: "DESC"},
		}},
		Search:   "abc",
		PageSize: 10,
	}.Plan(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT pm.id, COUNT(*) AS n FROM prescription_master pm WHERE 1=1 AND pm.created_by = $1" +
		" AND LOWER(CONCAT(COALESCE(pm.name::TEXT, ''))) LIKE LOWER($2)" +
		" GROUP BY pm.id HAVING COUNT(*) = $3 ORDER BY pm.id DESC LIMIT $4 OFFSET $5"
	if plan.Data.SQL != want {
		t.Errorf("got  %q\nwant %q", plan.Data.SQL, want)
	}
	assertContiguous(t, plan.Data)
}

func TestPlan_MalformedSpecs(t *testing.T) {
	tests := []struct {
		name string
		q    OffsetQuery
		err  error
	}{
		{
			name: "unknown token",
			q:    OffsetQuery{Template: "SELECT 1 $A", Placeholders: []Placeholder{{Token: "$B"}}},
			err:  ErrUnknownPlaceholder,
		},
		{
			name: "empty token",
			q:    OffsetQuery{Template: "SELECT 1", Placeholders: []Placeholder{{}}},
			err:  ErrUnknownPlaceholder,
		},
		{
			name: "placeholder in filter column",
			q: OffsetQuery{Template: "SELECT 1 $A $B", Placeholders: []Placeholder{
				{Token: "$A", Filters: Filters{{Column: "x = $B OR y", Value: 1}}},
				{Token: "$B"},
			}},
			err: ErrPlaceholderInColumn,
		},
		{
			name: "placeholder in search column",
			q:    OffsetQuery{Template: "SELECT 1 $A", Placeholders: []Placeholder{{Token: "$A", SearchColumns: []string{"$A"}}}},
			err:  ErrPlaceholderInColumn,
		},
		{
			name: "placeholder in group by",
			q:    OffsetQuery{Template: "SELECT 1 $A", Placeholders: []Placeholder{{Token: "$A", GroupBy: []string{"id, $A"}}}},
			err:  ErrPlaceholderInColumn,
		},
		{
			name: "invalid direction",
			q: OffsetQuery{Template: "SELECT 1 $A", Placeholders: []Placeholder{
				{Token: "$A", OrderBy: &OrderBy{Column: "id", Direction: "sideways"}},
			}},
			err: ErrInvalidDirection,
		},
		{
			name: "nested tokens",
			q: OffsetQuery{Template: "SELECT 1 $P $P2", Placeholders: []Placeholder{
				{Token: "$P"}, {Token: "$P2"},
			}},
			err: ErrMalformedSpec,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.PageSize = 10
			_, err := tt.q.Plan(10)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if !errors.Is(err, ErrMalformedSpec) {
				t.Errorf("expected error to wrap ErrMalformedSpec: %v", err)
			}
		})
	}
}

func TestCursorPlan_CursorColumnWithToken(t *testing.T) {
	_, err := CursorQuery{
		Template:     reportTemplate,
		Placeholders: []Placeholder{reportPlaceholder()},
		Cursor:       Cursor{Column: "$P", Value: 1},
	}.Plan(10)
	if !errors.Is(err, ErrPlaceholderInColumn) {
		t.Errorf("expected ErrPlaceholderInColumn, got %v", err)
	}
}
