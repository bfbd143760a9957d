package query

import (
	"fmt"
	"math"
	"strings"
)

// Statement is a SQL text with exactly the arguments its "$n" tokens reference.
type Statement struct {
	SQL  string
	Args []interface{}
}

// Plan is a compiled, not yet executed, pagination request.
type Plan struct {
	Data Statement
	// Count is nil unless a total count was requested.
	Count *Statement

	cursor    bool
	ascending bool
	idField   string
}

// NextCursor returns the identifier of the row the next page continues from:
// the first row when ascending, the last row when descending. It returns nil
// for offset plans and for empty pages, which signals end of stream.
func (p *Plan) NextCursor(rows []Row) interface{} {
	if !p.cursor || len(rows) == 0 {
		return nil
	}
	row := rows[len(rows)-1]
	if p.ascending {
		row = rows[0]
	}
	return row[p.idField]
}

// OffsetQuery requests a page by number.
type OffsetQuery struct {
	Template     string
	Placeholders []Placeholder
	Search       string
	Page         int
	PageSize     int
	IncludeTotal bool
}

// Plan compiles the data statement and, when requested, the count statement.
// Page below 1 is treated as 1 and a page size below 1 falls back to
// defaultPageSize. A page whose offset does not fit in an int is rejected.
func (q OffsetQuery) Plan(defaultPageSize int) (*Plan, error) {
	t, err := parseTemplate(q.Template, q.Placeholders)
	if err != nil {
		return nil, err
	}
	size, err := pageSize(q.PageSize, defaultPageSize)
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page %d with page size %d", ErrPageOutOfRange, page, size)
	}

	c := NewCompilation()
	sql := trimSQL(t.compile(c, q.Search, nil))

	plan := &Plan{}
	if q.IncludeTotal {
		// Captured before LIMIT/OFFSET are bound so the count args match its text.
		plan.Count = &Statement{SQL: countSQL(sql), Args: c.Args()}
	}
	limit := c.Bind(size)
	offset := c.Bind((page - 1) * size)
	plan.Data = Statement{
		SQL:  sql + " LIMIT " + limit + " OFFSET " + offset,
		Args: c.Args(),
	}
	return plan, nil
}

// Cursor is the last seen value of the cursor column. A nil or empty Value
// requests the first page.
type Cursor struct {
	Column string
	Value  interface{}
}

// DefaultIDField is the row key read to produce the next cursor.
const DefaultIDField = "id"

// CursorQuery requests the page after a cursor ("infinite scroll").
type CursorQuery struct {
	Template     string
	Placeholders []Placeholder
	Search       string
	Cursor       Cursor
	// PageSize below 1 uses the configured default page size.
	PageSize     int
	IncludeTotal bool
	// IDField names the result column returned as the next cursor. Empty
	// means DefaultIDField.
	IDField string
}

// Plan compiles the data statement with the cursor comparison and LIMIT, and
// when requested a count statement built from the template alone.
func (q CursorQuery) Plan(defaultPageSize int) (*Plan, error) {
	t, err := parseTemplate(q.Template, q.Placeholders)
	if err != nil {
		return nil, err
	}
	size, err := pageSize(q.PageSize, defaultPageSize)
	if err != nil {
		return nil, err
	}

	ascending := t.governingOrder().Ascending()

	var ks *keyset
	if Active(q.Cursor.Value) {
		if strings.TrimSpace(q.Cursor.Column) == "" {
			return nil, fmt.Errorf("%w: cursor column is empty", ErrMalformedSpec)
		}
		if err := checkExpression(q.Cursor.Column, q.Placeholders); err != nil {
			return nil, err
		}
		target, ok := t.cursorTarget()
		if !ok {
			return nil, ErrNoCursorTarget
		}
		op := "<"
		if ascending {
			op = ">"
		}
		ks = &keyset{target: target, column: q.Cursor.Column, op: op, value: q.Cursor.Value}
	}

	idField := q.IDField
	if idField == "" {
		idField = DefaultIDField
	}
	plan := &Plan{cursor: true, ascending: ascending, idField: idField}

	c := NewCompilation()
	sql := trimSQL(t.compile(c, q.Search, ks))
	limit := c.Bind(size)
	plan.Data = Statement{SQL: sql + " LIMIT " + limit, Args: c.Args()}

	if q.IncludeTotal {
		cc := NewCompilation()
		plan.Count = &Statement{SQL: countSQL(trimSQL(t.compile(cc, q.Search, nil))), Args: cc.Args()}
	}
	return plan, nil
}

func pageSize(requested, fallback int) (int, error) {
	if requested >= 1 {
		return requested, nil
	}
	if fallback >= 1 {
		return fallback, nil
	}
	return 0, fmt.Errorf("%w: no page size given and no default configured", ErrMalformedSpec)
}

func countSQL(sql string) string {
	return "SELECT COUNT(*) FROM (" + sql + ") AS subquery"
}

func trimSQL(sql string) string {
	return strings.TrimRight(sql, " \t\r\n")
}
