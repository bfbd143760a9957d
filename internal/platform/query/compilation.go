package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Filter is a single column = value condition. Column is a trusted SQL
// expression such as "r.name"; Value is always bound, never interpolated.
type Filter struct {
	Column string
	Value  interface{}
}

// Filters is an ordered filter map. Parameters are bound in slice order.
type Filters []Filter

// Active reports whether a filter value contributes to a compiled clause.
// nil, nil pointers and empty strings are inactive.
func Active(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case *string:
		return x != nil && *x != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return !rv.IsNil()
	}
	return true
}

// Compilation is the state threaded through every compiler during one
// statement build. Binding a value is the only way a positional parameter is
// introduced.
type Compilation struct {
	args []interface{}
}

// NewCompilation returns an empty compilation context.
func NewCompilation() *Compilation {
	return &Compilation{}
}

// Bind appends v to the argument list and returns its "$n" reference.
func (c *Compilation) Bind(v interface{}) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

// Len returns the number of bound parameters.
func (c *Compilation) Len() int { return len(c.args) }

// Args returns a copy of the bound parameters.
func (c *Compilation) Args() []interface{} {
	out := make([]interface{}, len(c.args))
	copy(out, c.args)
	return out
}

// Fragment accumulates the SQL that replaces one placeholder token. It tracks
// whether a WHERE keyword has been emitted so conditions are joined correctly
// without rescanning the text.
type Fragment struct {
	sb       strings.Builder
	hasWhere bool
	grew     bool
}

const defaultBaseClause = "WHERE 1=1"

var whereKeyword = regexp.MustCompile(`(?i)\bWHERE\b`)

// NewFragment starts a fragment from a default base clause. An empty base
// becomes "WHERE 1=1". The base is scanned once for a standalone WHERE
// keyword, wherever it appears ("LEFT JOIN x ON ... WHERE ...").
func NewFragment(base string) *Fragment {
	if strings.TrimSpace(base) == "" {
		base = defaultBaseClause
	}
	f := &Fragment{hasWhere: whereKeyword.MatchString(base)}
	f.sb.WriteString(base)
	return f
}

// Where joins a boolean condition with AND, or opens the WHERE clause when
// none has been emitted yet. Empty conditions are ignored.
func (f *Fragment) Where(cond string) {
	if cond == "" {
		return
	}
	if f.hasWhere {
		f.Append("AND " + cond)
		return
	}
	f.Append("WHERE " + cond)
	f.hasWhere = true
}

// Append adds a clause separated by a single space. Empty clauses are ignored.
func (f *Fragment) Append(clause string) {
	if clause == "" {
		return
	}
	if !f.grew {
		trimmed := strings.TrimRight(f.sb.String(), " \t\n")
		f.sb.Reset()
		f.sb.WriteString(trimmed)
		f.grew = true
	}
	f.sb.WriteByte(' ')
	f.sb.WriteString(clause)
}

// HasWhere reports whether the fragment already carries a WHERE keyword.
func (f *Fragment) HasWhere() bool { return f.hasWhere }

func (f *Fragment) String() string { return f.sb.String() }
