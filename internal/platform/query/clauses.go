package query

import (
	"fmt"
	"strings"
)

// CompileFilters returns "col1 = $i AND col2 = $j ..." for the active filters,
// binding one parameter per active filter in slice order. It returns "" when
// no filter is active.
func CompileFilters(c *Compilation, filters Filters) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if !Active(f.Value) {
			continue
		}
		parts = append(parts, f.Column+" = "+c.Bind(f.Value))
	}
	return strings.Join(parts, " AND ")
}

// CompileSearch returns a case-insensitive substring condition over the
// space-joined text of the given columns. It returns "" when the term or the
// column list is empty.
func CompileSearch(c *Compilation, term string, columns []string) string {
	if term == "" || len(columns) == 0 {
		return ""
	}
	coalesced := make([]string, len(columns))
	for i, col := range columns {
		coalesced[i] = fmt.Sprintf("COALESCE(%s::TEXT, '')", col)
	}
	ref := c.Bind("%" + strings.ToLower(term) + "%")
	return fmt.Sprintf("LOWER(CONCAT(%s)) LIKE LOWER(%s)", strings.Join(coalesced, " || ' ' || "), ref)
}

// CompileGroupBy returns "GROUP BY c1, c2" or "" for an empty list.
func CompileGroupBy(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(columns, ", ")
}

// CompileHaving returns "HAVING ..." built from the active filters, or "".
func CompileHaving(c *Compilation, filters Filters) string {
	cond := CompileFilters(c, filters)
	if cond == "" {
		return ""
	}
	return "HAVING " + cond
}

// OrderBy is a single ORDER BY column and direction ("asc" or "desc", any case).
type OrderBy struct {
	Column    string
	Direction string
}

// Dir returns the normalized direction. An empty direction is DESC.
func (o OrderBy) Dir() (string, error) {
	switch strings.ToUpper(strings.TrimSpace(o.Direction)) {
	case "ASC":
		return "ASC", nil
	case "DESC", "":
		return "DESC", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, o.Direction)
	}
}

// Ascending reports whether the order is ascending. Invalid directions are
// treated as descending; use Dir to validate.
func (o *OrderBy) Ascending() bool {
	if o == nil {
		return false
	}
	dir, err := o.Dir()
	return err == nil && dir == "ASC"
}

// CompileOrderBy returns "ORDER BY column DIR", or "" when o is nil. The
// direction cannot be parameterized, so anything other than ASC/DESC is
// rejected.
func CompileOrderBy(o *OrderBy) (string, error) {
	if o == nil {
		return "", nil
	}
	if strings.TrimSpace(o.Column) == "" {
		return "", fmt.Errorf("%w: order by column is empty", ErrMalformedSpec)
	}
	dir, err := o.Dir()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORDER BY %s %s", o.Column, dir), nil
}
