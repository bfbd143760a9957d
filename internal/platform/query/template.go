package query

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholder describes how one token of a base query is compiled.
type Placeholder struct {
	// Token is the literal marker replaced in the base query, e.g. "$PLACEHOLDER".
	Token   string
	Filters Filters
	GroupBy []string
	Having  Filters
	OrderBy *OrderBy
	// Base is the default clause the fragment starts from, normally a full
	// "WHERE ..." prefix. Empty means "WHERE 1=1".
	Base          string
	SearchColumns []string
}

func (p Placeholder) expressions() []string {
	exprs := make([]string, 0, len(p.Filters)+len(p.Having)+len(p.GroupBy)+len(p.SearchColumns)+2)
	for _, f := range p.Filters {
		exprs = append(exprs, f.Column)
	}
	for _, f := range p.Having {
		exprs = append(exprs, f.Column)
	}
	exprs = append(exprs, p.GroupBy...)
	exprs = append(exprs, p.SearchColumns...)
	exprs = append(exprs, p.Base)
	if p.OrderBy != nil {
		exprs = append(exprs, p.OrderBy.Column)
	}
	return exprs
}

// keyset is the cursor comparison injected into the WHERE section of one
// placeholder.
type keyset struct {
	target int
	column string
	op     string
	value  interface{}
}

// template is a validated base query with the position of every token.
type template struct {
	text         string
	placeholders []Placeholder
	pos          []int
	// order lists placeholder indices by token position in text.
	order []int
}

func parseTemplate(text string, placeholders []Placeholder) (*template, error) {
	t := &template{
		text:         text,
		placeholders: placeholders,
		pos:          make([]int, len(placeholders)),
		order:        make([]int, len(placeholders)),
	}

	for i, p := range placeholders {
		if p.Token == "" {
			return nil, fmt.Errorf("%w: placeholder %d has an empty token", ErrUnknownPlaceholder, i)
		}
		idx := strings.Index(text, p.Token)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q not found in base query", ErrUnknownPlaceholder, p.Token)
		}
		t.pos[i] = idx
		t.order[i] = i

		for j, other := range placeholders {
			if i != j && other.Token != "" && strings.Contains(p.Token, other.Token) {
				return nil, fmt.Errorf("%w: token %q contains token %q", ErrMalformedSpec, p.Token, other.Token)
			}
		}
		if p.OrderBy != nil {
			if _, err := CompileOrderBy(p.OrderBy); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range placeholders {
		for _, expr := range p.expressions() {
			if err := checkExpression(expr, placeholders); err != nil {
				return nil, err
			}
		}
	}

	sort.SliceStable(t.order, func(a, b int) bool {
		return t.pos[t.order[a]] < t.pos[t.order[b]]
	})
	for k := 1; k < len(t.order); k++ {
		prev := t.order[k-1]
		if t.pos[prev]+len(placeholders[prev].Token) > t.pos[t.order[k]] {
			return nil, fmt.Errorf("%w: tokens %q and %q overlap", ErrMalformedSpec,
				placeholders[prev].Token, placeholders[t.order[k]].Token)
		}
	}
	return t, nil
}

func checkExpression(expr string, placeholders []Placeholder) error {
	for _, p := range placeholders {
		if p.Token != "" && strings.Contains(expr, p.Token) {
			return fmt.Errorf("%w: %q contains %q", ErrPlaceholderInColumn, expr, p.Token)
		}
	}
	return nil
}

// governingOrder returns the order of the first placeholder, in declaration
// order, that declares one.
func (t *template) governingOrder() *OrderBy {
	for _, p := range t.placeholders {
		if p.OrderBy != nil {
			return p.OrderBy
		}
	}
	return nil
}

// cursorTarget returns the placeholder index that receives the cursor
// predicate: the first one declaring an order, otherwise the last in the text.
func (t *template) cursorTarget() (int, bool) {
	if len(t.placeholders) == 0 {
		return 0, false
	}
	for i, p := range t.placeholders {
		if p.OrderBy != nil {
			return i, true
		}
	}
	return t.order[len(t.order)-1], true
}

// compile substitutes every token with its compiled fragment. Placeholders are
// compiled in the order their tokens appear so parameter numbering follows
// the final text.
func (t *template) compile(c *Compilation, search string, ks *keyset) string {
	var sb strings.Builder
	last := 0
	for _, i := range t.order {
		p := t.placeholders[i]
		var own *keyset
		if ks != nil && ks.target == i {
			own = ks
		}
		sb.WriteString(t.text[last:t.pos[i]])
		sb.WriteString(compilePlaceholder(c, p, search, own))
		last = t.pos[i] + len(p.Token)
	}
	sb.WriteString(t.text[last:])
	return sb.String()
}

func compilePlaceholder(c *Compilation, p Placeholder, search string, ks *keyset) string {
	f := NewFragment(p.Base)
	f.Where(CompileFilters(c, p.Filters))
	f.Where(CompileSearch(c, search, p.SearchColumns))
	if ks != nil {
		f.Where(fmt.Sprintf("%s %s %s", ks.column, ks.op, c.Bind(ks.value)))
	}
	f.Append(CompileGroupBy(p.GroupBy))
	f.Append(CompileHaving(c, p.Having))
	// Directions were validated by parseTemplate.
	order, _ := CompileOrderBy(p.OrderBy)
	f.Append(order)
	return f.String()
}
