package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var paramRef = regexp.MustCompile(`\$(\d+)`)

// Inline renders sql with its arguments substituted, for logs only. The
// output is never executed.
func Inline(sql string, args []interface{}) string {
	return paramRef.ReplaceAllStringFunc(sql, func(ref string) string {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 || n > len(args) {
			return ref
		}
		switch v := args[n-1].(type) {
		case nil:
			return "NULL"
		case string:
			return "'" + strings.ReplaceAll(v, "'", "''") + "'"
		default:
			return fmt.Sprintf("%v", v)
		}
	})
}

// ParamRefs returns the "$n" indices referenced by sql in textual order.
func ParamRefs(sql string) []int {
	matches := paramRef.FindAllStringSubmatch(sql, -1)
	refs := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		refs = append(refs, n)
	}
	return refs
}
