// Package query assembles parameterized PostgreSQL statements for list, search
// and report endpoints.
//
// A caller supplies a base query template containing one or more placeholder
// tokens and, for each token, a Placeholder describing its filters, search
// columns, grouping, HAVING conditions, ordering and default base clause. The
// package compiles every placeholder into a SQL fragment, splices the fragments
// into the template and appends pagination. Two strategies are provided:
//
//   - OffsetQuery: page/page size mapped to LIMIT/OFFSET, optionally paired with
//     a COUNT(*) wrapper executed concurrently with the data query.
//   - CursorQuery: "infinite scroll" pagination comparing a cursor column
//     against the last seen value, returning the next cursor.
//
// Values are always bound as positional parameters. A parameter's index is the
// length of the argument list at the moment it is bound, so indices are
// strictly increasing in the order they appear in the final text. Column
// expressions are trusted and never escaped.
package query
