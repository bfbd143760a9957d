package query

import (
	"errors"
	"fmt"
)

// ErrMalformedSpec is the root of every validation error. Validation happens
// before any statement is executed.
var ErrMalformedSpec = errors.New("malformed query specification")

var (
	ErrUnknownPlaceholder  = fmt.Errorf("%w: unknown placeholder token", ErrMalformedSpec)
	ErrPlaceholderInColumn = fmt.Errorf("%w: column expression contains a placeholder token", ErrMalformedSpec)
	ErrInvalidDirection    = fmt.Errorf("%w: order direction must be ASC or DESC", ErrMalformedSpec)
	ErrNoCursorTarget      = fmt.Errorf("%w: cursor value given but no placeholder to attach it to", ErrMalformedSpec)
	ErrPageOutOfRange      = fmt.Errorf("%w: page offset overflows", ErrMalformedSpec)
)

// Statement kinds reported by ExecError.
const (
	StatementData  = "data"
	StatementCount = "count"
)

// ExecError wraps a failure returned by the Executor. No partial result
// accompanies it.
type ExecError struct {
	Statement string
	SQL       string
	Err       error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute %s query: %v", e.Statement, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
