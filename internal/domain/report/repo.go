package report

import (
	"context"
	"errors"

	"github.com/medrecords/api/internal/platform/query"
)

var (
	// ErrValidation marks a request rejected before reaching the database.
	ErrValidation = errors.New("validation failed")
	// ErrNoSession is returned when an operation needs a session user.
	ErrNoSession = errors.New("no session user")
)

type ReportRepository interface {
	List(ctx context.Context, f ListFilter, p CursorParams) (*query.Result, error)
	History(ctx context.Context, f HistoryFilter, p CursorParams) (*query.Result, error)
	Paged(ctx context.Context, f ListFilter, p PageParams) (*query.Result, error)
	Create(ctx context.Context, r *Report) error
}
