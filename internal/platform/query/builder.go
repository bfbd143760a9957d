package query

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

// Row is one result row keyed by column name.
type Row = map[string]interface{}

// Executor runs a parameterized statement, binding "$k" to args[k-1].
type Executor interface {
	Query(ctx context.Context, sql string, args ...interface{}) ([]Row, error)
}

// Result is the outcome of one paginated request.
type Result struct {
	Data []Row
	// Total is nil unless a total count was requested.
	Total *int64
	// NextCursor is nil for offset pagination and at end of stream.
	NextCursor interface{}
}

// Builder compiles and executes paginated queries. It holds no per-request
// state and is safe for concurrent use.
type Builder struct {
	exec     Executor
	pageSize int
	logger   zerolog.Logger
}

// NewBuilder creates a Builder. defaultPageSize is used by requests that do
// not carry a page size.
func NewBuilder(exec Executor, defaultPageSize int, logger zerolog.Logger) *Builder {
	return &Builder{
		exec:     exec,
		pageSize: defaultPageSize,
		logger:   logger.With().Str("component", "query").Logger(),
	}
}

// Offset runs an offset-paginated request.
func (b *Builder) Offset(ctx context.Context, q OffsetQuery) (*Result, error) {
	plan, err := q.Plan(b.pageSize)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, plan)
}

// Cursor runs a cursor-paginated request.
func (b *Builder) Cursor(ctx context.Context, q CursorQuery) (*Result, error) {
	plan, err := q.Plan(b.pageSize)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, plan)
}

// Run executes a compiled plan. With a count statement both statements run
// concurrently and a failure of either fails the call.
func (b *Builder) Run(ctx context.Context, plan *Plan) (*Result, error) {
	b.logStatement(StatementData, plan.Data)
	if plan.Count != nil {
		b.logStatement(StatementCount, *plan.Count)
	}

	var (
		rows  []Row
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := b.exec.Query(gctx, plan.Data.SQL, plan.Data.Args...)
		if err != nil {
			return &ExecError{Statement: StatementData, SQL: plan.Data.SQL, Err: err}
		}
		rows = res
		return nil
	})
	if plan.Count != nil {
		g.Go(func() error {
			res, err := b.exec.Query(gctx, plan.Count.SQL, plan.Count.Args...)
			if err != nil {
				return &ExecError{Statement: StatementCount, SQL: plan.Count.SQL, Err: err}
			}
			n, err := countValue(res)
			if err != nil {
				return &ExecError{Statement: StatementCount, SQL: plan.Count.SQL, Err: err}
			}
			total = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.logger.Error().Err(err).Msg("query failed")
		return nil, err
	}

	if rows == nil {
		rows = []Row{}
	}
	result := &Result{Data: rows, NextCursor: plan.NextCursor(rows)}
	if plan.Count != nil {
		result.Total = &total
	}
	return result, nil
}

func countValue(rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, v := range rows[0] {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return 0, fmt.Errorf("read count: %w", err)
		}
		return n, nil
	}
	return 0, nil
}

func (b *Builder) logStatement(kind string, s Statement) {
	if b.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	b.logger.Debug().
		Str("statement", kind).
		Str("sql", s.SQL).
		Int("args", len(s.Args)).
		Str("preview", Inline(s.SQL, s.Args)).
		Msg("compiled query")
}
