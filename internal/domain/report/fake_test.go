package report

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medrecords/api/internal/platform/query"
)

type execCall struct {
	sql  string
	args []interface{}
}

type fakeExecutor struct {
	mu    sync.Mutex
	calls []execCall
	rows  []query.Row
	count int64
	err   error
}

func (f *fakeExecutor) Query(ctx context.Context, sql string, args ...interface{}) ([]query.Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if strings.HasPrefix(sql, "SELECT COUNT(*)") {
		return []query.Row{{"count": f.count}}, nil
	}
	return f.rows, nil
}

func (f *fakeExecutor) dataCall() (execCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if !strings.HasPrefix(c.sql, "SELECT COUNT(*)") {
			return c, true
		}
	}
	return execCall{}, false
}

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.id
	*dest[1].(*bool) = true
	*dest[2].(*time.Time) = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return nil
}

type fakeConn struct {
	row  fakeRow
	sql  string
	args []interface{}
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	c.sql = sql
	c.args = args
	return c.row
}

// fakeRepo records what the service passes down.
type fakeRepo struct {
	listFilter    ListFilter
	historyFilter HistoryFilter
	created       *Report
	err           error
}

func (r *fakeRepo) List(ctx context.Context, f ListFilter, p CursorParams) (*query.Result, error) {
	r.listFilter = f
	return &query.Result{Data: []query.Row{}}, r.err
}

func (r *fakeRepo) History(ctx context.Context, f HistoryFilter, p CursorParams) (*query.Result, error) {
	r.historyFilter = f
	return &query.Result{Data: []query.Row{}}, r.err
}

func (r *fakeRepo) Paged(ctx context.Context, f ListFilter, p PageParams) (*query.Result, error) {
	r.listFilter = f
	return &query.Result{Data: []query.Row{}}, r.err
}

func (r *fakeRepo) Create(ctx context.Context, rep *Report) error {
	if r.err != nil {
		return r.err
	}
	rep.ID = 1
	r.created = rep
	return nil
}
