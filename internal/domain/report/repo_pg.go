package report

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/medrecords/api/internal/platform/query"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type reportRepoPG struct {
	builder *query.Builder
	conn    rowQuerier
}

// NewReportRepoPG reads through builder and writes through conn, normally the
// same pool.
func NewReportRepoPG(builder *query.Builder, conn rowQuerier) ReportRepository {
	return &reportRepoPG{builder: builder, conn: conn}
}

func (r *reportRepoPG) List(ctx context.Context, f ListFilter, p CursorParams) (*query.Result, error) {
	return r.builder.Cursor(ctx, listQuery(f, p))
}

func (r *reportRepoPG) History(ctx context.Context, f HistoryFilter, p CursorParams) (*query.Result, error) {
	return r.builder.Cursor(ctx, historyQuery(f, p))
}

func (r *reportRepoPG) Paged(ctx context.Context, f ListFilter, p PageParams) (*query.Result, error) {
	return r.builder.Offset(ctx, pagedQuery(f, p))
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	return r.conn.QueryRow(ctx, `
		INSERT INTO report (phone, name, report_path, prescription_master_lid, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, active, created_date`,
		rep.Phone, rep.Name, rep.ReportPath, rep.PrescriptionMasterID, rep.CreatedBy, rep.ModifiedBy,
	).Scan(&rep.ID, &rep.Active, &rep.CreatedDate)
}
