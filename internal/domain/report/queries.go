package report

import (
	"github.com/medrecords/api/internal/platform/query"
)

const placeholderToken = "$PLACEHOLDER"

const reportListSQL = `SELECT r.id, r.phone, r.name, r.report_path, r.prescription_master_lid,
	r.created_by, r.created_date
FROM report r
$PLACEHOLDER`

// The report join carries its active flag so prescriptions without an active
// report still appear.
const historySQL = `SELECT
	pm.id AS id,
	pm.created_date AS date,
	pm.name AS name,
	pm.created_by AS doctor_name,
	pu.name AS doctor_full_name,
	pm.illness,
	json_agg(
		json_build_object(
			'report_name', r.name,
			'report_url', r.report_path,
			'timings', pl.timings,
			'med_durations', pl.med_durations,
			'med_name', pl.medicine_name
		)
	) AS reports
FROM prescription_master pm
JOIN prescription_list pl ON pm.id = pl.prescription_master_lid AND pl.active = TRUE
LEFT JOIN report r ON pm.id = r.prescription_master_lid AND r.active = TRUE
INNER JOIN public."user" pu ON pu.phone = pm.created_by
$PLACEHOLDER`

func cursorValue(c *int64) interface{} {
	if c == nil {
		return nil
	}
	return *c
}

func reportPlaceholder(f ListFilter) query.Placeholder {
	return query.Placeholder{
		Token: placeholderToken,
		Filters: query.Filters{
			{Column: "r.name", Value: f.Name},
			{Column: "r.report_path", Value: f.URL},
			{Column: "r.phone", Value: f.Phone},
		},
		Base:          "WHERE r.active = TRUE",
		OrderBy:       &query.OrderBy{Column: "r.id", Direction: "desc"},
		SearchColumns: []string{"r.name", "r.report_path", "r.phone"},
	}
}

func listQuery(f ListFilter, p CursorParams) query.CursorQuery {
	return query.CursorQuery{
		Template:     reportListSQL,
		Placeholders: []query.Placeholder{reportPlaceholder(f)},
		Search:       p.Search,
		Cursor:       query.Cursor{Column: "r.id", Value: cursorValue(p.Cursor)},
		PageSize:     p.PageSize,
		IncludeTotal: p.IncludeTotal,
	}
}

func pagedQuery(f ListFilter, p PageParams) query.OffsetQuery {
	return query.OffsetQuery{
		Template:     reportListSQL,
		Placeholders: []query.Placeholder{reportPlaceholder(f)},
		Search:       p.Search,
		Page:         p.Page,
		PageSize:     p.PageSize,
		IncludeTotal: p.IncludeTotal,
	}
}

func historyQuery(f HistoryFilter, p CursorParams) query.CursorQuery {
	doctor := f.DoctorName
	if f.SessionPhone != "" {
		doctor = f.SessionPhone
	}
	return query.CursorQuery{
		Template: historySQL,
		Placeholders: []query.Placeholder{{
			Token: placeholderToken,
			Filters: query.Filters{
				{Column: "pm.name", Value: f.Name},
				{Column: "pm.created_by", Value: doctor},
				{Column: "pl.illness", Value: f.Illness},
				{Column: "pm.created_date::DATE", Value: f.Date},
				{Column: "pm.phone", Value: f.Phone},
			},
			Base: "WHERE pm.active = TRUE",
			GroupBy: []string{
				"pm.id",
				"pm.illness",
				"pm.created_by",
				"pm.created_date",
				"pm.name",
				"pu.name",
			},
			OrderBy:       &query.OrderBy{Column: "pm.id", Direction: "desc"},
			SearchColumns: []string{"pm.name", "pm.created_by", "pm.illness", "pm.phone"},
		}},
		Search:       p.Search,
		Cursor:       query.Cursor{Column: "pm.id", Value: cursorValue(p.Cursor)},
		PageSize:     p.PageSize,
		IncludeTotal: p.IncludeTotal,
	}
}
