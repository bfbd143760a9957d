package report

import (
	"fmt"
	"strings"
	"time"
)

// Report is an uploaded medical report, optionally attached to a prescription.
type Report struct {
	ID                   int64     `db:"id" json:"id"`
	Phone                string    `db:"phone" json:"phone"`
	Name                 string    `db:"name" json:"name"`
	ReportPath           string    `db:"report_path" json:"report_path"`
	PrescriptionMasterID *int64    `db:"prescription_master_lid" json:"prescription_master_lid,omitempty"`
	CreatedBy            string    `db:"created_by" json:"created_by"`
	ModifiedBy           string    `db:"modified_by" json:"modified_by"`
	Active               bool      `db:"active" json:"active"`
	CreatedDate          time.Time `db:"created_date" json:"created_date"`
}

// CreateRequest is the body of POST /api/reports.
type CreateRequest struct {
	Name                 string `json:"name"`
	ReportPath           string `json:"report_path"`
	PrescriptionMasterID *int64 `json:"prescription_master_lid,omitempty"`
}

func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.ReportPath = strings.TrimSpace(r.ReportPath)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.ReportPath == "" {
		return fmt.Errorf("%w: report_path is required", ErrValidation)
	}
	if r.PrescriptionMasterID != nil && *r.PrescriptionMasterID <= 0 {
		return fmt.Errorf("%w: prescription_master_lid must be positive", ErrValidation)
	}
	return nil
}

// ListFilter narrows the report list. Empty fields do not filter.
type ListFilter struct {
	Name string
	URL  string
	// Phone scopes the list to one owner; the service sets it from the
	// session.
	Phone string
}

// HistoryFilter narrows the prescription history. Empty fields do not filter.
type HistoryFilter struct {
	Name       string
	DoctorName string
	Illness    string
	// Date is a calendar day, "YYYY-MM-DD".
	Date  string
	Phone string
	// SessionPhone scopes the history to prescriptions written by the
	// session user and takes precedence over DoctorName.
	SessionPhone string
}

// CursorParams selects one infinite-scroll page.
type CursorParams struct {
	// Cursor is the id of the last row seen; nil requests the first page.
	Cursor       *int64
	Search       string
	PageSize     int
	IncludeTotal bool
}

// PageParams selects one numbered page.
type PageParams struct {
	Page         int
	PageSize     int
	Search       string
	IncludeTotal bool
}
