package report

import (
	"context"
	"fmt"

	"github.com/medrecords/api/internal/platform/auth"
	"github.com/medrecords/api/internal/platform/query"
)

type Service struct {
	repo ReportRepository
}

func NewService(repo ReportRepository) *Service {
	return &Service{repo: repo}
}

func sessionUser(ctx context.Context) (*auth.SessionUser, error) {
	u := auth.UserFromContext(ctx)
	if u == nil {
		return nil, ErrNoSession
	}
	return u, nil
}

// ListReports returns the session user's reports, newest first.
func (s *Service) ListReports(ctx context.Context, f ListFilter, p CursorParams) (*query.Result, error) {
	u, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	f.Phone = u.Phone
	return s.repo.List(ctx, f, p)
}

// PagedReports is ListReports by page number.
func (s *Service) PagedReports(ctx context.Context, f ListFilter, p PageParams) (*query.Result, error) {
	u, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	f.Phone = u.Phone
	return s.repo.Paged(ctx, f, p)
}

// History returns prescriptions written by the session user with their
// medicines and reports aggregated per prescription.
func (s *Service) History(ctx context.Context, f HistoryFilter, p CursorParams) (*query.Result, error) {
	u, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	f.SessionPhone = u.Phone
	return s.repo.History(ctx, f, p)
}

// CreateReport stores a report owned by the session user.
func (s *Service) CreateReport(ctx context.Context, req CreateRequest) (*Report, error) {
	u, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.Phone == "" {
		return nil, fmt.Errorf("%w: session user has no phone", ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rep := &Report{
		Phone:                u.Phone,
		Name:                 req.Name,
		ReportPath:           req.ReportPath,
		PrescriptionMasterID: req.PrescriptionMasterID,
		CreatedBy:            u.Phone,
		ModifiedBy:           u.Phone,
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return rep, nil
}
