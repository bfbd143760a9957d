package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrecords/api/internal/platform/middleware"
	"github.com/medrecords/api/internal/platform/query"
	"github.com/medrecords/api/pkg/pagination"
)

type Handler struct {
	svc    *Service
	limits pagination.Limits
	logger zerolog.Logger
}

func NewHandler(svc *Service, limits pagination.Limits, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		limits: limits,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// RegisterRoutes mounts the report endpoints on api, which is expected to be
// behind the session middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports")
	g.GET("", h.ListReports)
	g.GET("/history", h.History)
	g.GET("/paged", h.PagedReports)
	g.POST("", h.CreateReport)
}

func (h *Handler) ListReports(c echo.Context) error {
	pg := pagination.FromContext(c, h.limits)
	cursor, err := parseCursor(pg.Cursor)
	if err != nil {
		return err
	}
	f := ListFilter{Name: c.QueryParam("name"), URL: c.QueryParam("url")}

	res, err := h.svc.ListReports(c.Request().Context(), f, CursorParams{
		Cursor:       cursor,
		Search:       pg.Search,
		PageSize:     pg.PageSize,
		IncludeTotal: pg.IncludeTotal,
	})
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.CursorResponse{Data: res.Data, NextCursor: res.NextCursor, Total: res.Total})
}

func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContext(c, h.limits)
	cursor, err := parseCursor(pg.Cursor)
	if err != nil {
		return err
	}
	date := c.QueryParam("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}
	f := HistoryFilter{
		Name:       c.QueryParam("name"),
		DoctorName: c.QueryParam("doctor_name"),
		Illness:    c.QueryParam("illness"),
		Date:       date,
		Phone:      c.QueryParam("phone"),
	}

	res, err := h.svc.History(c.Request().Context(), f, CursorParams{
		Cursor:       cursor,
		Search:       pg.Search,
		PageSize:     pg.PageSize,
		IncludeTotal: pg.IncludeTotal,
	})
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.CursorResponse{Data: res.Data, NextCursor: res.NextCursor, Total: res.Total})
}

func (h *Handler) PagedReports(c echo.Context) error {
	pg := pagination.FromContext(c, h.limits)
	f := ListFilter{Name: c.QueryParam("name"), URL: c.QueryParam("url")}

	res, err := h.svc.PagedReports(c.Request().Context(), f, PageParams{
		Page:         pg.Page,
		PageSize:     pg.PageSize,
		Search:       pg.Search,
		IncludeTotal: pg.IncludeTotal,
	})
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewPageResponse(res.Data, res.Total, pg, c.Request().URL.Path))
}

func (h *Handler) CreateReport(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rep, err := h.svc.CreateReport(c.Request().Context(), req)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func parseCursor(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "cursor must be a positive integer")
	}
	return &v, nil
}

// httpError maps service errors to responses. Database failures are logged
// and reported without detail.
func (h *Handler) httpError(c echo.Context, err error) error {
	rid, _ := c.Get(middleware.RequestIDKey).(string)
	var execErr *query.ExecError
	switch {
	case errors.Is(err, ErrNoSession):
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, query.ErrMalformedSpec):
		h.logger.Error().Err(err).Str("request_id", rid).Msg("invalid query specification")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn().Err(err).Str("request_id", rid).Msg("report query timed out")
		return echo.NewHTTPError(http.StatusGatewayTimeout, "Request processing exceeded the allowed time limit")
	case errors.As(err, &execErr):
		h.logger.Error().Err(execErr.Err).
			Str("request_id", rid).
			Str("statement", execErr.Statement).
			Msg("report query failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	default:
		h.logger.Error().Err(err).Str("request_id", rid).Msg("report request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
