package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/medrecords/api/internal/config"
	"github.com/medrecords/api/internal/domain/report"
	"github.com/medrecords/api/internal/platform/auth"
	"github.com/medrecords/api/internal/platform/db"
	"github.com/medrecords/api/internal/platform/middleware"
	"github.com/medrecords/api/internal/platform/query"
	"github.com/medrecords/api/pkg/pagination"
)

const version = "0.1.0"

// store is the part of *pgxpool.Pool the server uses.
type store interface {
	db.Querier
	db.Pinger
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newServer(cfg *config.Config, st store, stats func() *db.PoolStats, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", auth.TokenParam},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware([]byte(cfg.JWTSecret), auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(st, stats))

	var metrics *db.QueryMetrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = db.NewQueryMetrics(reg)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	exec := db.NewPoolExecutor(st, metrics)
	builder := query.NewBuilder(exec, cfg.DefaultLimit, logger)
	limits := pagination.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxPageSize}

	api := e.Group("/api")
	reportSvc := report.NewService(report.NewReportRepoPG(builder, st))
	report.NewHandler(reportSvc, limits, logger).RegisterRoutes(api)

	return e
}

// printStatuses writes the migrate status table.
func printStatuses(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
