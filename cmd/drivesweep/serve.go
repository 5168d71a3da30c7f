package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/vfa-khuongdv/drivesweep"
	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"github.com/vfa-khuongdv/drivesweep/internal/scheduler"
)

const (
	shutdownTimeout     = 10 * time.Second
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// statusSource is the read side of the manager exposed over HTTP
type statusSource interface {
	GetScheduledJobs() []scheduler.JobInfo
	GetSweepHistory(limit, offset int) ([]database.SweepHistory, error)
	GetSweepRun(runID string) (*database.SweepHistory, []database.RevokedPermission, error)
	ExecuteSweepNow(name string) error
}

type runResponse struct {
	*database.SweepHistory
	Revoked []database.RevokedPermission `json:"revoked"`
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled sweeps and serve their status over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if addr == "" {
				addr = resolvedCfg.Server.Addr
			}

			return withManager(func(m *drivesweep.Manager) error {
				if err := m.Initialize(); err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				return serve(ctx, addr, newStatusServer(m))
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// serve runs e on addr until ctx is cancelled.
func serve(ctx context.Context, addr string, e *echo.Echo) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Status server listening on %s", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down status server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}

func newStatusServer(src statusSource) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.LoggerWithConfig(echoMiddleware.LoggerConfig{Output: os.Stderr}))

	h := &statusHandler{src: src}
	e.GET("/health", h.health)
	e.GET("/jobs", h.jobs)
	e.POST("/jobs/:name/run", h.runJob)
	e.GET("/history", h.history)
	e.GET("/history/:run_id", h.run)

	return e
}

type statusHandler struct {
	src statusSource
}

func (h *statusHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func (h *statusHandler) jobs(c echo.Context) error {
	jobs := h.src.GetScheduledJobs()
	if jobs == nil {
		jobs = []scheduler.JobInfo{}
	}
	return c.JSON(http.StatusOK, jobs)
}

func (h *statusHandler) runJob(c echo.Context) error {
	if err := h.src.ExecuteSweepNow(c.Param("name")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sweep config not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *statusHandler) history(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultHistoryLimit)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	if limit < 1 || limit > maxHistoryLimit {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
	}
	if offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must not be negative")
	}

	runs, err := h.src.GetSweepHistory(limit, offset)
	if err != nil {
		log.Printf("Failed to load sweep history: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load sweep history")
	}
	if runs == nil {
		runs = []database.SweepHistory{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *statusHandler) run(c echo.Context) error {
	history, revoked, err := h.src.GetSweepRun(c.Param("run_id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sweep run not found")
		}
		log.Printf("Failed to load sweep run: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load sweep run")
	}
	if revoked == nil {
		revoked = []database.RevokedPermission{}
	}
	return c.JSON(http.StatusOK, runResponse{SweepHistory: history, Revoked: revoked})
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}
