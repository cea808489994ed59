package api

import (
	"context"
	"net/http"
	"time"

	models "EquityPulse/internal/domain/models"
	domrepo "EquityPulse/internal/domain/repository"
	"EquityPulse/internal/usecase"
	xhttp "EquityPulse/pkg/http"
	xlogger "EquityPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// RunsEchoHandler exposes batch prediction runs over HTTP and websocket.
type RunsEchoHandler struct {
	logger   *xlogger.Logger
	orch     *usecase.Orchestrator
	registry *usecase.RunRegistry
	store    domrepo.PredictionStore
	upgrader websocket.Upgrader
}

func NewRunsEchoHandler(logger *xlogger.Logger, orch *usecase.Orchestrator, registry *usecase.RunRegistry, store domrepo.PredictionStore) *RunsEchoHandler {
	return &RunsEchoHandler{
		logger:   logger,
		orch:     orch,
		registry: registry,
		store:    store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *RunsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/run", h.StartRun)
	e.GET("/run/status", h.RunStatus)
	e.GET("/run/ws", h.RunProgress)
	e.GET("/summary", h.Summary)
	e.GET("/healthz", h.Health)
}

// StartRun kicks off a batch run in the background and answers 202 with the
// initial state.
func (h *RunsEchoHandler) StartRun(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	state, err := h.orch.StartRun(req)
	if err != nil {
		h.logger.Error("start run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	h.logger.Info("run started",
		xlogger.String("run_id", state.RunID),
		xlogger.Int("tickers", state.Total),
		xlogger.Int("horizon_days", state.HorizonDays),
	)
	return xhttp.AcceptedResponse(c, state)
}

func (h *RunsEchoHandler) RunStatus(c echo.Context) error {
	req := &models.RunStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	state, ok := h.registry.Get(req.RunID)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("run %s not found", req.RunID))
	}
	return xhttp.SuccessResponse(c, runStatusView(state))
}

// RunProgress streams status snapshots over a websocket until the run is
// terminal or the client goes away.
func (h *RunsEchoHandler) RunProgress(c echo.Context) error {
	runID := c.QueryParam("run_id")
	if runID == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "run_id", Message: "run_id is required",
		}})
	}
	if _, ok := h.registry.Get(runID); !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("run %s not found", runID))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		state, ok := h.registry.Get(runID)
		if !ok {
			return nil
		}

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(runStatusView(state)); err != nil {
			return nil
		}
		if state.Terminal() {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Summary returns the predictions of a run; with no run_id it serves the
// latest run in the store.
func (h *RunsEchoHandler) Summary(c echo.Context) error {
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	runID := req.RunID
	if runID == "" {
		latest, err := h.store.LatestRunID(ctx)
		if err != nil {
			h.logger.Error("latest run lookup failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		if latest == "" {
			return xhttp.ListResponse(c, []models.Prediction{}, 0)
		}
		runID = latest
	}

	preds, err := h.store.GetByRun(ctx, runID, req.Limit)
	if err != nil {
		h.logger.Error("summary query failed",
			xlogger.String("run_id", runID),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, preds, int64(len(preds)))
}

// Health reports storage reachability.
func (h *RunsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "store": "ok"}
	if err := h.store.Health(ctx); err != nil {
		status["status"] = "degraded"
		status["store"] = err.Error()
	}
	return xhttp.SuccessResponse(c, status)
}

// runStatusView shapes a RunState for API consumers.
func runStatusView(s models.RunState) map[string]interface{} {
	v := map[string]interface{}{
		"run_id":       s.RunID,
		"status":       s.Status,
		"total":        s.Total,
		"completed":    s.Completed,
		"stored":       s.Stored,
		"pct":          s.Pct(),
		"horizon_days": s.HorizonDays,
		"started_at":   s.StartedAt,
	}
	if len(s.Errors) > 0 {
		v["errors"] = s.Errors
	}
	if s.FinishedAt != nil {
		v["finished_at"] = s.FinishedAt
	}
	return v
}
