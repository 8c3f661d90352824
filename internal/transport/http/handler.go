// Package httptransport is the console dispatcher: it routes inbound
// operations to the subsystems, converts their results and typed errors
// into the uniform response envelope, and publishes a log line per
// operation to the event bus.
package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"opsconsole/internal/eventbus"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/platform/middleware"
	"opsconsole/internal/task"
	"opsconsole/internal/transport/http/shared"
	dErrors "opsconsole/pkg/domain-errors"
)

// TaskRunner runs simulated workloads.
type TaskRunner interface {
	Run(ctx context.Context, name string) (task.Outcome, error)
}

// SecurityMonitor classifies events and manages the pattern set.
type SecurityMonitor interface {
	MonitorEvent(ctx context.Context, text string) error
	AddPattern(pattern string)
	Patterns() []string
}

// IdentityService is the ledger surface the dispatcher needs.
type IdentityService interface {
	Register(ctx context.Context, userID, publicKey string) error
	IssueCode(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, userID, publicKey, code string) (bool, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// ExchangeService seals outbound payloads.
type ExchangeService interface {
	Send(ctx context.Context, message, recipientID string) (string, error)
}

// PerfRecorder keeps per-operation durations.
type PerfRecorder interface {
	Record(operation string, d time.Duration) error
	Snapshot() map[string]int64
}

// EventStream is the bus surface the dispatcher needs.
type EventStream interface {
	Subscribe() *eventbus.Subscription
	RecentHistory(n int) []eventbus.Entry
	Error(message string)
}

// Config carries the transport knobs out of platform config.
type Config struct {
	AdminTokenSecret string
	MaxConcurrentOps int64
	RequestTimeout   time.Duration
}

// Handler wires the console routes.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	cfg      Config
	started  time.Time
	bus      EventStream
	tasks    TaskRunner
	security SecurityMonitor
	identity IdentityService
	exchange ExchangeService
	perf     PerfRecorder
}

// New builds the dispatcher.
func New(
	bus EventStream,
	tasks TaskRunner,
	security SecurityMonitor,
	identity IdentityService,
	exchange ExchangeService,
	perf PerfRecorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentOps <= 0 {
		cfg.MaxConcurrentOps = 128
	}
	return &Handler{
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("opsconsole/transport"),
		cfg:      cfg,
		started:  time.Now(),
		bus:      bus,
		tasks:    tasks,
		security: security,
		identity: identity,
		exchange: exchange,
		perf:     perf,
	}
}

// Register mounts all console routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(h.cfg.RequestTimeout))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.Latency(h.metrics))
	api.Use(middleware.ConcurrencyLimit(h.cfg.MaxConcurrentOps))
	api.Post("/api/process-task", h.handleProcessTask)
	api.Post("/api/monitor-security", h.handleMonitorSecurity)
	api.Post("/api/register-user", h.handleRegisterUser)
	api.Post("/api/verify-user", h.handleVerifyUser)
	api.Post("/api/secure-exchange", h.handleSecureExchange)
	api.Get("/api/performance", h.handlePerformance)
	api.Get("/api/logs", h.handleRecentLogs)
	api.Get("/health", h.handleHealth)
	r.Mount("/", api)

	admin := chi.NewRouter()
	admin.Use(middleware.Recovery(h.logger))
	admin.Use(middleware.RequestID)
	admin.Use(middleware.Logger(h.logger))
	admin.Use(middleware.RequireAdminToken(h.cfg.AdminTokenSecret, h.logger))
	admin.Post("/threat-patterns", h.handleAddPattern)
	admin.Get("/threat-patterns", h.handleListPatterns)
	admin.Get("/users", h.handleListUsers)
	r.Mount("/admin", admin)

	// Streaming route mounts its own minimal chain: no timeout and no
	// concurrency cap, since connections stay open indefinitely.
	stream := chi.NewRouter()
	stream.Use(middleware.Recovery(h.logger))
	stream.Use(middleware.RequestID)
	stream.Get("/", h.handleEvents)
	r.Mount("/events", stream)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// dispatch runs one operation: span, timing, perf sample, metrics, envelope.
// Every error leaves through here so the serving loop can never die from a
// single operation.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, operation string, fn func(ctx context.Context) (any, error)) {
	ctx, span := h.tracer.Start(r.Context(), "console."+operation,
		trace.WithAttributes(attribute.String("console.operation", operation)),
	)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	_ = h.perf.Record(operation, elapsed)

	if err != nil {
		code := dErrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		h.metrics.ObserveOperation(operation, string(code), elapsed)
		h.logger.ErrorContext(ctx, "operation failed",
			"request_id", middleware.GetRequestID(ctx),
			"operation", operation,
			"code", string(code),
			"error", err.Error(),
		)
		h.bus.Error(fmt.Sprintf("%s failed: %s", operation, dErrors.CodeOf(err)))
		shared.WriteError(w, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	h.metrics.ObserveOperation(operation, "ok", elapsed)
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProcessTask(w http.ResponseWriter, r *http.Request) {
	var req runTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "RunTask", func(ctx context.Context) (any, error) {
		out, err := h.tasks.Run(ctx, req.Task)
		if err != nil {
			return nil, err
		}
		return runTaskResponse{Result: out.Result, Task: out.Task}, nil
	})
}

func (h *Handler) handleMonitorSecurity(w http.ResponseWriter, r *http.Request) {
	var req monitorSecurityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "MonitorSecurity", func(ctx context.Context) (any, error) {
		if err := h.security.MonitorEvent(ctx, req.Event); err != nil {
			return nil, err
		}
		return monitorSecurityResponse{Status: "ok", Event: req.Event}, nil
	})
}

// handleRegisterUser registers and immediately issues a code, so the
// response carries both the user id and a usable one-time code.
func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "RegisterUser", func(ctx context.Context) (any, error) {
		if err := h.identity.Register(ctx, req.UserID, req.PublicKey); err != nil {
			return nil, err
		}
		code, err := h.identity.IssueCode(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return registerUserResponse{UserID: req.UserID, Code: code}, nil
	})
}

func (h *Handler) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	var req verifyUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "VerifyUser", func(ctx context.Context) (any, error) {
		verified, err := h.identity.Verify(ctx, req.UserID, req.PublicKey, req.Code)
		if err != nil {
			return nil, err
		}
		return verifyUserResponse{Verified: verified}, nil
	})
}

func (h *Handler) handleSecureExchange(w http.ResponseWriter, r *http.Request) {
	var req secureExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "SecureExchange", func(ctx context.Context) (any, error) {
		payload, err := h.exchange.Send(ctx, req.Message, req.Recipient)
		if err != nil {
			return nil, err
		}
		return secureExchangeResponse{Recipient: req.Recipient, Payload: payload}, nil
	})
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "GetPerformance", func(ctx context.Context) (any, error) {
		return h.perf.Snapshot(), nil
	})
}

func (h *Handler) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "GetRecentLogs", func(ctx context.Context) (any, error) {
		logs := h.bus.RecentHistory(0)
		return recentLogsResponse{Logs: logs}, nil
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

func (h *Handler) handleAddPattern(w http.ResponseWriter, r *http.Request) {
	var req addPatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.dispatch(w, r, "AddPattern", func(ctx context.Context) (any, error) {
		if req.Pattern == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "pattern is required")
		}
		h.security.AddPattern(req.Pattern)
		return patternsResponse{Patterns: h.security.Patterns()}, nil
	})
}

func (h *Handler) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "ListPatterns", func(ctx context.Context) (any, error) {
		return patternsResponse{Patterns: h.security.Patterns()}, nil
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "ListUsers", func(ctx context.Context) (any, error) {
		users, err := h.identity.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return usersResponse{Users: users}, nil
	})
}
