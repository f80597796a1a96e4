package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"actionkit/pkg/bus"
	"actionkit/pkg/config"
	"actionkit/pkg/executor"

	"github.com/google/uuid"
)

const (
	maxRequestBytes = 10 << 20
	shutdownTimeout = 5 * time.Second
)

// Runner executes action calls. *executor.Executor implements it.
type Runner interface {
	Run(ctx context.Context, call executor.Call) (*executor.Response, error)
	Names() []string
}

// Service serves action calls over HTTP.
type Service struct {
	cfg    config.ServerConfig
	log    *slog.Logger
	runner Runner
	bus    *bus.MessageBus

	mu        sync.RWMutex
	startedAt time.Time
	addr      string
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Actions       int    `json:"actions"`
}

type actionInfo struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name,omitempty"`
}

// NewService wires an HTTP service around runner. messageBus is optional;
// when set, lifecycle events published on it are logged.
func NewService(cfg config.ServerConfig, runner Runner, messageBus *bus.MessageBus, log *slog.Logger) (*Service, error) {
	if runner == nil {
		return nil, errors.New("action runner is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:    cfg,
		log:    log.With("component", "server"),
		runner: runner,
		bus:    messageBus,
	}, nil
}

// Handler returns the HTTP routes of the action server.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /actions", s.handleActions)
	return mux
}

// Run listens on the configured address until ctx is done, then shuts the
// server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	listener, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address(), err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Service) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	if s.bus != nil {
		events, unsubscribe := s.bus.SubscribeEvents(ctx, 32)
		go observeLifecycle(ctx, events, unsubscribe, s.log)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Action server started", "address", listener.Addr().String(), "actions", len(s.runner.Names()))
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve actions: %w", err)
	}

	return nil
}

// Addr returns the address the server is listening on, once started.
func (s *Service) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.addr
}

func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)

	var call executor.Call
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := decoder.Decode(&call); err != nil {
		log.Warn("Rejected malformed action call", "error", err)
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed action call: " + err.Error()})
		return
	}

	ctx := executor.WithRequestID(r.Context(), requestID)
	response, err := s.runner.Run(ctx, call)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error("Action failed", "action", call.NextAction, "error", err)
		} else {
			log.Warn("Action call rejected", "action", call.NextAction, "status", status, "error", err)
		}
		s.respondJSON(w, status, errorResponse{Error: err.Error(), ActionName: call.NextAction})
		return
	}

	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentHealth())
}

func (s *Service) handleActions(w http.ResponseWriter, _ *http.Request) {
	names := s.runner.Names()
	actions := make([]actionInfo, 0, len(names))
	for _, name := range names {
		actions = append(actions, actionInfo{Name: name})
	}

	s.respondJSON(w, http.StatusOK, actions)
}

func (s *Service) currentHealth() healthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	return healthResponse{
		Status:        "ok",
		UptimeSeconds: uptime,
		Actions:       len(s.runner.Names()),
	}
}

func (s *Service) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, executor.ErrActionNotFound):
		return http.StatusNotFound
	case errors.Is(err, executor.ErrInvalidTracker):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
