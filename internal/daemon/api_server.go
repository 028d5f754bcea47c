package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"sentinel/internal/authz"
	"sentinel/internal/config"
	"sentinel/internal/logging"
	"sentinel/internal/store"
)

type apiServer struct {
	bind   string
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon
	policy *authz.Policy

	listener net.Listener
	server   *http.Server
}

type entityPayload struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	NotifyMode  string `json:"notify_mode"`
	Status      string `json:"status"`
	Priority    bool   `json:"priority"`
	Enabled     bool   `json:"enabled"`
}

type trackRequest struct {
	Identifier string `json:"identifier"`
	NotifyMode string `json:"notify_mode"`
}

type deploymentRequest struct {
	GuildID        int64   `json:"guild_id"`
	EventChannelID *int64  `json:"event_channel_id,omitempty"`
	LogChannelID   *int64  `json:"log_channel_id,omitempty"`
	WebhookURL     *string `json:"webhook_url,omitempty"`
	Prefix         *string `json:"prefix,omitempty"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		cfg:    cfg,
		logger: logger,
		daemon: d,
		policy: authz.NewPolicy(cfg.Authz.AdminRoles, cfg.Authz.ViewerRoles),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.guard(authz.CapViewStatus, srv.handleStatus))
	mux.HandleFunc("/api/entities", srv.handleEntities)
	mux.HandleFunc("/api/entities/", srv.guard(authz.CapManageTracking, srv.handleEntity))
	mux.HandleFunc("/api/deployments", srv.handleDeployments)
	mux.HandleFunc("/api/test", srv.guard(authz.CapManageDeployments, srv.handleTest))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) guard(capability authz.Capability, next http.HandlerFunc) http.HandlerFunc {
	return requireCapability(s.cfg, s.policy, capability, next)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound address once the server is listening.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleEntities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.guard(authz.CapViewStatus, s.listEntities)(w, r)
	case http.MethodPost:
		s.guard(authz.CapManageTracking, s.trackEntity)(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.daemon.ListTracked(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]entityPayload, 0, len(entities))
	for _, entity := range entities {
		payload = append(payload, toEntityPayload(entity))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entities": payload})
}

func (s *apiServer) trackEntity(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		s.writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	mode := store.NotifySilent
	if req.NotifyMode != "" {
		parsed, err := store.ParseNotifyMode(req.NotifyMode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}
	entity, err := s.daemon.Track(r.Context(), req.Identifier, mode)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, toEntityPayload(entity))
}

func (s *apiServer) handleEntity(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimPrefix(r.URL.Path, "/api/entities/")
	if identifier == "" || strings.Contains(identifier, "/") {
		s.writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		info, err := s.daemon.Untrack(r.Context(), identifier)
		if err != nil {
			if errors.Is(err, store.ErrNotTracked) {
				s.writeError(w, http.StatusNotFound, "entity not tracked")
				return
			}
			s.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"untracked": info.Name, "id": info.ID})
	case http.MethodPatch:
		s.patchEntity(w, r, identifier)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) patchEntity(w http.ResponseWriter, r *http.Request, identifier string) {
	var req struct {
		TogglePriority bool    `json:"toggle_priority"`
		NotifyMode     *string `json:"notify_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TogglePriority {
		priority, err := s.daemon.TogglePriority(r.Context(), identifier)
		if err != nil {
			s.writeEntityError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"priority": priority})
		return
	}
	if req.NotifyMode != nil {
		mode, err := store.ParseNotifyMode(*req.NotifyMode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.daemon.SetNotifyMode(r.Context(), identifier, mode); err != nil {
			s.writeEntityError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"notify_mode": mode.String()})
		return
	}
	s.writeError(w, http.StatusBadRequest, "no changes requested")
}

func (s *apiServer) handleDeployments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.guard(authz.CapViewStatus, s.listDeployments)(w, r)
	case http.MethodPost:
		s.guard(authz.CapManageDeployments, s.configureDeployment)(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listDeployments(w http.ResponseWriter, r *http.Request) {
	deployments, err := s.daemon.Store().Deployments(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deployments": deployments})
}

func (s *apiServer) configureDeployment(w http.ResponseWriter, r *http.Request) {
	var req deploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GuildID == 0 {
		s.writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}
	st := s.daemon.Store()
	ctx := r.Context()
	if req.EventChannelID != nil {
		if err := st.SetEventChannel(ctx, req.GuildID, *req.EventChannelID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.LogChannelID != nil {
		if err := st.SetLogChannel(ctx, req.GuildID, *req.LogChannelID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.WebhookURL != nil {
		if err := st.SetWebhook(ctx, req.GuildID, *req.WebhookURL); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Prefix != nil {
		if err := st.SetPrefix(ctx, req.GuildID, *req.Prefix); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	deployment, err := st.Deployment(ctx, req.GuildID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, deployment)
}

func (s *apiServer) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.TestNotification(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "dispatched"})
}

func (s *apiServer) writeEntityError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotTracked) {
		s.writeError(w, http.StatusNotFound, "entity not tracked")
		return
	}
	s.writeError(w, http.StatusBadGateway, err.Error())
}

func toEntityPayload(entity *store.TrackedEntity) entityPayload {
	return entityPayload{
		ID:          entity.ID,
		Username:    entity.Username,
		DisplayName: entity.DisplayName,
		NotifyMode:  entity.NotifyMode.String(),
		Status:      entity.Status.String(),
		Priority:    entity.Priority,
		Enabled:     entity.Enabled,
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
