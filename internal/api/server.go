package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/export"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/mediastore"
	"github.com/alex-berlin-tv/rafo/internal/preflight"
	"github.com/alex-berlin-tv/rafo/internal/services"
	"github.com/alex-berlin-tv/rafo/internal/store"
	"github.com/alex-berlin-tv/rafo/internal/upload"
)

// Uploads is the record store as seen by the API.
type Uploads interface {
	GetUpload(ctx context.Context, id int64) (*upload.Upload, error)
	ResetExport(ctx context.Context, id int64) error
	StatusSummary(ctx context.Context) ([]store.StatusCount, error)
}

// Optimizer triggers the audio pipelines.
type Optimizer interface {
	StartOptimize(ctx context.Context, id int64) (<-chan error, error)
	Waveform(ctx context.Context, id int64) (upload.Status, error)
}

// Exporter starts export runs and streams their events.
type Exporter interface {
	Start(ctx context.Context, id int64) <-chan export.Event
}

// Options wires a Server. Optimizer, Exporter, Links and Local may be nil;
// the matching routes then answer 503 or 404.
type Options struct {
	Config    *config.Config
	Uploads   Uploads
	Optimizer Optimizer
	Exporter  Exporter
	Links     Linker
	Local     *mediastore.Local
	Pingers   map[string]preflight.Pinger
	Checks    func(ctx context.Context) []preflight.Result
	Logger    *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	bind      string
	cfg       *config.Config
	auth      Authorizer
	uploads   Uploads
	optimizer Optimizer
	exporter  Exporter
	links     Linker
	local     *mediastore.Local
	pingers   map[string]preflight.Pinger
	checks    func(ctx context.Context) []preflight.Result
	logger    *slog.Logger

	// baseCtx outlives requests; background optimizations run under it.
	baseCtx  context.Context
	router   *mux.Router
	listener net.Listener
	server   *http.Server
}

// NewServer builds the router and the http.Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Uploads == nil {
		return nil, errors.New("api server requires config and upload store")
	}
	s := &Server{
		bind:      strings.TrimSpace(opts.Config.Paths.APIBind),
		cfg:       opts.Config,
		auth:      NewAuthorizer(opts.Config.Auth.AccessKey, opts.Config.Auth.JWTSecret),
		uploads:   opts.Uploads,
		optimizer: opts.Optimizer,
		exporter:  opts.Exporter,
		links:     opts.Links,
		local:     opts.Local,
		pingers:   opts.Pingers,
		checks:    opts.Checks,
		logger:    logging.NewComponentLogger(opts.Logger, "api-server"),
		baseCtx:   context.Background(),
	}
	if s.checks == nil {
		cfg := opts.Config
		s.checks = func(ctx context.Context) []preflight.Result { return preflight.RunAll(ctx, cfg) }
	}

	r := mux.NewRouter()
	r.Use(withRequestID)
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/status", s.requireAccessKey(s.handleStatus)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}", s.requireUploadKey(s.handleUpload)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}/optimize", s.requireUploadKey(s.handleOptimize)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}/waveform", s.requireUploadKey(s.handleWaveform)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}/export", s.requireUploadKey(s.handleExportEvents)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}/export/ws", s.requireUploadKey(s.handleExportSocket)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/uploads/{id:[0-9]+}/export/reset", s.requireAccessKey(s.handleExportReset)).Methods(http.MethodPost)
	r.HandleFunc(mediastore.MediaRoute+"{key:.+}", s.handleMedia).Methods(http.MethodGet, http.MethodHead)
	s.router = r

	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Export streams stay open for the whole run.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "listen", "paths.api_bind is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.baseCtx = ctx

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
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

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) requireAccessKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.IsAccessKey(requestKey(r)) {
			s.writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

func (s *Server) requireUploadKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uploadID(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid upload id")
			return
		}
		if err := s.auth.Authorize(requestKey(r), id); err != nil {
			s.logger.Debug("request rejected", logging.Int64(logging.FieldUploadID, id), logging.Error(err))
			s.writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

func uploadID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.uploads.StatusSummary(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	checks := s.checks(r.Context())
	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks = append(checks, preflight.CheckPing(r.Context(), name, s.pingers[name]))
	}
	s.writeJSON(w, http.StatusOK, Status{
		Pipelines:    FromStatusCounts(counts),
		Dependencies: FromDependencies(preflight.CheckSystemDeps(s.cfg)),
		Checks:       FromChecks(checks),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := uploadID(r)
	u, err := s.uploads.GetUpload(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FromUpload(r.Context(), u, s.cfg.Location(), s.links))
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if s.optimizer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "optimizer unavailable")
		return
	}
	id, _ := uploadID(r)
	if _, err := s.optimizer.StartOptimize(s.baseCtx, id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, Accepted{ID: id, Message: "optimization started"})
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	if s.optimizer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "optimizer unavailable")
		return
	}
	id, _ := uploadID(r)
	status, err := s.optimizer.Waveform(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": status.Label()})
}

func (s *Server) handleExportReset(w http.ResponseWriter, r *http.Request) {
	id, _ := uploadID(r)
	if err := s.uploads.ResetExport(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.logger.Info("export reset",
		logging.String(logging.FieldEventType, "export_reset"),
		logging.Int64(logging.FieldUploadID, id),
	)
	u, err := s.uploads.GetUpload(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FromUpload(r.Context(), u, s.cfg.Location(), s.links))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrGuardViolation):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}
