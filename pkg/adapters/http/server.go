package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/observability"
	"github.com/aretw0/promptflow/pkg/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	errNotFound          = errors.New("not found")
	errBadRequest        = errors.New("bad request")
	errInvalidConnection = errors.New("invalid connection")
)

// Server exposes the flows of a session manager over HTTP.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	streams  *StreamManager
	upgrader websocket.Upgrader
	spec     *openapi3.T

	logger     *slog.Logger
	metrics    *observability.Metrics
	gatherer   prometheus.Gatherer
	corsOrigin string

	unwatch func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request metrics and serves gatherer on /metrics.
func WithMetrics(metrics *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.gatherer = gatherer
	}
}

// WithCORSOrigin sets the allowed origin. Defaults to "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// New creates the HTTP API of the flows managed by sessions.
// Close must be called to stop forwarding change events.
func New(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:   sessions,
		logger:     logging.NewNop(),
		gatherer:   prometheus.DefaultGatherer,
		corsOrigin: "*",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.streams = NewStreamManager(s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	spec, err := LoadSpec()
	if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}
	s.spec = spec

	s.unwatch = sessions.Watch(func(name string, ev domain.ChangeEvent) {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("Failed to encode change event", "flow", name, "err", err)
			return
		}
		s.streams.Broadcast(name, payload)
	})

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(s.enableCORS)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", s.getOpenAPI)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/validate", s.validateDocument)

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.listFlows)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getFlow)
			r.Put("/", s.putFlow)
			r.Delete("/", s.deleteFlow)
			r.Get("/issues", s.getIssues)
			r.Get("/graph", s.getGraph)
			r.Get("/events", s.subscribeEvents)

			r.Post("/nodes", s.addNode)
			r.Patch("/nodes/{id}", s.updateNode)
			r.Delete("/nodes/{id}", s.deleteNode)

			r.Post("/edges", s.addEdge)
			r.Patch("/edges/{id}", s.updateEdge)
			r.Delete("/edges/{id}", s.deleteEdge)
			r.Put("/edges/{id}/target", s.updateEdgeTarget)

			r.Put("/start", s.setStartNode)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close detaches the server from the session manager.
func (s *Server) Close() {
	if s.unwatch != nil {
		s.unwatch()
		s.unwatch = nil
	}
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return s.corsOrigin == "*" || origin == "" || origin == s.corsOrigin
}

// instrument records one request metric per call, labelled by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(r.Method, route, status)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "promptflow-http",
		"version":     strings.TrimSpace(promptflow.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) getOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(openapiSpec)
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, details ...string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "status", status, "err", err)
	} else {
		s.logger.Debug("Request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Details: details})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidFlowName):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound), errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidConnection):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLockNotAcquired):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Promptflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
