package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sant0-9/memomate/internal/logging"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/sant0-9/memomate/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultMaxUploadBytes caps multipart bodies on /upload.
const DefaultMaxUploadBytes = 10 << 20

// Server is the browser surface: one page with a topic form, an upload form,
// the session history and the topics sidebar.
type Server struct {
	router         *chi.Mux
	pipeline       *pipeline.Pipeline
	store          *session.Store
	logger         *logging.Logger
	metrics        *metrics.Metrics
	page           *template.Template
	providerName   string
	maxUploadBytes int64
	secureCookie   bool
}

type Options func(*Server)

func WithLogger(l *logging.Logger) Options {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithStore(store *session.Store) Options {
	return func(s *Server) {
		s.store = store
	}
}

func WithProviderName(name string) Options {
	return func(s *Server) {
		s.providerName = name
	}
}

func WithMaxUploadBytes(n int64) Options {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithSecureCookie marks the session cookie Secure, for deployments behind TLS.
func WithSecureCookie(secure bool) Options {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

func New(p *pipeline.Pipeline, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		pipeline:       p,
		store:          session.NewStore(),
		logger:         logging.Nop(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse page template")
	}
	s.page = page

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(s.accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.indexHandler)
		r.Post("/ask", s.askHandler)
		r.Post("/upload", s.uploadHandler)
		r.Get("/api/session", s.sessionHandler)
		r.Get("/export", s.exportHandler)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok")) //nolint:errcheck // header already committed
}
