package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/health"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/tasks"
	"github.com/go-playground/validator/v10"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route is one method and pattern served by a [Handler].
type Route struct {
	Method  string
	Pattern string
	Summary string
	Handler http.HandlerFunc
}

// Handler groups the routes of one API area under a tag.
type Handler interface {
	Tag() string     // Tag names the area in the docs and the index
	Routes() []Route // Routes returns full path patterns with their handlers
}

// Router defines HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// EventStore persists classified failures; the sqlite error event repository satisfies it.
type EventStore interface {
	Create(event *models.ErrorEvent) error
	List(criteria map[string]any) ([]*models.ErrorEvent, error)
}

// Authenticator builds a client from a credentials file named by the X-Auth-File header.
type Authenticator func(ctx context.Context, path string) (services.Client, error)

// Options are the dependencies of a [Server]. Events and Prober may be nil.
type Options struct {
	Config        *shared.Config
	Engine        *tasks.Engine
	Prober        *health.Prober
	Reporter      *health.Reporter
	Events        EventStore
	Logger        *log.Logger
	Version       string
	Authenticator Authenticator
}

// Server serves the proxy API.
type Server struct {
	cfg      *shared.Config
	engine   *tasks.Engine
	prober   *health.Prober
	reporter *health.Reporter
	events   EventStore
	logger   *log.Logger
	version  string
	auth     Authenticator
	validate *validator.Validate
	router   *ChiRouter
	areas    []Handler
}

// New builds a server and registers every route.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Server{
		cfg:      cfg,
		engine:   opts.Engine,
		prober:   opts.Prober,
		reporter: opts.Reporter,
		events:   opts.Events,
		logger:   shared.WithLogger(logger, "component", "http"),
		version:  opts.Version,
		auth:     opts.Authenticator,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if s.auth == nil {
		s.auth = s.loadClient
	}
	if s.prober == nil {
		s.prober = health.NewProber(s.engine.Client(), nil, cfg.Health, logger)
	}
	if s.reporter == nil {
		s.reporter = health.NewReporter(s.prober, nil, s.version)
	}

	s.areas = []Handler{
		&statusHandler{s},
		&searchHandler{s},
		&browseHandler{s},
		&exploreHandler{s},
		&libraryHandler{s},
		&playlistHandler{s},
		&podcastHandler{s},
		&uploadHandler{s},
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Routes returns every registered route in registration order.
func (s *Server) Routes() []Route {
	var all []Route
	for _, h := range s.areas {
		all = append(all, h.Routes()...)
	}
	return all
}

// HTTPServer returns an [http.Server] for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

func (s *Server) routes() *ChiRouter {
	r := NewChiRouter()
	r.Use(
		RequestID,
		s.recoverer,
		AccessLog(s.logger),
		Metrics,
		CORS(s.cfg.Server.CORSOrigins),
		s.rateLimit(s.cfg.Server.RateLimit),
		s.credentials,
	)
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.methodNotAllowed)

	for _, h := range s.areas {
		r.Handler(h)
	}
	if s.cfg.Server.Docs {
		s.mountDocs(r)
	}
	return r
}

// loadClient reads a credentials file and binds it to a copy of the upstream client.
func (s *Server) loadClient(ctx context.Context, path string) (services.Client, error) {
	yt, ok := s.engine.Client().(*services.YouTubeMusic)
	if !ok {
		return nil, fmt.Errorf("%w: upstream client does not accept credentials", shared.ErrServiceUnavailable)
	}
	creds, err := services.LoadCredentials(ctx, path, services.OAuthConfig(s.cfg.OAuth))
	if err != nil {
		return nil, err
	}
	return yt.WithCredentials(creds), nil
}
