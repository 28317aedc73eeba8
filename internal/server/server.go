// Package server exposes grid stores over an HTTP JSON API. Each POST /grids
// creates a store keyed by a UUID; later requests drive its filters, sort and
// sticky column and read back the derived view.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/store"
)

// Loader reads a dataset from a source string.
type Loader interface {
	Load(ctx context.Context, src string) ([]record.Record, error)
}

// Config holds the server's collaborators.
type Config struct {
	Port           int
	Loader         Loader
	Views          store.Store // optional
	GridOptions    []grid.Option
	AllowedOrigins []string
}

// Server hosts grid sessions.
type Server struct {
	port     int
	loader   Loader
	views    store.Store
	gridOpts []grid.Option
	origins  []string

	mu    sync.RWMutex
	grids map[string]*session
}

type session struct {
	id      string
	source  string
	compare string
	created time.Time
	store   *grid.Store

	// edit serializes edit round trips so each one starts from the
	// previous edit's dataset.
	edit sync.Mutex
}

// New creates a server.
func New(cfg Config) *Server {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		port:     cfg.Port,
		loader:   cfg.Loader,
		views:    cfg.Views,
		gridOpts: cfg.GridOptions,
		origins:  origins,
		grids:    make(map[string]*session),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger,
		cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/health", s.health)

	r.Route("/grids", func(r chi.Router) {
		r.Post("/", s.createGrid)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getGrid)
			r.Delete("/", s.deleteGrid)
			r.Get("/filters/{column}", s.getFilter)
			r.Put("/filters/{column}", s.putFilter)
			r.Delete("/filters", s.clearFilters)
			r.Put("/sort", s.putSort)
			r.Put("/sticky", s.putSticky)
			r.Post("/comparison", s.postComparison)
			r.Get("/cells/{row}/{column}", s.getCell)
			r.Put("/cells/{row}/{column}", s.putCell)
			r.Get("/export.{format}", s.exportGrid)
			r.Post("/views", s.saveView)
		})
	})

	r.Get("/views", s.listViews)

	return r
}

// Serve listens on the configured port until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		zap.L().Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) add(sess *session) {
	s.mu.Lock()
	s.grids[sess.id] = sess
	s.mu.Unlock()
}

func (s *Server) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.grids[id]
	return sess, ok
}

func (s *Server) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grids[id]; !ok {
		return false
	}
	delete(s.grids, id)
	return true
}

func (s *Server) sources(sess *session) (src, compare string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.source, sess.compare
}

func newSession(source, compare string, opts []grid.Option) *session {
	return &session{
		id:      uuid.New().String(),
		source:  source,
		compare: compare,
		created: time.Now().UTC(),
		store:   grid.New(opts...),
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
