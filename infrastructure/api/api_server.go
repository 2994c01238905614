package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	apimiddleware "github.com/Acurioustractor/palm-island-repository/infrastructure/api/middleware"
	v1 "github.com/Acurioustractor/palm-island-repository/infrastructure/api/v1"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/v1/dto"
	mcpinternal "github.com/Acurioustractor/palm-island-repository/internal/mcp"
)

// ServiceName is reported by GET /.
const ServiceName = "Palm Island AI Services"

const requestTimeout = 60 * time.Second

// APIServer provides an HTTP API backed by a palmisland Client.
type APIServer struct {
	client      *palmisland.Client
	apiKeys     []string
	corsOrigins []string
	handler     http.Handler
	once        sync.Once
	mu          sync.Mutex
	server      *Server
	stopped     bool
	logger      *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client.
// apiKeys configures write-protection: the sync and delete endpoints require
// a valid key when any is set. Search, embedding, stats and MCP stay open.
func NewAPIServer(client *palmisland.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:      client,
		apiKeys:     apiKeys,
		corsOrigins: client.Config().CORSOrigins(),
		logger:      client.Logger(),
	}
}

// mountRoutes wires up every route on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	searchRouter := v1.NewSearchRouter(c)
	embeddingRouter := v1.NewEmbeddingRouter(c)
	storiesRouter := v1.NewStoriesRouter(c)

	router.Get("/", a.root)
	router.Get("/health", a.health)

	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))
			r.Mount("/search", searchRouter.Routes())
			embeddingRouter.Register(r)
			storiesRouter.Register(r)
		})

		// A full sync can outlast the request timeout.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(a.apiKeys))
			storiesRouter.RegisterProtected(r)
		})
	})

	mcpSrv := mcpinternal.NewServer(c.Search, palmisland.Version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

func (a *APIServer) root(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, dto.ServiceInfo{
		Status:  "healthy",
		Service: ServiceName,
		Version: palmisland.Version,
	})
}

// health is static: it reports the process is up without probing the
// model or Qdrant.
func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{
		Status: "healthy",
		Services: map[string]string{
			"api":             "running",
			"embedding_model": "loaded",
			"qdrant":          "connected",
		},
	})
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger, a.corsOrigins)
	a.mountRoutes(srv.Router())

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.server = &srv
	a.mu.Unlock()

	return srv.Start()
}

// Shutdown gracefully shuts down the server. A later ListenAndServe returns
// immediately.
func (a *APIServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.stopped = true
	srv := a.server
	a.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the fully wired router for use with custom servers and
// tests.
func (a *APIServer) Handler() http.Handler {
	a.once.Do(func() {
		srv := NewServer("", a.logger, a.corsOrigins)
		a.mountRoutes(srv.Router())
		a.handler = srv.Router()
	})
	return a.handler
}
