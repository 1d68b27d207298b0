package http

import (
	"net/http"

	"github.com/flashkv/engine/internal/api/http/handlers"
	"github.com/flashkv/engine/internal/api/http/middleware"
	"github.com/flashkv/engine/internal/logger"
	"github.com/flashkv/engine/internal/metrics"
	"github.com/flashkv/engine/internal/schema"
	"github.com/flashkv/engine/internal/storage/kv"
)

// Router manages HTTP routes and middleware
type Router struct {
	mux        *http.ServeMux
	store      *kv.Store
	apiMetrics *metrics.APIMetrics
	kvHandlers *handlers.KVHandlers
}

// NewRouter creates a new router
func NewRouter(store *kv.Store, validator *schema.Validator, apiMetrics *metrics.APIMetrics) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		store:      store,
		apiMetrics: apiMetrics,
		kvHandlers: handlers.NewKVHandlers(store, validator),
	}

	r.setupRoutes()

	return r
}

// setupRoutes sets up all HTTP routes
func (r *Router) setupRoutes() {
	chain := middleware.Chain(
		middleware.Recovery(logger.WithComponent("http.middleware")),
		middleware.Logging(logger.WithComponent("http.middleware")),
		middleware.Metrics(r.apiMetrics),
		middleware.Tracing(),
	)

	// Health check endpoints
	r.mux.Handle("/health", chain(http.HandlerFunc(handlers.HealthCheck)))
	r.mux.Handle("/ready", chain(handlers.ReadinessCheck(r.store)))

	// KV API endpoints
	r.mux.Handle("/api/v1/kv/", chain(http.HandlerFunc(r.handleKVRoutes)))

	// Default API v1 route (for unmatched paths)
	r.mux.Handle("/api/v1/", chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})))
}

// handleKVRoutes routes store requests to the appropriate handlers.
// Operations are RPC style under /api/v1/kv/, mutations via POST and
// listings via GET.
func (r *Router) handleKVRoutes(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	if req.Method == http.MethodGet {
		switch path {
		case "/api/v1/kv/keys":
			r.kvHandlers.Keys(w, req)
		case "/api/v1/kv/stats":
			r.kvHandlers.Stats(w, req)
		default:
			http.NotFound(w, req)
		}
		return
	}

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "/api/v1/kv/set":
		r.kvHandlers.Set(w, req)
	case "/api/v1/kv/get":
		r.kvHandlers.Get(w, req)
	case "/api/v1/kv/exists":
		r.kvHandlers.Exists(w, req)
	case "/api/v1/kv/delete":
		r.kvHandlers.Delete(w, req)
	case "/api/v1/kv/set-many":
		r.kvHandlers.SetMany(w, req)
	case "/api/v1/kv/get-many":
		r.kvHandlers.GetMany(w, req)
	case "/api/v1/kv/delete-many":
		r.kvHandlers.DeleteMany(w, req)
	case "/api/v1/kv/pop":
		r.kvHandlers.Pop(w, req)
	case "/api/v1/kv/move":
		r.kvHandlers.Move(w, req)
	case "/api/v1/kv/rename":
		r.kvHandlers.Rename(w, req)
	case "/api/v1/kv/update":
		r.kvHandlers.Update(w, req)
	case "/api/v1/kv/get-expire":
		r.kvHandlers.GetExpire(w, req)
	case "/api/v1/kv/set-expire":
		r.kvHandlers.SetExpire(w, req)
	case "/api/v1/kv/cleanup":
		r.kvHandlers.Cleanup(w, req)
	case "/api/v1/kv/flush":
		r.kvHandlers.Flush(w, req)
	case "/api/v1/kv/vacuum":
		r.kvHandlers.Vacuum(w, req)
	default:
		http.NotFound(w, req)
	}
}
