package routes

import (
	"net/http"

	"github.com/openvaers/analyzer-backend/internal/api/handlers"
	"github.com/openvaers/analyzer-backend/internal/api/middleware"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	reportHandler  *handlers.ReportHandler
	analyzeHandler *handlers.AnalyzeHandler
	streamHandler  *handlers.StreamHandler
	fdaProxy       *handlers.FDAProxyHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	reportHandler *handlers.ReportHandler,
	analyzeHandler *handlers.AnalyzeHandler,
	streamHandler *handlers.StreamHandler,
	fdaProxy *handlers.FDAProxyHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		reportHandler:   reportHandler,
		analyzeHandler:  analyzeHandler,
		streamHandler:   streamHandler,
		fdaProxy:        fdaProxy,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Report endpoints
	r.mux.HandleFunc("GET /api/reports", r.reportHandler.ListReports)
	r.mux.HandleFunc("POST /api/reports", r.reportHandler.CreateReport)
	r.mux.HandleFunc("GET /api/reports/vaers/{vaersId}", r.reportHandler.GetReportByVaersID)
	r.mux.HandleFunc("GET /api/reports/{id}", r.reportHandler.GetReport)
	r.mux.HandleFunc("PATCH /api/reports/{id}", r.reportHandler.UpdateReport)
	r.mux.HandleFunc("DELETE /api/reports/{id}", r.reportHandler.DeleteReport)

	// Streaming analysis endpoint
	r.mux.HandleFunc("POST /api/analyze", r.analyzeHandler.AnalyzeReport)

	// Report lifecycle event stream
	r.mux.HandleFunc("GET /api/stream/reports", r.streamHandler.StreamReportUpdates)

	// FDA tool proxy for browser clients
	if r.fdaProxy != nil {
		r.mux.HandleFunc("POST /api/mcp/fda", r.fdaProxy.ProxyToolCall)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
