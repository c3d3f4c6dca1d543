package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/analytics"
	"github.com/dkarki/twinfolio/internal/handler/chat"
	"github.com/dkarki/twinfolio/internal/handler/stream"
	"github.com/dkarki/twinfolio/internal/handler/ws"
	middlewarePkg "github.com/dkarki/twinfolio/internal/middleware"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
)

// NewRouter wires the HTTP surfaces onto the answer pipeline.
func NewRouter(pipelineSvc *pipeline.Service, recorder *analytics.Recorder, health map[string]bool, tools chat.ToolHealth, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(requestLogger(logger))

	chatHandler := chat.New(pipelineSvc, recorder, health, tools)
	streamHandler := stream.New(pipelineSvc, logger)
	wsHandler := ws.New(pipelineSvc, logger)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		api.Get("/chat/stream", streamHandler.ServeHTTP)
		api.Get("/ws/chat", wsHandler.ServeHTTP)
	})

	return r
}

// requestLogger is a thin zap adaptation of chi's logging middleware.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	named := logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			named.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("requestId", middleware.GetReqID(r.Context())))
		})
	}
}
