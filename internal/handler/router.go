package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/handler/chat"
	"github.com/zhouzirui/feels/backend/internal/handler/process"
	"github.com/zhouzirui/feels/backend/internal/handler/profile"
	"github.com/zhouzirui/feels/backend/internal/handler/stream"
	"github.com/zhouzirui/feels/backend/internal/handler/ws"
	profileModel "github.com/zhouzirui/feels/backend/internal/model/profile"
	"github.com/zhouzirui/feels/backend/internal/observability"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
	"github.com/zhouzirui/feels/backend/pkg/utils"
)

// Deps 汇总路由需要的服务。
type Deps struct {
	Profiles      profileModel.Store
	Chats         *chatService.Service
	Conversations *conversation.Service
	Processor     *processor.Service
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":     "ok",
				"classifier": deps.Processor.Classifier().Ready(),
				"backend":    deps.Processor.Classifier().Backend(),
				"ai":         deps.Conversations.Available(),
			})
		})

		profile.New(deps.Profiles).RegisterRoutes(api)
		chat.New(deps.Chats, deps.Profiles).RegisterRoutes(api)
		process.New(deps.Processor).RegisterRoutes(api)
		stream.New(deps.Conversations, deps.Metrics, logger).RegisterRoutes(api)
		ws.New(deps.Conversations, deps.Metrics, logger).RegisterRoutes(api)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
