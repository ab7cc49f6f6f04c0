package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/config"
	httpapi "github.com/mindmesh/mindmesh-client/internal/api/http"
	"github.com/mindmesh/mindmesh-client/internal/api/http/middleware"
	authhttp "github.com/mindmesh/mindmesh-client/internal/auth/http"
	authmw "github.com/mindmesh/mindmesh-client/internal/auth/middleware"
	authservice "github.com/mindmesh/mindmesh-client/internal/auth/service"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/session"

	analyticshttp "github.com/mindmesh/mindmesh-client/internal/analytics/http"
	analyticsservice "github.com/mindmesh/mindmesh-client/internal/analytics/service"
	dailyloghttp "github.com/mindmesh/mindmesh-client/internal/dailylog/http"
	dailylogservice "github.com/mindmesh/mindmesh-client/internal/dailylog/service"
	decisiondomain "github.com/mindmesh/mindmesh-client/internal/decision/domain"
	decisionhttp "github.com/mindmesh/mindmesh-client/internal/decision/http"
	decisionservice "github.com/mindmesh/mindmesh-client/internal/decision/service"
	screenshttp "github.com/mindmesh/mindmesh-client/internal/screens/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Config      *config.Config
	Store       session.Store
	Client      *backend.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version,
		httpapi.PingFunc(dep.Client.Health), dep.Store).WithStats(dep.Client.Stats)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	healthHandler.RegisterRoutes(api)

	authService := authservice.NewAuthService(dep.Store, dep.Client, cfg.Session.RevalidateInterval)
	requireSession := authmw.RequireSession(authService, cfg.Server.CookieSecure)
	optionalSession := authmw.OptionalSession(authService, cfg.Server.CookieSecure)

	authhttp.New(authService, cfg.Session.TTL, cfg.Server.CookieSecure).
		Register(api.Group("/auth"), requireSession, optionalSession)

	dailyLog := api.Group("/daily-log", requireSession)
	dailyloghttp.New(dailylogservice.NewDraftService(dep.Store).WithCallTimeout(cfg.Backend.Timeout)).Register(dailyLog)

	policy := decisiondomain.Policy{QuestionThreshold: cfg.Decision.QuestionThreshold}
	decisions := api.Group("/decisions", requireSession)
	conversations := decisionservice.NewConversationService(dep.Store, policy).WithCallTimeout(cfg.Backend.Timeout)
	decisionhttp.New(conversations).Register(decisions)

	analytics := api.Group("", requireSession)
	analyticshttp.New(analyticsservice.NewAnalyticsService()).Register(analytics)

	screenshttp.New().Register(api, optionalSession)

	return r
}
