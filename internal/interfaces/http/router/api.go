package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/logger"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/handler"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	System     *handler.SystemHandler
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Categories *handler.CategoryHandler
	Expenses   *handler.ExpenseHandler
	Budgets    *handler.BudgetHandler
	Invoices   *handler.InvoiceHandler
}

// EngineConfig holds what NewEngine needs besides the handlers
type EngineConfig struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Swagger config.SwaggerConfig
	// Tracing enables otelgin spans named after ServiceName
	Tracing     bool
	ServiceName string
	// Meter records HTTP metrics; nil disables them
	Meter metric.Meter
	// Identity resolves the caller, either JWT or the X-User-ID header
	Identity gin.HandlerFunc
	// AuthLimiter throttles register and login; nil disables throttling
	AuthLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Request ID and logging come first so every later failure is correlated.
	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Meter),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", middleware.UserIDHeader},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.ErrCodeRouteNotFound, "Route not found", logger.GetRequestID(c.Request.Context())))
	})

	engine.GET("/health", h.System.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{Enabled: cfg.Swagger.Enabled, AllowedIPs: cfg.Swagger.AllowedIPs}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	identity := cfg.Identity
	if identity == nil {
		identity = middleware.HeaderIdentity()
	}

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(identity, middleware.TracingAttributeInjector())

	throttled := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.AuthLimiter == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{middleware.RateLimit(cfg.AuthLimiter), next}
	}
	requireUser := middleware.RequireUser()

	r.Register(
		NewDomainGroup("/health").
			GET("", h.System.Health),

		NewDomainGroup("/users").
			POST("/register", throttled(h.Auth.Register)...).
			POST("/login", throttled(h.Auth.Login)...).
			POST("/logout", requireUser, h.Auth.Logout).
			GET("/me", requireUser, h.Users.Me).
			PUT("/me", requireUser, h.Users.UpdateMe).
			PUT("/me/preferences", requireUser, h.Users.UpdatePreferences),

		NewDomainGroup("/categories").Use(requireUser).
			GET("", h.Categories.List).
			POST("", h.Categories.Create).
			PUT("/:name", h.Categories.Update).
			DELETE("/:name", h.Categories.Deactivate),

		NewDomainGroup("/expenses").Use(requireUser).
			GET("", h.Expenses.List).
			POST("", h.Expenses.Create).
			GET("/statistics", h.Expenses.Statistics).
			GET("/:id", h.Expenses.Get).
			PUT("/:id", h.Expenses.Update).
			DELETE("/:id", h.Expenses.Delete).
			POST("/:id/submit", h.Expenses.Submit).
			POST("/:id/approve", h.Expenses.Approve).
			POST("/:id/reject", h.Expenses.Reject).
			POST("/:id/reimburse", h.Expenses.Reimburse).
			POST("/:id/tags", h.Expenses.AddTag).
			DELETE("/:id/tags", h.Expenses.RemoveTag).
			POST("/:id/receipt", h.Expenses.UploadReceipt),

		NewDomainGroup("/budgets").Use(requireUser).
			GET("", h.Budgets.List).
			POST("", h.Budgets.Create).
			GET("/:id", h.Budgets.Get).
			PUT("/:id", h.Budgets.Update).
			DELETE("/:id", h.Budgets.Delete).
			PUT("/:id/threshold", h.Budgets.SetThreshold).
			PUT("/:id/recurrence", h.Budgets.SetRecurrence).
			DELETE("/:id/recurrence", h.Budgets.RemoveRecurrence).
			POST("/:id/deactivate", h.Budgets.Deactivate).
			GET("/:id/performance", h.Budgets.Performance),

		NewDomainGroup("/invoices").Use(requireUser).
			GET("", h.Invoices.List).
			POST("", h.Invoices.Create).
			GET("/overdue", h.Invoices.ListOverdue).
			GET("/:id", h.Invoices.Get).
			PUT("/:id", h.Invoices.Update).
			DELETE("/:id", h.Invoices.Delete).
			POST("/:id/items", h.Invoices.AddLineItem).
			PUT("/:id/items/:index", h.Invoices.UpdateLineItem).
			DELETE("/:id/items/:index", h.Invoices.RemoveLineItem).
			POST("/:id/send", h.Invoices.Send).
			POST("/:id/pay", h.Invoices.Pay).
			POST("/:id/cancel", h.Invoices.Cancel),
	)
	r.Setup()

	return engine
}
