package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bobos12/eyeclinic/internal/config"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires middleware and every route of the clinic API. The API is
// mounted under /api; Prometheus metrics are served at /metrics.
func NewRouter(cfg *config.Config, svc Services, m *metrics.Collector, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = false

	r.Use(
		RequestID(),
		ExposeErrors(!cfg.App.IsProduction()),
		Recovery(log),
		RequestLogger(log),
		Metrics(m),
		Tracing(cfg.Tracing.ServiceName),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           cfg.CORS.MaxAge,
		}),
		RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
	)

	r.GET("/metrics", gin.WrapH(m.Handler()))

	authH := NewAuthHandler(svc.Auth)
	userH := NewUserHandler(svc.Users)
	patientH := NewPatientHandler(svc.Patients)
	visitH := NewVisitHandler(svc.Visits)

	api := r.Group("/api", RequestTimeout(cfg.Server.RequestTimeout))
	api.GET("/health", health(svc.Health))
	api.POST("/auth/login", LoginRateLimit(cfg.RateLimit.AuthRequestsPerMinute), authH.Login)

	protected := api.Group("", Authenticate(svc.Auth))

	protected.GET("/auth/me", authH.Me)
	protected.PUT("/auth/password", authH.ChangePassword)
	protected.POST("/auth/register", RequireOperation(auth.OpRegisterUser), authH.Register)

	users := protected.Group("/users")
	users.GET("", RequireOperation(auth.OpListUsers), userH.List)
	users.GET("/:id", RequireOperation(auth.OpGetUser), userH.Get)
	users.PUT("/:id", RequireOperation(auth.OpUpdateUser), userH.Update)
	users.DELETE("/:id", RequireOperation(auth.OpDeleteUser), userH.Delete)

	patients := protected.Group("/patients")
	patients.GET("", RequireOperation(auth.OpReadPatient), patientH.List)
	patients.GET("/search/:name", RequireOperation(auth.OpReadPatient), patientH.Search)
	patients.GET("/:id", RequireOperation(auth.OpReadPatient), patientH.Get)
	patients.GET("/:id/visits", RequireOperation(auth.OpReadPatient), patientH.GetWithVisits)
	patients.POST("", RequireOperation(auth.OpCreatePatient), patientH.Create)
	patients.PUT("/:id", RequireOperation(auth.OpUpdatePatient), patientH.Update)
	patients.DELETE("/:id", RequireOperation(auth.OpDeletePatient), patientH.Delete)

	visits := protected.Group("/visits")
	visits.GET("", RequireOperation(auth.OpReadVisit), visitH.List)
	visits.GET("/:id", RequireOperation(auth.OpReadVisit), visitH.Get)
	visits.POST("", RequireOperation(auth.OpCreateVisit), visitH.Create)
	visits.PUT("/:id", RequireOperation(auth.OpUpdateVisit), visitH.Update)
	visits.DELETE("/:id", RequireOperation(auth.OpDeleteVisit), visitH.Delete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path),
		})
	})

	return r
}

func health(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := "connected"
		if check == nil || check(c.Request.Context()) != nil {
			db = "disconnected"
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"status":    "OK",
			"message":   "Eye Clinic API is running",
			"mongodb":   db,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
