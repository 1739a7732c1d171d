package router

import (
	"net/http"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/config"
	"github.com/anu-082006/Knee-Braced/internal/handlers"
	"github.com/anu-082006/Knee-Braced/internal/repository"
	"github.com/anu-082006/Knee-Braced/internal/serial"
	"github.com/anu-082006/Knee-Braced/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, store *repository.Store, manager *serial.Manager, dispatcher *services.Dispatcher) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("kneebraced", cookieStore))

	router.Use(CSRFProtection("/api/device/stream"))
	router.Use(UserLoaderMiddleware())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	authHandler := handlers.NewAuthHandler(log)
	exerciseHandler := handlers.NewExerciseHandler(log, store)
	deviceHandler := handlers.NewDeviceHandler(log, manager, store, dispatcher)
	patientHandler := handlers.NewPatientHandler(log, store)
	relayHandler := handlers.NewRelayHandler(log, config.Conf.Webhook.URL)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateLimitErrorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")

	api.GET("/csrf", CSRFToken)
	api.POST("/register", limiter, authHandler.Register)
	api.POST("/login", limiter, authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.POST("/relay/webhook", relayHandler.Forward)

	authorized := api.Group("/")
	authorized.Use(AuthRequired())
	{
		profileRoutes := authorized.Group("/profile")
		{
			profileRoutes.POST("/update-info", authHandler.UpdateInfo)
			profileRoutes.POST("/update-password", authHandler.UpdatePassword)
			profileRoutes.POST("/delete", authHandler.DeleteAccount)
		}

		deviceRoutes := authorized.Group("/device")
		{
			deviceRoutes.POST("/stream", deviceHandler.Stream)
			deviceRoutes.POST("/record/start", deviceHandler.RecordStart)
			deviceRoutes.POST("/record/stop", deviceHandler.RecordStop)
			deviceRoutes.GET("/latest", deviceHandler.Latest)
		}

		authorized.GET("/assignments", exerciseHandler.ListAssignments)

		patientRoutes := authorized.Group("/patients/:id")
		{
			patientRoutes.GET("/assignments", exerciseHandler.ListAssignments)
			patientRoutes.GET("/assignments/stream", exerciseHandler.AssignmentStream)
			patientRoutes.GET("/measurements", patientHandler.Measurements)
			patientRoutes.GET("/measurements/stream", patientHandler.MeasurementStream)
			patientRoutes.GET("/sessions", patientHandler.Sessions)
			patientRoutes.GET("/sessions/stream", patientHandler.SessionStream)
		}

		therapistRoutes := authorized.Group("/")
		therapistRoutes.Use(TherapistRequired())
		{
			therapistRoutes.GET("/patients", patientHandler.List)
			therapistRoutes.POST("/exercises", exerciseHandler.CreateTemplate)
			therapistRoutes.GET("/exercises", exerciseHandler.ListTemplates)
			therapistRoutes.POST("/assignments", exerciseHandler.Assign)
		}
	}

	return router
}
