// Package app wires the HTTP surface of the service
package app

import (
	"bitwise74/community-api/app/admin"
	"bitwise74/community-api/app/root"
	"bitwise74/community-api/app/user"
	"bitwise74/community-api/internal"
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/pkg/middleware"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodySize = 1 << 20

type RouterOptions struct {
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter

	// Turnstile guards the endpoints that create work for the mailer, nil
	// disables it
	Turnstile middleware.TurnstileVerifier
}

func NewRouter(d *internal.Deps, o RouterOptions) *gin.Engine {
	router := gin.New()

	// cors refuses a config without origins, same-origin deployments need none
	if len(o.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	limiter := o.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{})
	}

	rateLimit := limiter.Handler()
	turnstile := middleware.NewTurnstileMiddleware(o.Turnstile)
	cacheStore := persist.NewMemoryStore(time.Minute)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)
		main.GET("/heartbeat", root.Heartbeat)

		// GET /api/roles		-> Lists roles and what each feature requires
		main.GET("/roles", cache.CacheByRequestURI(cacheStore, 5*time.Minute), root.Roles)
	}

	auth := main.Group("/auth", middleware.BodySizeLimiter(maxBodySize))
	{
		// POST /api/auth/register	-> Registers a new unverified user
		auth.POST("/register", rateLimit, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/auth/login		-> Logs in a user and sets the session cookie
		auth.POST("/login", rateLimit, func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/auth/logout	-> Ends the session behind the cookie
		auth.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// GET|POST /api/auth/verify	-> Consumes an email verification token
		auth.GET("/verify", func(c *gin.Context) { user.UserVerify(c, d) })
		auth.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/auth/resend	-> Sends a new verification link
		auth.POST("/resend", rateLimit, turnstile, func(c *gin.Context) { user.UserResend(c, d) })

		// GET /api/auth/me		-> Returns the user behind the session
		auth.GET("/me", d.Auth.RequireAuth(), user.UserMe)
	}

	adm := main.Group("/admin")
	for _, f := range model.Features {
		// GET /api/admin/:feature	-> Entry point of a role gated feature
		adm.GET("/"+string(f), d.Auth.RequireRole(f.AllowedRoles()...), admin.Feature(f))
	}

	return router
}
