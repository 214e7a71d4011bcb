package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lexiq-backend/internal/service"
	"lexiq-backend/pkg/middleware"
	"lexiq-backend/utilities"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth      service.AuthService
	Tests     service.EnglishTestService
	Answers   service.AnswerService
	Diagnosis service.DiagnosisService
	Profile   service.ProfileService
	Progress  service.ProgressService
	Reports   service.ReportService

	// Health reports dependency status for /health. Nil reports only
	// that the process is up.
	Health func(ctx context.Context) (map[string]interface{}, error)
}

// RegisterRoutes registers all route groups and their endpoints. The
// limiter only guards the credential endpoints; nil disables it.
func RegisterRoutes(
	r *gin.Engine,
	svc Services,
	jwtManager *utilities.JWTManager,
	blacklist utilities.TokenBlacklist,
	limiter *middleware.IPRateLimiter,
) {
	requireAuth := utilities.AuthMiddleware(jwtManager, blacklist)

	// Auth routes.
	authCtrl := NewAuthController(svc.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", middleware.RateLimitMiddleware(limiter), authCtrl.Register)
		authRoutes.POST("/token", middleware.RateLimitMiddleware(limiter), authCtrl.Login)
		authRoutes.POST("/refresh", authCtrl.Refresh)
		authRoutes.GET("/verify-token/:token", authCtrl.VerifyToken)
		authRoutes.POST("/logout", requireAuth, authCtrl.Logout)
	}

	// English test routes.
	testCtrl := NewEnglishTestController(svc.Tests, svc.Answers, svc.Diagnosis)
	testRoutes := r.Group("/english-test", requireAuth)
	{
		testRoutes.POST("/select-level", testCtrl.SelectLevel)
		testRoutes.POST("/generate", testCtrl.Generate)
		testRoutes.POST("/diagnostic", testCtrl.Diagnostic)
		testRoutes.POST("/upgrade", testCtrl.Upgrade)
		testRoutes.POST("/answers", testCtrl.SubmitAnswers)
		testRoutes.POST("/sessions/:session_id/submit", testCtrl.SubmitSession)
	}

	// Profile routes.
	profileCtrl := NewProfileController(svc.Profile, svc.Progress, svc.Reports)
	profileRoutes := r.Group("/profile", requireAuth)
	{
		profileRoutes.GET("/me", profileCtrl.Me)
		profileRoutes.GET("/history", profileCtrl.History)
		profileRoutes.GET("/history/report", profileCtrl.DownloadHistory)
		profileRoutes.GET("/progress", profileCtrl.Progress)
		profileRoutes.POST("/update-email", profileCtrl.UpdateEmail)
		profileRoutes.POST("/verify-email", profileCtrl.VerifyEmail)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if svc.Health != nil {
			details, err := svc.Health(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
			for k, v := range details {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
}
