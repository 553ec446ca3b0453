package router

import (
	"net/http"
	"time"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/game"
	"github.com/Paddione/network-quiz/internal/handler"
	"github.com/Paddione/network-quiz/internal/middleware"
	"github.com/Paddione/network-quiz/internal/response"
	"github.com/Paddione/network-quiz/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Quiz   *handler.QuizHandler
	Admin  *handler.AdminHandler
	Media  *handler.MediaHandler
	GameWS *handler.GameWSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	hub *game.Hub,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Serve uploaded question images statically.
	router.Static("/uploads", cfg.UploadDir)

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":     "ok",
			"live_games": hub.Sessions(),
		})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
		auth.POST("/change-password",
			middleware.RequireUserJWT(authService),
			middleware.CheckActiveSession(authService),
			handlers.Auth.ChangePassword,
		)
	}

	// ─── 2. Public Quiz Group ──────────────────────────────────────────
	quizAPI := router.Group("/api/quiz")
	{
		quizAPI.GET("/sets", handlers.Quiz.ListSets)
		quizAPI.GET("/sets/:id", handlers.Quiz.GetSet)
		quizAPI.GET("/games/active", handlers.Quiz.ListActiveGames)
		quizAPI.GET("/highscores", handlers.Quiz.Highscores)

		quizAPI.GET("/personal-highscores",
			middleware.RequireUserJWT(authService),
			handlers.Quiz.PersonalHighscores,
		)
		quizAPI.GET("/highscore-history",
			middleware.RequireUserJWT(authService),
			handlers.Quiz.HighscoreHistory,
		)
	}

	// ─── 3. WebSocket Group (Optional Identity) ────────────────────────
	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.OptionalWSIdentity(authService))
	{
		wsGroup.GET("/game", handlers.GameWS.Serve)
	}

	// ─── 4. Admin Group (JWT + Admin Flag) ─────────────────────────────
	adminAPI := router.Group("/api/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Media upload
		adminAPI.POST("/media", handlers.Media.Upload)

		// Quiz set management
		adminAPI.GET("/quiz-sets", handlers.Admin.ListSets)
		adminAPI.POST("/quiz-sets", handlers.Admin.CreateSet)
		adminAPI.PUT("/quiz-sets/:id", handlers.Admin.UpdateSet)
		adminAPI.DELETE("/quiz-sets/:id", handlers.Admin.DeleteSet)

		// Chapter management
		adminAPI.GET("/quiz-sets/:id/chapters", handlers.Admin.ListChapters)
		adminAPI.POST("/quiz-sets/:id/chapters", handlers.Admin.CreateChapter)
		adminAPI.PUT("/chapters/:id", handlers.Admin.UpdateChapter)
		adminAPI.DELETE("/chapters/:id", handlers.Admin.DeleteChapter)

		// Question management
		adminAPI.GET("/chapters/:id/questions", handlers.Admin.ListQuestions)
		adminAPI.POST("/chapters/:id/questions", handlers.Admin.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Admin.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Admin.DeleteQuestion)

		// Option management
		adminAPI.GET("/questions/:id/options", handlers.Admin.ListOptions)
		adminAPI.POST("/questions/:id/options", handlers.Admin.CreateOption)
		adminAPI.PUT("/options/:id", handlers.Admin.UpdateOption)
		adminAPI.DELETE("/options/:id", handlers.Admin.DeleteOption)
	}

	return router
}
