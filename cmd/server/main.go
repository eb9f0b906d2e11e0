package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/corclo/backend/internal/affinity"
	"github.com/corclo/backend/internal/auth"
	"github.com/corclo/backend/internal/config"
	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/handlers"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/middleware"
	"github.com/corclo/backend/internal/notifications"
	"github.com/corclo/backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal, production injects env directly
		os.Stderr.WriteString("no .env file found, using system environment\n")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== Corclo server starting ===")

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService([]byte(cfg.JWTSecret))

	engagementWriter := engagement.NewWriter(database.DB)
	affinityService := affinity.NewService(database.DB, engagementWriter)
	notificationService := notifications.NewService(database.DB)

	h := handlers.NewHandlers(engagementWriter, affinityService, notificationService)
	authHandlers := handlers.NewAuthHandlers(authService)

	// S3 is optional: without a bucket, media uploads degrade per-handler
	if cfg.AWSBucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Fatal("failed to initialize S3 uploader", zap.Error(err))
		}
		if err := uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed, media uploads may fail", zap.Error(err))
		}
		h.SetUploader(uploader)
	} else {
		logger.Log.Warn("AWS_BUCKET not set, media uploads disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "corclo-backend",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := authService.Middleware()

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitAuth(), authHandlers.Register)
			authGroup.POST("/login", middleware.RateLimitAuth(), authHandlers.Login)
			authGroup.GET("/me", authRequired, authHandlers.Me)
		}

		posts := api.Group("/posts")
		{
			posts.Use(authRequired)
			posts.POST("", middleware.RateLimitUpload(), h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/like", h.LikePost)
			posts.DELETE("/:id/like", h.UnlikePost)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
			posts.POST("/:id/bookmark", h.BookmarkPost)
			posts.DELETE("/:id/bookmark", h.UnbookmarkPost)
		}

		feed := api.Group("/feed")
		{
			feed.Use(authRequired)
			feed.GET("", h.GetFeed)
		}

		users := api.Group("/users")
		{
			users.Use(authRequired)
			users.GET("/search", h.SearchUsers)
			users.GET("/by-username/:username", h.GetUserByUsername)
			users.PUT("/me", middleware.RateLimitUpload(), h.UpdateProfile)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/posts", h.GetUserPosts)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
		}

		bookmarks := api.Group("/bookmarks")
		{
			bookmarks.Use(authRequired)
			bookmarks.GET("", h.GetBookmarks)
		}

		conversations := api.Group("/conversations")
		{
			conversations.Use(authRequired)
			conversations.POST("", h.StartConversation)
			conversations.GET("", h.GetConversations)
			conversations.GET("/:id/messages", h.GetMessages)
			conversations.POST("/:id/messages", middleware.RateLimitUpload(), h.SendMessage)
		}

		messages := api.Group("/messages")
		{
			messages.Use(authRequired)
			messages.PUT("/:id", h.EditMessage)
			messages.DELETE("/:id", h.DeleteMessage)
			messages.POST("/:id/like", h.LikeMessage)
			messages.DELETE("/:id/like", h.UnlikeMessage)
		}

		stories := api.Group("/stories")
		{
			stories.Use(authRequired)
			stories.POST("", middleware.RateLimitUpload(), h.CreateStory)
			stories.GET("", h.GetStories)
			stories.POST("/:id/view", h.ViewStory)
			stories.GET("/:id/views", h.GetStoryViews)
		}

		notificationsGroup := api.Group("/notifications")
		{
			notificationsGroup.Use(authRequired)
			notificationsGroup.GET("", h.GetNotifications)
			notificationsGroup.GET("/unread", h.GetUnreadCount)
			notificationsGroup.POST("/read", h.MarkNotificationsRead)
		}

		affinityGroup := api.Group("/affinity")
		{
			affinityGroup.Use(authRequired)
			affinityGroup.GET("/suggestions", h.GetSuggestions)
			affinityGroup.GET("/pings", h.GetPings)
			affinityGroup.POST("/pings", h.SendPing)
			affinityGroup.POST("/pings/:id/accept", h.AcceptPing)
		}

		dashboard := api.Group("/dashboard")
		{
			dashboard.Use(authRequired)
			dashboard.GET("/attention", h.GetAttentionMetrics)
			dashboard.GET("/export", h.ExportData)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Corclo backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("server exited")
}
