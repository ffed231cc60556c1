package api

import (
	"github.com/gin-gonic/gin"
	"github.com/peermeet/peermeet-backend/internal/api/handlers"
	"github.com/peermeet/peermeet-backend/internal/api/middleware"
	"github.com/peermeet/peermeet-backend/internal/config"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/internal/repository"
	"github.com/peermeet/peermeet-backend/internal/service"
	"github.com/peermeet/peermeet-backend/internal/websocket"
	"github.com/peermeet/peermeet-backend/pkg/database"
	"github.com/peermeet/peermeet-backend/pkg/distributed"
	"github.com/peermeet/peermeet-backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server 라우터와 백그라운드 서비스 핸들
type Server struct {
	Router          *gin.Engine
	matchingService *service.MatchingService
	meetingService  *service.MeetingService
}

// Shutdown 백그라운드 서비스 정리
func (s *Server) Shutdown() {
	s.matchingService.Stop()
	s.meetingService.Stop()
}

// SetupServer API 라우터 및 백그라운드 서비스 구성
func SetupServer(cfg *config.Config, db *database.DB) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Redis 클라이언트 초기화
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		panic("Invalid Redis URL: " + err.Error())
	}
	redisClient := redis.NewClient(redisOpts)

	// Repository 초기화
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// 분산 컴포넌트 초기화
	zapLogger, _ := zap.NewProduction()
	lockManager := distributed.NewRedisLockManager(redisClient)
	matchEvents := service.NewRedisMatchEvents(
		distributed.NewMatchEventQueue(redisClient, "matching:events:formed"),
	)
	coordinator := distributed.NewCycleCoordinator(redisClient, zapLogger)

	// Service 초기화
	userService := service.NewUserService(userRepo)
	profileService := service.NewProfileService(profileRepo)
	scoringService := service.NewScoringService(models.DefaultScoringWeights())
	queueService := service.NewQueueService(queueRepo, auditRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Meeting Service 초기화 및 시작 (매치 이벤트 소비)
	meetingService := service.NewMeetingService(meetingRepo, matchEvents, wsHub)
	meetingService.Start()

	// 시그널 릴레이는 예정된 미팅이 있는 쌍에게만 허용
	wsHub.SetSignalAuthorizer(meetingService.CanSignal)

	// Matching Service 초기화 및 시작
	matchingService := service.NewMatchingService(
		queueRepo,
		profileRepo,
		auditRepo,
		scoringService,
		matchEvents,
		cfg.MatchingInterval,
		cfg.MatchingShardCount,
		cfg.MatchingMinScore,
		cfg.MatchingMaxMatches,
	)
	matchingService.SetLockManager(lockManager)
	matchingService.SetCoordinator(coordinator)
	matchingService.Start()

	// Rate Limiter 초기화
	redisLimiter := ratelimit.NewRedisRateLimiter(redisClient, "ratelimit:")

	// Handler 초기화
	authHandler := handlers.NewAuthHandler(userService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	queueHandler := handlers.NewQueueHandler(queueService)
	matchingHandler := handlers.NewMatchingHandler(matchingService, queueService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.GeneralAPIRateLimit())
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.Auth(cfg), wsHandler.HandleWebSocket)

		// Auth routes
		auth := v1.Group("/auth")
		auth.Use(middleware.RedisAuthRateLimit(redisLimiter))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.Auth(cfg))
		{
			users.GET("/me", userHandler.GetCurrentUser)
			users.PUT("/me", userHandler.UpdateCurrentUser)
			users.GET("/me/profile", profileHandler.GetMyProfile)
			users.PUT("/me/profile", profileHandler.UpdateMyProfile)
		}

		// Profile routes (read-only lookup of other users)
		profiles := v1.Group("/profiles")
		profiles.Use(middleware.Auth(cfg))
		{
			profiles.GET("/:id", profileHandler.GetProfile)
		}

		// Queue routes
		queue := v1.Group("/queue")
		queue.Use(middleware.Auth(cfg))
		{
			queue.POST("", middleware.RedisQueueEntryRateLimit(redisLimiter), queueHandler.EnterQueue)
			queue.GET("/status", queueHandler.GetQueueStatus)
			queue.DELETE("/:id", queueHandler.CancelQueueEntry)
		}

		// Match routes
		matches := v1.Group("/matches")
		matches.Use(middleware.Auth(cfg))
		{
			matches.POST("/:id/feedback", middleware.RedisFeedbackRateLimit(redisLimiter), analyticsHandler.SubmitFeedback)
		}

		// Analytics routes
		analytics := v1.Group("/analytics")
		analytics.Use(middleware.Auth(cfg))
		{
			analytics.GET("/history", analyticsHandler.GetHistory)
			analytics.GET("/stats", analyticsHandler.GetStats)
		}

		// Meeting routes
		meetings := v1.Group("/meetings")
		meetings.Use(middleware.Auth(cfg))
		{
			meetings.GET("", meetingHandler.ListMyMeetings)
			meetings.GET("/:id", meetingHandler.GetMeeting)
			meetings.PUT("/:id/complete", meetingHandler.CompleteMeeting)
			meetings.PUT("/:id/cancel", meetingHandler.CancelMeeting)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.Admin(cfg))
		{
			admin.POST("/matching/trigger", matchingHandler.TriggerCycle)
			admin.POST("/matching/run", matchingHandler.RunCycle)
			admin.POST("/queue/cleanup", matchingHandler.CleanupExpired)
		}
	}

	return &Server{
		Router:          router,
		matchingService: matchingService,
		meetingService:  meetingService,
	}
}
