package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/cphub-api/internal/config"
	"github.com/yourusername/cphub-api/internal/handler"
	"github.com/yourusername/cphub-api/internal/judge"
	"github.com/yourusername/cphub-api/internal/middleware"
	pgRepo "github.com/yourusername/cphub-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/cphub-api/internal/repository/redis"
	"github.com/yourusername/cphub-api/internal/service"
	"github.com/yourusername/cphub-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	eventRepo := pgRepo.NewEventRepo(db)
	rankListRepo := pgRepo.NewRankListRepo(db)
	attendanceRepo := pgRepo.NewAttendanceRepo(db)
	solveStatRepo := pgRepo.NewSolveStatRepo(
		db,
		cfg.Sync.BatchSize,
		time.Duration(cfg.Sync.TxTimeoutSec)*time.Second,
	)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем клиентов внешних судей
	judgeTimeout := time.Duration(cfg.Judge.RequestTimeout) * time.Second
	cfClient := judge.NewCodeforcesClient(cfg.Judge.CodeforcesBaseURL, judgeTimeout)
	acClient := judge.NewAtcoderClient(cfg.Judge.AtcoderAPIBaseURL, judgeTimeout, cacheRepo, cfg.Judge.ContestListTTL)
	vjClient := judge.NewVjudgeClient(cfg.Judge.VjudgeBaseURL, judgeTimeout)

	// Инициализируем сервисы
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	scoreService := service.NewScoreService(rankListRepo, solveStatRepo)
	eventService := service.NewEventService(eventRepo, attendanceRepo)
	rankListService := service.NewRankListService(rankListRepo, eventRepo, scoreService)
	syncService := service.NewSyncService(
		eventRepo, userRepo, rankListRepo, solveStatRepo, attendanceRepo,
		cfClient, acClient, vjClient,
		scoreService,
	)

	// Инициализируем обработчики
	userHandler := handler.NewUserHandler(userService)
	eventHandler := handler.NewEventHandler(eventService)
	rankListHandler := handler.NewRankListHandler(rankListService)
	syncHandler := handler.NewSyncHandler(syncService)

	authMiddleware := middleware.NewAuthMiddleware(userService)

	router := gin.Default()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Printf("Failed to set trusted proxies: %v", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/login", userHandler.Login)
		}

		// Пользователи
		usersGroup := api.Group("/users")
		{
			usersGroup.GET("", userHandler.ListUsers)
			usersGroup.GET("/:id", middleware.ExtractUintParam("id", "userID"), userHandler.GetUser)

			authedUsers := usersGroup.Group("/")
			authedUsers.Use(authMiddleware.RequireAuth())
			{
				authedUsers.GET("/me", userHandler.GetMe)
				authedUsers.PUT("/me/handles", userHandler.UpdateHandles)
			}
		}

		// События
		eventsGroup := api.Group("/events")
		{
			eventsGroup.GET("", eventHandler.ListEvents)
			eventsGroup.GET("/:id", middleware.ExtractUintParam("id", "eventID"), eventHandler.GetEvent)

			authedEvents := eventsGroup.Group("/")
			authedEvents.Use(authMiddleware.RequireAuth())
			{
				authedEvents.POST("/:id/attendance",
					middleware.ExtractUintParam("id", "eventID"), eventHandler.MarkAttendance)
				authedEvents.GET("/:id/attendance",
					middleware.ExtractUintParam("id", "eventID"), eventHandler.GetAttendance)
				authedEvents.POST("/:id/sync/me",
					middleware.ExtractUintParam("id", "eventID"), syncHandler.SyncSelf)
			}

			adminEvents := eventsGroup.Group("/")
			adminEvents.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
			{
				adminEvents.POST("", eventHandler.CreateEvent)
				adminEvents.PUT("/:id", middleware.ExtractUintParam("id", "eventID"), eventHandler.UpdateEvent)
				adminEvents.DELETE("/:id", middleware.ExtractUintParam("id", "eventID"), eventHandler.DeleteEvent)
				adminEvents.POST("/:id/sync",
					middleware.ExtractUintParam("id", "eventID"), syncHandler.SyncEvent)
			}
		}

		// Лидерборды
		rankListsGroup := api.Group("/ranklists")
		{
			rankListsGroup.GET("", rankListHandler.ListRankLists)
			rankListsGroup.GET("/:id", middleware.ExtractUintParam("id", "rankListID"), rankListHandler.GetRankList)
			rankListsGroup.GET("/:id/standings",
				middleware.ExtractUintParam("id", "rankListID"), rankListHandler.GetStandings)
			rankListsGroup.GET("/:id/standings/export",
				middleware.ExtractUintParam("id", "rankListID"), rankListHandler.ExportStandings)
			rankListsGroup.GET("/:id/events",
				middleware.ExtractUintParam("id", "rankListID"), rankListHandler.GetEventLinks)

			authedRankLists := rankListsGroup.Group("/")
			authedRankLists.Use(authMiddleware.RequireAuth())
			{
				authedRankLists.POST("/:id/subscribe",
					middleware.ExtractUintParam("id", "rankListID"), rankListHandler.Subscribe)
				authedRankLists.DELETE("/:id/subscribe",
					middleware.ExtractUintParam("id", "rankListID"), rankListHandler.Unsubscribe)
			}

			adminRankLists := rankListsGroup.Group("/")
			adminRankLists.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
			{
				adminRankLists.POST("", rankListHandler.CreateRankList)
				adminRankLists.PUT("/:id", middleware.ExtractUintParam("id", "rankListID"), rankListHandler.UpdateRankList)
				adminRankLists.DELETE("/:id", middleware.ExtractUintParam("id", "rankListID"), rankListHandler.DeleteRankList)
				adminRankLists.POST("/:id/events",
					middleware.ExtractUintParam("id", "rankListID"), rankListHandler.AttachEvent)
				adminRankLists.DELETE("/:id/events/:eventId",
					middleware.ExtractUintParam("id", "rankListID"),
					middleware.ExtractUintParam("eventId", "eventID"),
					rankListHandler.DetachEvent)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
