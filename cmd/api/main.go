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

	"github.com/yourusername/hypertest-api/internal/config"
	"github.com/yourusername/hypertest-api/internal/handler"
	"github.com/yourusername/hypertest-api/internal/middleware"
	pgRepo "github.com/yourusername/hypertest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/hypertest-api/internal/repository/redis"
	"github.com/yourusername/hypertest-api/internal/service"
	"github.com/yourusername/hypertest-api/pkg/auth"
	"github.com/yourusername/hypertest-api/pkg/database"
	"github.com/yourusername/hypertest-api/pkg/picture"
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
	userRepo := pgRepo.NewVKUserRepo(db)
	testRepo := pgRepo.NewTestRepo(db)
	passRepo := pgRepo.NewTestPassRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Хранилище изображений
	pictureStore, err := picture.NewStore(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		log.Printf("Failed to initialize picture store: %v", err)
		os.Exit(1)
	}

	// Сервис JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	authService := service.NewAuthService(userRepo, jwtService, cfg.VK)
	testService := service.NewTestService(testRepo, passRepo, cacheRepo, pictureStore)
	passService := service.NewPassService(testRepo, passRepo, cacheRepo)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	testHandler := handler.NewTestHandler(testService, passService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, userRepo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://vk.com", "https://m.vk.com", "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Статическая раздача загруженных изображений
	router.Static(cfg.Media.BaseURL, cfg.Media.Dir)

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация: обмен строки запуска VK на токен доступа
		api.POST("/auth", rateLimiter.Limit(middleware.AuthRateLimitConfig()), authHandler.Authenticate)
		api.GET("/profile", authMiddleware.RequireAuth(), authHandler.Profile)

		// Витрина опубликованных тестов
		tests := api.Group("/tests")
		{
			tests.GET("", authMiddleware.OptionalAuth(), testHandler.ListPublished)

			// Кабинет автора
			my := tests.Group("/my")
			my.Use(authMiddleware.RequireAuth())
			{
				my.GET("", testHandler.ListMine)
				my.POST("", testHandler.Create)

				myWithID := my.Group("/:id")
				myWithID.Use(middleware.ExtractUintParam("id", "test_id"))
				{
					myWithID.GET("", testHandler.GetMine)
					myWithID.PUT("", testHandler.Update)
					myWithID.DELETE("", testHandler.Delete)
					myWithID.GET("/passes/export", testHandler.ExportPasses)
				}
			}

			testWithID := tests.Group("/:id")
			testWithID.Use(middleware.ExtractUintParam("id", "test_id"))
			{
				testWithID.GET("", authMiddleware.OptionalAuth(), testHandler.GetPublished)
				testWithID.POST("/pass", authMiddleware.RequireAuth(), testHandler.Pass)
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

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
