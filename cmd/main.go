package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/handler"
	"realtime-session-server/internal/repository"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Realtime-session-server
// @version 1.0
// @description Сессии, присутствие и допуск подключений realtime-чата

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	jwtRepo := repository.NewJWTRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(redisClient)

	jwtService, err := security.NewJWTService(&cfg.JWT)
	if err != nil {
		log.Fatalf("Ошибка конфигурации токенов: %v", err)
	}

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		log.Fatalf("Ошибка создания S3 сервиса: %v", err)
	}

	authService := service.NewAuthenticationService(jwtRepo, cfg, jwtService, userRepo, otpRepo)
	presenceService := service.NewPresenceService(userRepo, broadcastRepo)
	connectionService := service.NewConnectionService(authService, jwtService, presenceService, []byte(cfg.JWT.SecretKey))
	userService := service.NewUserService(userRepo, jwtService, jwtRepo, s3Service)

	verificationService, err := service.NewVerificationService(otpRepo, &cfg.Auth)
	if err != nil {
		log.Fatalf("Ошибка конфигурации подтверждения email: %v", err)
	}

	throttler := security.NewThrottler(&cfg.Throttle)

	authHandler := handler.NewAuthenticationHandler(authService, cfg)
	realtimeHandler := handler.NewRealtimeHandler(connectionService, jwtService, cfg)
	userHandler := handler.NewUserHandler(userService, verificationService, cfg)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, jwtService, throttler, cfg)
	setupUserRoutes(router, userHandler, jwtService, throttler, cfg)
	setupRealtimeRoutes(router, realtimeHandler, throttler)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, jwtService *security.JWTService, throttler *security.Throttler, cfg *config.AppConfig) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtService))
			r.Get("/me", h.GetCurrentUser)
			r.Post("/logout-all", h.LogoutAll)
		})
		r.Group(func(r chi.Router) {
			r.With(security.RateLimitMiddleware(throttler, "login")).Post("/", h.Login)
			r.With(security.RateLimitMiddleware(throttler, "refresh")).Post("/refresh", h.RefreshToken)
			r.Post("/logout", h.Logout)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler, jwtService *security.JWTService, throttler *security.Throttler, cfg *config.AppConfig) {
	r.Route("/api", func(r chi.Router) {
		r.With(security.RateLimitMiddleware(throttler, "register")).Post("/register", h.RegisterUser)

		r.Route("/verification", func(r chi.Router) {
			r.Use(security.RateLimitMiddleware(throttler, "verification"))
			r.Post("/request", h.RequestOtp)
			r.Post("/confirm", h.ConfirmOtp)
		})

		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtService))
			r.Get("/users/{uuid}", h.GetUser)
			r.Post("/users/avatar", h.UploadAvatar)
		})

		r.Get("/users/{uuid}/avatar", h.GetAvatar)
	})
}

func setupRealtimeRoutes(r chi.Router, h *handler.RealtimeHandler, throttler *security.Throttler) {
	r.Route("/api/realtime", func(r chi.Router) {
		r.With(security.RateLimitMiddleware(throttler, "connect")).Post("/connect", h.Connect)
		r.Post("/disconnect", h.Disconnect)
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
