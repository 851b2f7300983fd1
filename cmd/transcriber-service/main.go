package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/cloudvid/transcriber-service/docs"
	"github.com/cloudvid/transcriber-service/internal/cache"
	"github.com/cloudvid/transcriber-service/internal/config"
	"github.com/cloudvid/transcriber-service/internal/events"
	adminHandlers "github.com/cloudvid/transcriber-service/internal/http/handlers/admin"
	authHandlers "github.com/cloudvid/transcriber-service/internal/http/handlers/auth"
	videoHandlers "github.com/cloudvid/transcriber-service/internal/http/handlers/videos"
	wsHandlers "github.com/cloudvid/transcriber-service/internal/http/handlers/websocket"
	"github.com/cloudvid/transcriber-service/internal/http/middleware"
	"github.com/cloudvid/transcriber-service/internal/jobs"
	"github.com/cloudvid/transcriber-service/internal/services/mediastore"
	"github.com/cloudvid/transcriber-service/internal/services/summarize"
	"github.com/cloudvid/transcriber-service/internal/services/transcribe"
	"github.com/cloudvid/transcriber-service/internal/storage/postgres"
	"github.com/cloudvid/transcriber-service/internal/websocket"
)

// @title Cloud Video Transcriber API
// @version 1.0
// @description Upload videos, transcribe them with a plan-selected provider, summarize the transcripts.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.MustLoad()

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	// object stores
	bucketStore, err := mediastore.NewBucketStore(&cfg.MinIO)
	if err != nil {
		log.Fatal("Failed to initialize bucket store:", err)
	}
	streamStore := mediastore.NewStreamStore(&cfg.Stream)
	stores := mediastore.NewRouter(streamStore, bucketStore)

	// transcription providers
	callback := transcribe.NewAssemblyAI(&cfg.AssemblyAI)
	polled := transcribe.NewBatchSpeech(&cfg.Batch, bucketStore)

	summarizer, err := summarize.New(&cfg.Summarizer)
	if err != nil {
		log.Fatal("Failed to initialize summarizer:", err)
	}

	// realtime status events
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	runner := jobs.NewRunner(storage, polled, publisher,
		time.Duration(cfg.Batch.PollInterval)*time.Second,
		time.Duration(cfg.Batch.JobTimeout)*time.Minute)

	videoCache := cache.NewVideoCache(storage, redisClient)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	videos := videoHandlers.NewHandlers(storage, videoCache, stores, callback, polled, runner,
		summarizer, publisher, cfg.HTTPServer.BaseURL, cfg.Media.MaxUploadSize)
	admin := adminHandlers.NewHandlers(storage, stores)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	limited := func(action string, h http.HandlerFunc) http.Handler {
		return auth(rateLimits.RateLimitMiddleware(action)(h))
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Cloud Video Transcriber API is running"))
	})

	router.HandleFunc("POST /api/auth/signup", authHandlers.SignUp(storage))
	router.HandleFunc("POST /api/auth/login", authHandlers.Login(storage, cfg.JWTSecret))

	router.Handle("POST /api/videos/upload", limited("upload", videos.Upload()))
	router.Handle("GET /api/videos/my-videos", auth(videos.MyVideos()))
	router.Handle("DELETE /api/videos/delete/{id}", auth(videos.Delete()))
	router.Handle("POST /api/videos/transcribe/{id}", limited("transcribe", videos.Transcribe()))
	router.Handle("GET /api/videos/download-transcript/{id}", auth(videos.DownloadTranscript()))
	router.Handle("POST /api/videos/summarize/{id}", limited("summarize", videos.Summarize()))

	// provider-originated, deliberately unauthenticated
	router.HandleFunc("POST /api/videos/webhook", videos.Webhook())

	router.Handle("GET /api/videos/admin/videos", auth(middleware.RequireAdmin(admin.AllVideos())))
	router.Handle("GET /api/videos/admin/allUsers", auth(middleware.RequireAdmin(admin.AllUsers())))
	router.Handle("GET /api/videos/admin/user-videos/{id}", auth(middleware.RequireAdmin(admin.UserVideos())))
	router.Handle("DELETE /api/videos/admin/delete-video/{id}", auth(middleware.RequireAdmin(admin.DeleteVideo())))
	router.Handle("DELETE /api/videos/admin/deleteUserAllInfo/{id}", auth(middleware.RequireAdmin(admin.DeleteUser())))

	router.HandleFunc("GET /ws", wsHandlers.Handler(hub, cfg.JWTSecret))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}

	if err := runner.Shutdown(ctx); err != nil {
		slog.Error("failed to stop job pollers", slog.String("error", err.Error()))
	}

	slog.Info("Server stopped")
}
