package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"research_copilot_go_backend/cmd/api/config"
	"research_copilot_go_backend/internal/api"
	"research_copilot_go_backend/internal/database"
	"research_copilot_go_backend/internal/metrics"
	"research_copilot_go_backend/internal/services"
	"research_copilot_go_backend/internal/utils/broker"
	"research_copilot_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GenAI client")
	}
	defer genaiClient.Close()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open paper store")
	}
	defer closeStore()

	messageBroker := broker.NewBroker()
	summarizer := services.NewGeminiSummarizer(genaiClient, cfg.Gemini.Model, cfg.Gemini.Timeout)
	extractor := services.NewPDFTextExtractor()

	pipelineOpts := []services.PipelineOption{services.WithProgress(messageBroker)}
	var mirror *services.MinIOService
	if cfg.MinIO.Enabled() {
		mirror, err = services.NewMinIOService(ctx, services.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create MinIO service")
		}
		pipelineOpts = append(pipelineOpts, services.WithMirror(mirror))
	}

	pipeline := services.NewUploadPipeline(extractor, summarizer, store, services.PipelineConfig{
		MaxInputChars: cfg.Gemini.MaxInputChars,
	}, pipelineOpts...)

	paperService := services.NewPaperService(store)
	if mirror != nil {
		paperService.WithShareLinks(mirror, pipeline.ObjectName, cfg.MinIO.ShareLinkTTL)
	}
	exportService := services.NewExportService()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(api.RequestID(), api.RequestLogger(), api.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Upload-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, pipeline, paperService, exportService, api.RouteConfig{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		UploadLimiter:  uploadLimiter(cfg.RateLimit),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	origins := make(map[string]bool, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		origins[o] = true
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins[origin]
		},
	}
	wsHandler := wsocket.NewHandler(messageBroker, upgrader, cfg.Server.WSIdleTimeout)
	r.GET("/ws/uploads/:uploadId", func(c *gin.Context) {
		wsHandler.HandleUploadProgress(c.Writer, c.Request, c.Param("uploadId"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func openStore(ctx context.Context, cfg config.StoreConfig) (services.PaperServiceDB, func(), error) {
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := database.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return services.NewGormPaperService(db), closeFn, nil
	case config.StoreMemory:
		log.Warn().Msg("Using in-memory paper store; papers are lost on restart")
		return services.NewMemoryPaperService(), func() {}, nil
	default:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			return nil, nil, err
		}
		store := services.NewMongoPaperService(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure paper indexes")
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return store, closeFn, nil
	}
}

func uploadLimiter(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		return api.RedisRateLimitMiddleware(client, cfg.RPS, cfg.Burst, cfg.Window)
	}
	return api.RateLimitMiddleware(cfg.RPS, cfg.Burst)
}
