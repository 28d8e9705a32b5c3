package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"boothfair/internal/cache"
	"boothfair/internal/config"
	"boothfair/internal/database"
	"boothfair/internal/drafts"
	apperrors "boothfair/internal/errors"
	"boothfair/internal/external"
	"boothfair/internal/handlers"
	"boothfair/internal/messaging"
	"boothfair/internal/metrics"
	"boothfair/internal/middleware"
	"boothfair/internal/poller"
	"boothfair/internal/repository"
	"boothfair/internal/search"
	"boothfair/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API together with the background jobs feeding it
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	redis    *cache.RedisClient
	nats     *messaging.NATSClient
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	services *service.Services

	booths *poller.BoothPoller
	promos *poller.PromoTableRefresher
	layout *poller.LayoutRefresher
	drafts *drafts.Writer
}

// NewServer connects every backing service and builds the router
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	repos := repository.NewRepositories(db)
	vendorClient := external.NewVendorClient(cfg.VendorAPI)

	boothPoller := poller.NewBoothPoller(vendorClient, natsClient, m, poller.BoothPollerConfig{
		Interval:          cfg.Booths.PollInterval,
		Timeout:           cfg.Booths.PollTimeout,
		HeldShowsAsBooked: cfg.Booths.HeldShowsAsBooked,
	})
	promoRefresher := poller.NewPromoTableRefresher(repos.Promos, m, cfg.Promo.RefreshInterval)
	draftWriter := drafts.NewWriter(redisClient, natsClient, m, cfg.Drafts.Debounce, cfg.Drafts.TTL)

	boothService := service.NewBoothService(boothPoller, nil)
	layoutRefresher := poller.NewLayoutRefresher(repos.Layout, boothService, m, cfg.Booths.LayoutRefreshInterval)

	var searcher service.EventSearcher
	if cfg.Elasticsearch.Enabled {
		esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, serving events from the backend", "error", err)
		} else {
			searcher = esClient
		}
	}

	services := &service.Services{
		Booths: boothService,
		Promos: service.NewPromoService(promoRefresher, redisClient, boothService, natsClient, m, cfg.Promo.SessionTTL),
		Drafts: service.NewDraftService(draftWriter, redisClient),
		Events: service.NewEventService(searcher, vendorClient),
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(m))

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		redis:    redisClient,
		nats:     natsClient,
		registry: registry,
		metrics:  m,
		services: services,
		booths:   boothPoller,
		promos:   promoRefresher,
		layout:   layoutRefresher,
		drafts:   draftWriter,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	{
		booths := api.Group("/booths")
		{
			booths.GET("", h.ListBooths)
			booths.GET("/:id", h.GetBooth)
		}

		api.GET("/summary", s.boothSummary)
		api.POST("/promo/validate", h.ValidatePromo)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.POST("/:id/promo", h.ApplyPromo)
			sessions.DELETE("/:id/promo", h.RemovePromo)
		}

		drafts := api.Group("/drafts")
		{
			drafts.PUT("/:id", h.SaveDraft)
			drafts.GET("/:id", h.GetDraft)
		}

		api.GET("/events", h.ListEvents)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})))
}

// Start launches the background pollers
func (s *Server) Start(ctx context.Context) {
	s.layout.Start(ctx)
	s.promos.Start(ctx)
	s.booths.Start(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealth := s.db.HealthCheck(ctx)

	redisStatus := "healthy"
	if err := s.redis.Ping(ctx); err != nil {
		redisStatus = "unhealthy"
	}

	status := http.StatusOK
	overall := "ok"
	if dbHealth.Status != "healthy" || redisStatus != "healthy" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	response := gin.H{
		"status":   overall,
		"service":  "boothfair-api",
		"database": dbHealth,
		"redis":    redisStatus,
		"booths": gin.H{
			"generation": s.booths.Snapshot().GetGeneration(),
		},
		"promo_codes":   len(s.promos.Table()),
		"layout_booths": len(s.services.Booths.Layout()),
	}
	if snap := s.booths.Snapshot(); snap != nil {
		response["booths"] = gin.H{
			"generation": snap.Generation,
			"fetched_at": snap.FetchedAt.UTC().Format(time.RFC3339),
			"age_sec":    int(time.Since(snap.FetchedAt).Seconds()),
		}
	}

	c.JSON(status, response)
}

// boothSummary serves the snapshot counts mirrored by the consumers service,
// which may come from any API instance
func (s *Server) boothSummary(c *gin.Context) {
	summary, err := s.redis.GetBoothSummary(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No booth summary yet"})
			return
		}
		slog.Error("Failed to read booth summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read booth summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup stops background work, writes pending drafts and closes connections
func (s *Server) Cleanup(ctx context.Context) error {
	s.booths.Stop()
	s.promos.Stop()
	s.layout.Stop()
	s.drafts.Flush(ctx)

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
