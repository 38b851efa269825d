package container

import (
	"context"
	"net/url"
	"time"

	"landing-v2/internal/config"
	"landing-v2/internal/page"
	"landing-v2/internal/repository"
	"landing-v2/internal/service"
	"landing-v2/internal/service/analytics"
	"landing-v2/internal/session"
	"landing-v2/pkg/database"
	"landing-v2/pkg/logger"
	"landing-v2/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	Events      repository.EventRepository
	Counter     *analytics.CounterTracker
	Sink        *analytics.Dispatcher
	Subscriber  *service.SubscribeClient
	Sessions    *session.Registry
}

// New creates a new dependency injection container. Redis and Postgres are
// optional: when either cannot be reached the container is built without it.
func New(cfg *config.Config, logger *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Named("redis").Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without event counters")
		} else {
			c.RedisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without event counters")
	}

	// Initialize database if configured
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to database, proceeding without event store")
		} else {
			c.DB = db
			c.Events = repository.NewEventRepository(db)
			logger.Info("Database connection established")
		}
	} else {
		logger.Info("Database URL not configured, proceeding without event store")
	}

	c.Sink = analytics.NewDispatcher(logger, c.trackers()...)
	c.Subscriber = service.NewSubscribeClient(cfg.SubscribeEndpoint, cfg.SubscribeTimeout, logger.Named("subscribe"))
	c.Sessions = session.NewRegistry(c.NewPage, cfg.SessionIdleTimeout, logger)

	logger.WithField("trackers", c.Sink.Trackers()).Info("Analytics sink configured")
	return c, nil
}

// trackers builds the sink's destinations. A tracker whose id is still the
// page template placeholder stays disabled.
func (c *Container) trackers() []analytics.Tracker {
	cfg := c.Config
	trackers := []analytics.Tracker{analytics.NewLogTracker(c.Logger.Named("events"))}

	if cfg.GTMEnabled() {
		trackers = append(trackers, analytics.NewGtagTracker(analytics.GtagConfig{
			MeasurementID: cfg.GTMID,
			APISecret:     cfg.GAAPISecret,
			Endpoint:      cfg.GAEndpoint,
		}))
	}

	if cfg.FBPixelEnabled() {
		trackers = append(trackers, analytics.NewMetaTracker(analytics.MetaConfig{
			PixelID:     cfg.FBPixelID,
			AccessToken: cfg.FBAccessToken,
			Endpoint:    cfg.FBEndpoint,
		}))
	}

	if c.RedisClient != nil {
		c.Counter = analytics.NewCounterTracker(c.RedisClient)
		trackers = append(trackers, c.Counter)
	}

	if c.Events != nil {
		trackers = append(trackers, analytics.NewStoreTracker(c.Events))
	}

	return trackers
}

// NewPage loads a fresh landing page for a session
func (c *Container) NewPage(sessionID string, query url.Values) *page.Page {
	cfg := c.Config
	return page.New(page.Options{
		SessionID:        sessionID,
		Query:            query,
		GTMID:            cfg.GTMID,
		FBPixelID:        cfg.FBPixelID,
		Layout:           page.DefaultLayout(cfg.FormSectionTop),
		ScrollOffset:     cfg.ScrollOffset,
		ConfirmationPath: cfg.ConfirmationPath,
		SubscribeTimeout: cfg.SubscribeTimeout,
		Sink:             c.Sink,
		Subscriber:       c.Subscriber,
		Logger:           c.Logger.Named("page"),
	})
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase returns true if the event store is available
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}
