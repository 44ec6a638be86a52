package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/classify"
	"github.com/Amxn-2/cyber-feed/internal/client"
	"github.com/Amxn-2/cyber-feed/internal/collector"
	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/fetcher"
	mongorepo "github.com/Amxn-2/cyber-feed/internal/repository/mongo"
	redisrepo "github.com/Amxn-2/cyber-feed/internal/repository/redis"
	"github.com/Amxn-2/cyber-feed/internal/service"
	"github.com/Amxn-2/cyber-feed/internal/source"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	mongoClient   *client.MongoClient
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Repositories and caches
	incidentRepository mongorepo.IncidentRepository
	dedupCache         *redisrepo.DedupCache
	rateLimitCache     *redisrepo.RateLimitCache

	// Pipeline
	classifier classify.Classifier
	collector  *collector.Collector

	// Services
	incidentService *service.IncidentService

	closeOnce sync.Once
}

// NewFactory creates and initializes all application dependencies. MongoDB
// is required; Redis and Kafka degrade to disabled when unreachable.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	logger := util.Get()

	f := &Factory{config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// MongoDB is the system of record; failing here is fatal.
	mongoClient, err := client.NewMongoClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	f.mongoClient = mongoClient
	if err := f.mongoClient.EnsureIndexes(ctx); err != nil {
		f.mongoClient.Close()
		return nil, fmt.Errorf("mongodb indexes: %w", err)
	}
	f.incidentRepository = mongorepo.NewIncidentStore(f.mongoClient)

	// Redis backs the dedup pre-filter and rate limiting. Losing it costs
	// some duplicate classification work, not correctness.
	if cfg.Redis.Enabled {
		redisClient, err := client.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Warn("Redis unavailable, dedup cache and rate limiting disabled", util.ErrorField(err))
		} else {
			f.redisClient = redisClient
			f.dedupCache = redisrepo.NewDedupCache(f.redisClient, cfg.Redis.DedupTTL)
			f.rateLimitCache = redisrepo.NewRateLimitCache(f.redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	// Kafka publishing is an optional fan-out for downstream consumers.
	if cfg.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(cfg, logger)
		if err != nil {
			logger.Warn("Kafka unavailable, incident event publishing disabled", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
		}
	}

	f.classifier = buildClassifier(cfg, logger)

	var dedup collector.Deduper
	if f.dedupCache != nil {
		dedup = f.dedupCache
	}
	var publisher collector.Publisher
	if f.kafkaProducer != nil {
		publisher = f.kafkaProducer
	}

	f.collector = collector.New(
		cfg,
		source.Registry(cfg),
		fetcher.New(cfg.Collector, logger),
		f.classifier,
		f.incidentRepository,
		dedup,
		publisher,
		logger,
	)

	f.incidentService = service.NewIncidentService(
		f.incidentRepository,
		f.collector,
		f.classifier,
		f.rateLimitCache,
		cfg.Gemini.APIKey != "",
		f.kafkaProducer != nil,
		f.dedupCache != nil,
		logger,
	)

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Int("sources", f.collector.SourcesTotal()),
		util.Bool("remote_classifier", cfg.Gemini.APIKey != ""),
		util.Bool("dedup_cache", f.dedupCache != nil),
		util.Bool("event_streaming", f.kafkaProducer != nil),
	)

	return f, nil
}

// buildClassifier picks the remote classifier when an API key is configured
// and falls back to the keyword heuristic otherwise.
func buildClassifier(cfg *config.Config, logger *zap.Logger) classify.Classifier {
	local := classify.NewLocal()
	if cfg.Gemini.APIKey == "" {
		logger.Warn("No classifier API key configured, using keyword heuristics only")
		return local
	}
	return classify.NewRemote(cfg.Gemini, local, logger)
}

// Config returns the loaded configuration
func (f *Factory) Config() *config.Config {
	return f.config
}

// IncidentService returns the incident service
func (f *Factory) IncidentService() *service.IncidentService {
	return f.incidentService
}

// Collector returns the collection orchestrator
func (f *Factory) Collector() *collector.Collector {
	return f.collector
}

// Close shuts down all clients. Safe to call more than once.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}
		if f.mongoClient != nil {
			if err := f.mongoClient.Close(); err != nil {
				util.Error("Failed to close MongoDB client", util.ErrorField(err))
			}
		}

		util.Info("Factory closed")
	})
}
