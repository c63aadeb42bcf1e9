package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// PushConfig holds the provider-facing delivery hints and the default
// display title. These are behavioural constants of the product, injected
// rather than hardcoded in the gateway.
type PushConfig struct {
	DefaultTitle string
	ChannelID    string
	Sound        string
	Badge        int
	CallTimeout  time.Duration
}

// SweepConfig controls the token retention sweep.
type SweepConfig struct {
	RetentionWindow time.Duration
	Interval        time.Duration
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	TopicID                string
	NumPipelineWorkers     int

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	Push       PushConfig
	Sweep      SweepConfig

	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	if val := os.Getenv("SUBSCRIPTION_DLQ_TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_DLQ_TOPIC_ID", "source", "env")
		cfg.SubscriptionDLQTopicID = val
	}
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// Push Overrides
	if val := os.Getenv("PUSH_DEFAULT_TITLE"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_DEFAULT_TITLE", "source", "env")
		cfg.Push.DefaultTitle = val
	}
	if val := os.Getenv("PUSH_CHANNEL_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_CHANNEL_ID", "source", "env")
		cfg.Push.ChannelID = val
	}
	if val := os.Getenv("PUSH_SOUND"); val != "" {
		cfg.Push.Sound = val
	}
	if val := os.Getenv("PUSH_BADGE"); val != "" {
		if badge, err := strconv.Atoi(val); err == nil && badge >= 0 {
			cfg.Push.Badge = badge
		}
	}
	if val := os.Getenv("PUSH_CALL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			logger.Debug("Overriding config value", "key", "PUSH_CALL_TIMEOUT", "source", "env")
			cfg.Push.CallTimeout = d
		}
	}

	// Sweep Overrides
	if val := os.Getenv("SWEEP_RETENTION_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			logger.Debug("Overriding config value", "key", "SWEEP_RETENTION_WINDOW", "source", "env")
			cfg.Sweep.RetentionWindow = d
		}
	}
	if val := os.Getenv("SWEEP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			logger.Debug("Overriding config value", "key", "SWEEP_INTERVAL", "source", "env")
			cfg.Sweep.Interval = d
		}
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	applyPushDefaults(&cfg.Push)
	applySweepDefaults(&cfg.Sweep)

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}

func applyPushDefaults(p *PushConfig) {
	if p.DefaultTitle == "" {
		p.DefaultTitle = "Tasker"
	}
	if p.ChannelID == "" {
		p.ChannelID = "tasker_channel"
	}
	if p.Sound == "" {
		p.Sound = "default"
	}
	if p.Badge <= 0 {
		p.Badge = 1
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = 10 * time.Second
	}
}

func applySweepDefaults(s *SweepConfig) {
	if s.RetentionWindow <= 0 {
		s.RetentionWindow = 30 * 24 * time.Hour
	}
	if s.Interval <= 0 {
		s.Interval = 24 * time.Hour
	}
}
