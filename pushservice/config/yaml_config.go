// Package config holds the layered configuration for the push service:
// embedded YAML defaults, mapped into a typed Config, then environment
// overrides applied at startup.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

type YamlPushConfig struct {
	DefaultTitle string `yaml:"default_title"`
	ChannelID    string `yaml:"channel_id"`
	Sound        string `yaml:"sound"`
	Badge        int    `yaml:"badge"`
	CallTimeout  string `yaml:"call_timeout"`
}

type YamlSweepConfig struct {
	RetentionWindow string `yaml:"retention_window"`
	Interval        string `yaml:"interval"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string          `yaml:"project_id"`
	ListenAddr             string          `yaml:"listen_addr"`
	TopicID                string          `yaml:"topic_id"`
	SubscriptionID         string          `yaml:"subscription_id"`
	SubscriptionDLQTopicID string          `yaml:"subscription_dlq_topic_id"`
	CorsConfig             YamlCorsConfig  `yaml:"cors"`
	RedisConfig            YamlRedisConfig `yaml:"redis"`
	PushConfig             YamlPushConfig  `yaml:"push"`
	SweepConfig            YamlSweepConfig `yaml:"sweep"`
	NumPipelineWorkers     int             `yaml:"num_pipeline_workers"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
// Durations arrive as strings ("10s", "720h") and are parsed here so a typo
// fails at startup instead of silently becoming zero.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	callTimeout, err := parseOptionalDuration(baseCfg.PushConfig.CallTimeout, "push.call_timeout")
	if err != nil {
		return nil, err
	}
	retention, err := parseOptionalDuration(baseCfg.SweepConfig.RetentionWindow, "sweep.retention_window")
	if err != nil {
		return nil, err
	}
	interval, err := parseOptionalDuration(baseCfg.SweepConfig.Interval, "sweep.interval")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectID:      baseCfg.ProjectID,
		ListenAddr:     baseCfg.ListenAddr,
		TopicID:        baseCfg.TopicID,
		SubscriptionID: baseCfg.SubscriptionID,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		Push: PushConfig{
			DefaultTitle: baseCfg.PushConfig.DefaultTitle,
			ChannelID:    baseCfg.PushConfig.ChannelID,
			Sound:        baseCfg.PushConfig.Sound,
			Badge:        baseCfg.PushConfig.Badge,
			CallTimeout:  callTimeout,
		},
		Sweep: SweepConfig{
			RetentionWindow: retention,
			Interval:        interval,
		},
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
	)

	return cfg, nil
}

func parseOptionalDuration(raw, key string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
