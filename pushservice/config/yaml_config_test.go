package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/devmantra/tasker-push-service/pushservice/config"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:              "yaml-project",
			ListenAddr:             ":9000",
			TopicID:                "yaml-topic",
			SubscriptionID:         "yaml-subscription",
			SubscriptionDLQTopicID: "yaml-dlq",
			NumPipelineWorkers:     5,
			CorsConfig: config.YamlCorsConfig{
				AllowedOrigins: []string{"http://yaml.com"},
				Role:           "editor",
			},
			PushConfig: config.YamlPushConfig{
				DefaultTitle: "Tasker",
				ChannelID:    "tasker_channel",
				Sound:        "default",
				Badge:        1,
				CallTimeout:  "10s",
			},
			SweepConfig: config.YamlSweepConfig{
				RetentionWindow: "720h",
				Interval:        "24h",
			},
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		// 1. Direct Field Mapping
		assert.Equal(t, "yaml-project", cfg.ProjectID)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "yaml-topic", cfg.TopicID)
		assert.Equal(t, "yaml-subscription", cfg.SubscriptionID)
		assert.Equal(t, "yaml-dlq", cfg.SubscriptionDLQTopicID)
		assert.Equal(t, 5, cfg.NumPipelineWorkers)

		// 2. Complex Logic: CORS
		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, middleware.CorsRoleEditor, cfg.CorsConfig.Role)

		// 3. Parsed durations
		assert.Equal(t, 10*time.Second, cfg.Push.CallTimeout)
		assert.Equal(t, 720*time.Hour, cfg.Sweep.RetentionWindow)
		assert.Equal(t, 24*time.Hour, cfg.Sweep.Interval)

		assert.NotNil(t, cfg.PubsubConsumerConfig)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:      "minimal-project",
			SubscriptionID: "minimal-sub",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "minimal-project", cfg.ProjectID)
		assert.Equal(t, 0, cfg.NumPipelineWorkers)
		assert.Empty(t, cfg.ListenAddr)
		assert.Zero(t, cfg.Sweep.RetentionWindow)
	})

	t.Run("Failure - Malformed duration", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:      "bad-project",
			SubscriptionID: "bad-sub",
			SweepConfig: config.YamlSweepConfig{
				RetentionWindow: "30 days",
			},
		}

		_, err := config.NewConfigFromYaml(yamlCfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sweep.retention_window")
	})
}
