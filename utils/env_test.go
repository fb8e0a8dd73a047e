package utils

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 45*time.Second, ParseDuration("45s", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("soon", time.Second))
	assert.Equal(t, time.Second, ParseDuration("-3s", time.Second))
}

func TestConfigToModelDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	setDefaults()
	viper.Set("llm.api_key", "sk-test")

	var envService EnvService
	envService.configToModel()

	assert.Equal(t, "mysql", EnvConfig.Database.Client)
	assert.Equal(t, "sk-test", EnvConfig.LLM.APIKey)
	assert.Equal(t, "gpt-4", EnvConfig.LLM.Model)
	assert.Equal(t, 3, EnvConfig.Retry.MaxAttempts)
	assert.Equal(t, "45s", EnvConfig.LLM.Timeout)
	assert.Equal(t, "30s", EnvConfig.Store.Timeout)
	assert.Equal(t, time.UTC, Location())
}
