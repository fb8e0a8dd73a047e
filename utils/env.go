package utils

import (
	"fmt"
	"macrotrack-go-worker/structs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var EnvConfig *structs.EnviromentModel

type EnvService struct{}

func (e *EnvService) InitEnv() {
	e.loadConfig()
	e.configToModel()
}

func (e *EnvService) loadConfig() {
	setDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {

			// no config.yml, read the environment instead
			viper.AutomaticEnv()
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		} else {
			panic(fmt.Errorf("Fatal error config file: %s \n", err))
		}
	}
}

func setDefaults() {
	viper.SetDefault("database.client", "mysql")
	viper.SetDefault("database.max_idle", 5)
	viper.SetDefault("database.max_open_conn", 20)
	viper.SetDefault("database.max_life_time", "5m")
	viper.SetDefault("database.params", "charset=utf8mb4&parseTime=True&loc=Local")
	viper.SetDefault("concurrentAmount", 4)
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("log.dir", "logs")
	viper.SetDefault("log.level", "debug")
	viper.SetDefault("router.port", 8080)
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout", "45s")
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.initial_backoff", "1s")
	viper.SetDefault("retry.max_backoff", "10s")
	viper.SetDefault("retry.multiplier", 2.0)
	viper.SetDefault("store.timeout", "30s")
}

func (e *EnvService) configToModel() {
	var config structs.EnviromentModel
	config.Database.Client = viper.GetString("database.client")
	config.Database.Host = viper.GetString("database.host")
	config.Database.User = viper.GetString("database.user")
	config.Database.Password = viper.GetString("database.password")
	config.Database.Db = viper.GetString("database.name")
	config.Database.MaxIdle = uint(viper.GetInt("database.max_idle"))
	config.Database.MaxOpenConn = uint(viper.GetInt("database.max_open_conn"))
	config.Database.MaxLifeTime = viper.GetString("database.max_life_time")
	config.Database.Params = viper.GetString("database.params")
	config.Database.Port = viper.GetString("database.port")
	config.Database.LogEnable = viper.GetInt("database.log_enable")
	config.Database.AutoMigrate = viper.GetInt("database.auto_migrate")
	config.ConcurrentAmount = viper.GetInt("concurrentAmount")
	config.Timezone = viper.GetString("timezone")
	config.RabbitMQ.Domain = viper.GetString("rabbitmq.domain")
	config.Log.Dir = viper.GetString("log.dir")
	config.Log.Level = viper.GetString("log.level")
	config.Log.ElkEnable = viper.GetInt("log.elk.enable")
	config.Log.ElkIndex = viper.GetString("log.elk.index")
	config.Log.ElkURL = viper.GetString("log.elk.url")
	config.Log.LogstashEnable = viper.GetInt("log.logstash.enable")
	config.Log.LogstashURL = viper.GetString("log.logstash.url")
	config.Log.LogstashIndex = viper.GetString("log.logstash.index")
	config.Email.APIUrl = viper.GetString("email.api_url")
	config.Server.AppAPI = viper.GetString("server.app_api")
	config.Router.Port = viper.GetInt("router.port")
	config.LLM.APIKey = viper.GetString("llm.api_key")
	config.LLM.BaseURL = viper.GetString("llm.base_url")
	config.LLM.Model = viper.GetString("llm.model")
	config.LLM.Temperature = viper.GetFloat64("llm.temperature")
	config.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	config.LLM.Timeout = viper.GetString("llm.timeout")
	config.Retry.MaxAttempts = viper.GetInt("retry.max_attempts")
	config.Retry.InitialBackoff = viper.GetString("retry.initial_backoff")
	config.Retry.MaxBackoff = viper.GetString("retry.max_backoff")
	config.Retry.Multiplier = viper.GetFloat64("retry.multiplier")
	config.Store.Timeout = viper.GetString("store.timeout")
	EnvConfig = &config
}

// ParseDuration reads a config duration, falling back when empty or malformed.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Location returns the configured timezone, UTC when unknown.
func Location() *time.Location {
	if EnvConfig == nil || EnvConfig.Timezone == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(EnvConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// Today formats the current date in the configured timezone.
func Today() string {
	return time.Now().In(Location()).Format("2006-01-02")
}
