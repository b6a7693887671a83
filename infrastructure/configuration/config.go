package configuration

import (
	"fmt"
	"os"
	"time"

	"subtube/infrastructure/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Solr        Solr        `json:"solr"`
	Ledger      Ledger      `json:"ledger"`
	Cache       Cache       `json:"cache"`
	Search      Search      `json:"search"`
	Extraction  Extraction  `json:"extraction"`
	RedisClient RedisClient `json:"redisClient"`
	YouTube     YouTube     `json:"youtube"`
}

type App struct {
	Port int `json:"port"`
}

type Solr struct {
	// URL is the full core URL, e.g. http://localhost:8983/solr/videos.
	URL string `json:"url"`
}

type Ledger struct {
	Path string `json:"path"`
}

type Cache struct {
	TTLSeconds int `json:"ttlSeconds"`
}

type Search struct {
	PageSize int `json:"pageSize"`
}

type Extraction struct {
	Workers       int     `json:"workers"`
	RatePerSecond float64 `json:"ratePerSecond"`
	Burst         int     `json:"burst"`
	MaxAttempts   int     `json:"maxAttempts"`
	// Target selects the storage backend extraction persists to, "json" or "solr".
	Target string `json:"target"`
	// Schedule is an optional cron expression for periodic runs, e.g. "0 */8 * * *".
	Schedule string `json:"schedule"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type YouTube struct {
	APIKey       string `json:"apiKey"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

var C Config

func init() {
	LoadConfig()
	applyDefaults(&C)
}

// LoadConfig reads config.json (or config-<ENV>.json) via viper, after loading
// any .env files. OS environment variables take precedence over file values.
func LoadConfig() {
	_ = godotenv.Load("config.env", ".env")

	name := configName()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func configName() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func applyDefaults(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 10001
	}
	if c.Solr.URL == "" {
		c.Solr.URL = os.Getenv("SOLR_URL")
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = getEnv("JSON_FILE_PATH", "data.json")
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = int((8 * time.Hour).Seconds())
	}
	if c.Search.PageSize == 0 {
		c.Search.PageSize = 10
	}
	if c.Extraction.Workers == 0 {
		c.Extraction.Workers = 4
	}
	if c.Extraction.RatePerSecond == 0 {
		c.Extraction.RatePerSecond = 5
	}
	if c.Extraction.Burst == 0 {
		c.Extraction.Burst = 5
	}
	if c.Extraction.MaxAttempts == 0 {
		c.Extraction.MaxAttempts = 3
	}
	if c.Extraction.Target == "" {
		c.Extraction.Target = "json"
	}
	if c.RedisClient.Host == "" {
		c.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if c.RedisClient.Port == "" {
		c.RedisClient.Port = getEnv("REDIS_PORT", "6379")
	}
}

// CacheTTL returns the configured freshness window for the extraction cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RedisAddr returns the host:port to dial, or ok=false when no Redis host is
// configured and the cache should stay in-memory only.
func (c *Config) RedisAddr() (string, bool) {
	if c.RedisClient.Host == "" {
		return "", false
	}
	return fmt.Sprintf("%s:%s", c.RedisClient.Host, c.RedisClient.Port), true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
