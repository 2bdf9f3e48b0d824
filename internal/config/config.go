package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Mining   MiningConfig   `mapstructure:"mining"`
	Training TrainingConfig `mapstructure:"training"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type RedisConfig struct {
	URL           string `mapstructure:"url"`
	MiningTopic   string `mapstructure:"mining_topic"`
	TrainingTopic string `mapstructure:"training_topic"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // "local" or "s3"
	LocalPath string `mapstructure:"local_path"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

type CrawlConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

type MiningConfig struct {
	Workers int `mapstructure:"workers"`
}

type TrainingConfig struct {
	MinEffectiveness      float64 `mapstructure:"min_effectiveness"`
	SampleLimit           int     `mapstructure:"sample_limit"`
	ValidationSplit       float64 `mapstructure:"validation_split"`
	MaxVocabularySize     int     `mapstructure:"max_vocabulary_size"`
	Epochs                int     `mapstructure:"epochs"`
	BatchSize             int     `mapstructure:"batch_size"`
	LearningRate          float64 `mapstructure:"learning_rate"`
	EarlyStoppingPatience int     `mapstructure:"early_stopping_patience"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/rankforge.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.mining_topic", "rankforge:mining")
	v.SetDefault("redis.training_topic", "rankforge:training")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./data/models")
	v.SetDefault("storage.bucket", "rankforge-models")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("crawl.base_url", "http://localhost:8090")
	v.SetDefault("crawl.timeout", "30s")
	v.SetDefault("crawl.retry_count", 3)
	v.SetDefault("mining.workers", 2)
	v.SetDefault("training.min_effectiveness", 0.5)
	v.SetDefault("training.sample_limit", 10000)
	v.SetDefault("training.validation_split", 0.2)
	v.SetDefault("training.max_vocabulary_size", 50)
	v.SetDefault("training.epochs", 100)
	v.SetDefault("training.batch_size", 32)
	v.SetDefault("training.learning_rate", 0.001)
	v.SetDefault("training.early_stopping_patience", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("crawl.api_key", "CRAWL_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
