package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/enrichment"
	"github.com/temcen/cinematch/internal/messaging"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Data           DataConfig           `mapstructure:"data"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	TMDB           TMDBConfig           `mapstructure:"tmdb"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Mode            string        `mapstructure:"mode" validate:"oneof=development production test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type DataConfig struct {
	MoviesPath    string `mapstructure:"movies_path" validate:"required"`
	CreditsPath   string `mapstructure:"credits_path" validate:"required"`
	RatingsPath   string `mapstructure:"ratings_path"`
	RatingsSource string `mapstructure:"ratings_source" validate:"oneof=file postgres"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections" validate:"gt=0"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db" validate:"gte=0"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size" validate:"gt=0"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Async        bool          `mapstructure:"async"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	ImageBaseURL string        `mapstructure:"image_base_url" validate:"required,url"`
	Language     string        `mapstructure:"language"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Workers      int           `mapstructure:"workers" validate:"gt=0"`
	ItemTimeout  time.Duration `mapstructure:"item_timeout" validate:"gt=0"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests" validate:"gt=0"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio" validate:"gt=0,lte=1"`
}

type RecommendationConfig struct {
	Alpha          float64          `mapstructure:"alpha" validate:"gte=0,lte=1"`
	CandidatePool  int              `mapstructure:"candidate_pool" validate:"gt=0"`
	TopN           int              `mapstructure:"top_n" validate:"gt=0"`
	MatchCutoff    float64          `mapstructure:"match_cutoff" validate:"gte=0,lte=1"`
	VocabularySize int              `mapstructure:"vocabulary_size" validate:"gt=0"`
	DefaultUserID  int64            `mapstructure:"default_user_id"`
	Preference     PreferenceConfig `mapstructure:"preference"`
}

type PreferenceConfig struct {
	Factors        int     `mapstructure:"factors" validate:"gt=0"`
	Epochs         int     `mapstructure:"epochs" validate:"gt=0"`
	LearningRate   float64 `mapstructure:"learning_rate" validate:"gt=0"`
	Regularization float64 `mapstructure:"regularization" validate:"gte=0"`
	InitStdDev     float64 `mapstructure:"init_std_dev" validate:"gte=0"`
	Seed           int64   `mapstructure:"seed"`
	MinRating      float64 `mapstructure:"min_rating"`
	MaxRating      float64 `mapstructure:"max_rating" validate:"gtfield=MinRating"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Load reads config/app.yaml (or the file at path, when given), applies
// environment overrides such as TMDB_API_KEY or RECOMMENDATION_ALPHA and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks field constraints and the cross-section requirements of
// enabled integrations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Data.RatingsSource == "postgres" && c.Database.URL == "" {
		return errors.New("invalid configuration: database.url is required when data.ratings_source is postgres")
	}
	if c.Data.RatingsSource == "file" && c.Data.RatingsPath == "" {
		return errors.New("invalid configuration: data.ratings_path is required when data.ratings_source is file")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("invalid configuration: redis.url is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("invalid configuration: kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// Engine converts the recommendation section to the engine configuration.
func (c *Config) Engine() engine.Config {
	r := c.Recommendation
	return engine.Config{
		VocabularySize: r.VocabularySize,
		Preference: engine.PreferenceConfig{
			Factors:        r.Preference.Factors,
			Epochs:         r.Preference.Epochs,
			LearningRate:   r.Preference.LearningRate,
			Regularization: r.Preference.Regularization,
			InitStdDev:     r.Preference.InitStdDev,
			Seed:           r.Preference.Seed,
			MinRating:      r.Preference.MinRating,
			MaxRating:      r.Preference.MaxRating,
		},
		Ranker: engine.RankerConfig{
			CandidatePool: r.CandidatePool,
			TopN:          r.TopN,
			MatchCutoff:   r.MatchCutoff,
			DefaultAlpha:  r.Alpha,
		},
	}
}

// TMDBClient converts the tmdb section to client settings.
func (c *Config) TMDBClient() enrichment.ClientConfig {
	t := c.TMDB
	return enrichment.ClientConfig{
		APIKey:       t.APIKey,
		BaseURL:      t.BaseURL,
		ImageBaseURL: t.ImageBaseURL,
		Language:     t.Language,
		Timeout:      t.Timeout,
		Breaker: enrichment.BreakerConfig{
			MaxRequests:  t.Breaker.MaxRequests,
			Interval:     t.Breaker.Interval,
			Timeout:      t.Breaker.Timeout,
			MinRequests:  t.Breaker.MinRequests,
			FailureRatio: t.Breaker.FailureRatio,
		},
	}
}

// Enrichment returns the worker pool settings.
func (c *Config) Enrichment() enrichment.Config {
	return enrichment.Config{
		Workers:     c.TMDB.Workers,
		ItemTimeout: c.TMDB.ItemTimeout,
	}
}

// Publisher returns the Kafka producer settings.
func (c *Config) Publisher() messaging.KafkaConfig {
	return messaging.KafkaConfig{
		Brokers:      c.Kafka.Brokers,
		Topic:        c.Kafka.Topic,
		Async:        c.Kafka.Async,
		WriteTimeout: c.Kafka.WriteTimeout,
	}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Data defaults
	v.SetDefault("data.movies_path", "data/tmdb_5000_movies.csv")
	v.SetDefault("data.credits_path", "data/tmdb_5000_credits.csv")
	v.SetDefault("data.ratings_path", "data/ratings.dat")
	v.SetDefault("data.ratings_source", "file")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", "2s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", messaging.RecommendationServedTopic)
	v.SetDefault("kafka.async", true)
	v.SetDefault("kafka.write_timeout", "5s")

	// TMDB defaults
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout", "5s")
	v.SetDefault("tmdb.workers", 5)
	v.SetDefault("tmdb.item_timeout", "6s")
	v.SetDefault("tmdb.cache_ttl", "24h")
	v.SetDefault("tmdb.breaker.max_requests", 3)
	v.SetDefault("tmdb.breaker.interval", "1m")
	v.SetDefault("tmdb.breaker.timeout", "30s")
	v.SetDefault("tmdb.breaker.min_requests", 10)
	v.SetDefault("tmdb.breaker.failure_ratio", 0.6)

	// Recommendation defaults
	v.SetDefault("recommendation.alpha", 0.6)
	v.SetDefault("recommendation.candidate_pool", 20)
	v.SetDefault("recommendation.top_n", 10)
	v.SetDefault("recommendation.match_cutoff", 0.4)
	v.SetDefault("recommendation.vocabulary_size", 5000)
	v.SetDefault("recommendation.default_user_id", 10)
	v.SetDefault("recommendation.preference.factors", 100)
	v.SetDefault("recommendation.preference.epochs", 20)
	v.SetDefault("recommendation.preference.learning_rate", 0.005)
	v.SetDefault("recommendation.preference.regularization", 0.02)
	v.SetDefault("recommendation.preference.init_std_dev", 0.1)
	v.SetDefault("recommendation.preference.seed", 42)
	v.SetDefault("recommendation.preference.min_rating", 0.5)
	v.SetDefault("recommendation.preference.max_rating", 5.0)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
}
