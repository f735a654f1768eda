package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const hoursPerDay = 24

type Config struct {
	AppEnv              string        `env:"APP_ENV" envDefault:"local"`
	PostgresDSN         string        `env:"POSTGRES_DSN,required"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	HealthPort          int           `env:"HEALTH_PORT" envDefault:"8080"`

	// Ingestion
	IngestionTimeout     time.Duration `env:"INGESTION_TIMEOUT" envDefault:"2m"`
	FetcherTimeout       time.Duration `env:"FETCHER_TIMEOUT" envDefault:"20s"`
	IngestionLanguages   []string      `env:"INGESTION_LANGUAGES" envSeparator:"," envDefault:"hi,te,ta,ml,kn,en"`
	IngestionRegion      string        `env:"INGESTION_REGION" envDefault:"IN"`
	SignalRetentionHours int           `env:"SIGNAL_RETENTION_HOURS" envDefault:"168"`

	// TMDB (movie-db signals and structured-db images)
	TMDBEnabled  bool          `env:"TMDB_ENABLED" envDefault:"true"`
	TMDBAPIKey   string        `env:"TMDB_API_KEY"`
	TMDBBaseURL  string        `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	TMDBImageURL string        `env:"TMDB_IMAGE_BASE_URL" envDefault:"https://image.tmdb.org/t/p"`
	TMDBRPM      int           `env:"TMDB_RPM" envDefault:"120"`
	TMDBTimeout  time.Duration `env:"TMDB_TIMEOUT" envDefault:"10s"`

	// YouTube (video-platform signals)
	YouTubeEnabled    bool          `env:"YOUTUBE_ENABLED" envDefault:"true"`
	YouTubeAPIKey     string        `env:"YOUTUBE_API_KEY"`
	YouTubeBaseURL    string        `env:"YOUTUBE_BASE_URL" envDefault:"https://www.googleapis.com/youtube/v3"`
	YouTubeCategories []string      `env:"YOUTUBE_CATEGORIES" envSeparator:"," envDefault:"24,10"`
	YouTubeMaxResults int           `env:"YOUTUBE_MAX_RESULTS" envDefault:"25"`
	YouTubeRPM        int           `env:"YOUTUBE_RPM" envDefault:"30"`
	YouTubeTimeout    time.Duration `env:"YOUTUBE_TIMEOUT" envDefault:"10s"`

	// NewsAPI (news-api signals)
	NewsAPIEnabled        bool          `env:"NEWSAPI_ENABLED" envDefault:"true"`
	NewsAPIKey            string        `env:"NEWSAPI_KEY"`
	NewsAPIBaseURL        string        `env:"NEWSAPI_BASE_URL" envDefault:"https://newsapi.org/v2"`
	NewsAPICountry        string        `env:"NEWSAPI_COUNTRY" envDefault:"in"`
	NewsAPIPageSize       int           `env:"NEWSAPI_PAGE_SIZE" envDefault:"40"`
	NewsAPIRequestsPerMin int           `env:"NEWSAPI_RPM" envDefault:"1"`
	NewsAPITimeout        time.Duration `env:"NEWSAPI_TIMEOUT" envDefault:"15s"`

	// Search trends RSS (search-trends signals)
	SearchTrendsEnabled bool          `env:"SEARCH_TRENDS_ENABLED" envDefault:"true"`
	SearchTrendsFeedURL string        `env:"SEARCH_TRENDS_FEED_URL" envDefault:"https://trends.google.com/trending/rss?geo=IN"`
	SearchTrendsTimeout time.Duration `env:"SEARCH_TRENDS_TIMEOUT" envDefault:"10s"`

	// Internal analytics (internal-analytics signals)
	AnalyticsEnabled bool `env:"ANALYTICS_ENABLED" envDefault:"true"`
	AnalyticsLimit   int  `env:"ANALYTICS_LIMIT" envDefault:"25"`

	// Clustering and fatigue
	ClusteringLookbackHours int     `env:"CLUSTERING_LOOKBACK_HOURS" envDefault:"72"`
	FatigueLookbackHours    int     `env:"FATIGUE_LOOKBACK_HOURS" envDefault:"72"`
	FatiguePerPostWeight    float64 `env:"FATIGUE_PER_POST_WEIGHT" envDefault:"0.15"`
	UnderservedScoreFloor   float64 `env:"UNDERSERVED_SCORE_FLOOR" envDefault:"50"`

	// Image intelligence
	ImageProviderTimeout   time.Duration `env:"IMAGE_PROVIDER_TIMEOUT" envDefault:"8s"`
	ImageMaxPerProvider    int           `env:"IMAGE_MAX_PER_PROVIDER" envDefault:"5"`
	CommonsEnabled         bool          `env:"COMMONS_ENABLED" envDefault:"true"`
	CommonsBaseURL         string        `env:"COMMONS_BASE_URL" envDefault:"https://commons.wikimedia.org/w/api.php"`
	WikipediaEnabled       bool          `env:"WIKIPEDIA_ENABLED" envDefault:"true"`
	WikipediaBaseURL       string        `env:"WIKIPEDIA_BASE_URL" envDefault:"https://en.wikipedia.org/api/rest_v1"`
	OpenGraphEnabled       bool          `env:"OPENGRAPH_ENABLED" envDefault:"true"`
	OpenGraphMaxPages      int           `env:"OPENGRAPH_MAX_PAGES" envDefault:"3"`
	UnsplashEnabled        bool          `env:"UNSPLASH_ENABLED" envDefault:"true"`
	UnsplashAccessKey      string        `env:"UNSPLASH_ACCESS_KEY"`
	UnsplashBaseURL        string        `env:"UNSPLASH_BASE_URL" envDefault:"https://api.unsplash.com"`
	ImagePlaceholderEnable bool          `env:"IMAGE_PLACEHOLDER_ENABLED" envDefault:"false"`
	ImagePlaceholderModel  string        `env:"IMAGE_PLACEHOLDER_MODEL" envDefault:"dall-e-3"`
	WikimediaUserAgent     string        `env:"WIKIMEDIA_USER_AGENT" envDefault:"trendpulse/1.0 (content intelligence)"`

	// AI capability
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string        `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	GoogleAPIKey     string        `env:"GOOGLE_API_KEY"`
	GoogleModel      string        `env:"GOOGLE_MODEL" envDefault:"gemini-2.5-flash-lite"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"45s"`
	RateLimitRPS     int           `env:"RATE_LIMIT_RPS" envDefault:"1"`
	LLMCircuitFails  int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitWindow time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// Synthesis and validation
	FallbackConfidence    float64       `env:"FALLBACK_CONFIDENCE" envDefault:"0.2"`
	MinConfidence         float64       `env:"VALIDATION_MIN_CONFIDENCE" envDefault:"0.6"`
	MinBodyLength         int           `env:"VALIDATION_MIN_BODY_LENGTH" envDefault:"400"`
	AllowFallbackDrafts   bool          `env:"VALIDATION_ALLOW_FALLBACK" envDefault:"false"`
	ValidationConcurrency int           `env:"VALIDATION_CONCURRENCY" envDefault:"3"`
	ValidationTimeout     time.Duration `env:"VALIDATION_BATCH_TIMEOUT" envDefault:"10m"`
	ValidationTopicLimit  int           `env:"VALIDATION_TOPIC_LIMIT" envDefault:"5"`
	SlugRetryAttempts     int           `env:"SLUG_RETRY_ATTEMPTS" envDefault:"1"`

	// Worker schedule
	IngestionInterval  time.Duration `env:"INGESTION_INTERVAL" envDefault:"3h"`
	FatigueInterval    time.Duration `env:"FATIGUE_INTERVAL" envDefault:"6h"`
	PruneInterval      time.Duration `env:"PRUNE_INTERVAL" envDefault:"24h"`
	ValidationInterval time.Duration `env:"VALIDATION_INTERVAL" envDefault:"0s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// SignalRetention returns the rolling window signals are kept for.
func (c *Config) SignalRetention() time.Duration {
	return time.Duration(c.SignalRetentionHours) * time.Hour
}

// ClusteringLookback returns the window of signals read by one clustering run.
func (c *Config) ClusteringLookback() time.Duration {
	return time.Duration(c.ClusteringLookbackHours) * time.Hour
}

// FatigueLookback returns the window of published content counted for saturation.
func (c *Config) FatigueLookback() time.Duration {
	return time.Duration(c.FatigueLookbackHours) * time.Hour
}

func applyAliases(cfg *Config) {
	applyAIAliases(cfg)
	applyProviderAliases(cfg)
}

func applyAIAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("GOOGLE_API_KEY") {
		setStringFromEnv("GEMINI_API_KEY", &cfg.GoogleAPIKey)
	}

	if !hasEnv("VALIDATION_MIN_CONFIDENCE") {
		setFloat64FromEnv("MIN_CONFIDENCE", &cfg.MinConfidence)
	}
}

func applyProviderAliases(cfg *Config) {
	if !hasEnv("TMDB_API_KEY") {
		setStringFromEnv("TMDB_TOKEN", &cfg.TMDBAPIKey)
	}

	if !hasEnv("YOUTUBE_API_KEY") {
		setStringFromEnv("GOOGLE_YOUTUBE_API_KEY", &cfg.YouTubeAPIKey)
	}

	if !hasEnv("NEWSAPI_KEY") {
		setStringFromEnv("NEWS_API_KEY", &cfg.NewsAPIKey)
	}

	if !hasEnv("UNSPLASH_ENABLED") {
		setBoolFromEnv("STOCK_PHOTOS_ENABLED", &cfg.UnsplashEnabled)
	}

	if !hasEnv("SIGNAL_RETENTION_HOURS") {
		setDaysAsHours("SIGNAL_RETENTION_DAYS", &cfg.SignalRetentionHours)
	}

	if !hasEnv("IMAGE_PROVIDER_TIMEOUT") {
		setDurationFromEnv("PROVIDER_TIMEOUT", &cfg.ImageProviderTimeout)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setBoolFromEnv(key string, target *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setFloat64FromEnv(key string, target *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setDaysAsHours(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || parsed <= 0 {
		return
	}

	*target = parsed * hoursPerDay
}
