package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/llm"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/ingest/trends"
	"github.com/lueurxax/trendpulse/internal/platform/config"
	"github.com/lueurxax/trendpulse/internal/process/imagery"
)

const (
	imageLanguage = "en-US"
	llmAPIKeyMock = "mock"
)

// newFetchers builds one fetcher per signal source. Disabled or unconfigured
// fetchers report themselves as skipped at run time.
func newFetchers(cfg *config.Config, posts ports.PublishedReader, logger *zerolog.Logger) []trends.Fetcher {
	return []trends.Fetcher{
		trends.NewTMDBFetcher(trends.TMDBConfig{
			Enabled:        cfg.TMDBEnabled,
			APIKey:         cfg.TMDBAPIKey,
			BaseURL:        cfg.TMDBBaseURL,
			Languages:      cfg.IngestionLanguages,
			Region:         cfg.IngestionRegion,
			RequestsPerMin: cfg.TMDBRPM,
			Timeout:        cfg.TMDBTimeout,
		}, logger),
		trends.NewYouTubeFetcher(trends.YouTubeConfig{
			Enabled:        cfg.YouTubeEnabled,
			APIKey:         cfg.YouTubeAPIKey,
			BaseURL:        cfg.YouTubeBaseURL,
			Region:         cfg.IngestionRegion,
			Languages:      cfg.IngestionLanguages,
			Categories:     cfg.YouTubeCategories,
			MaxResults:     cfg.YouTubeMaxResults,
			RequestsPerMin: cfg.YouTubeRPM,
			Timeout:        cfg.YouTubeTimeout,
		}, logger),
		trends.NewNewsAPIFetcher(trends.NewsAPIConfig{
			Enabled:        cfg.NewsAPIEnabled,
			APIKey:         cfg.NewsAPIKey,
			BaseURL:        cfg.NewsAPIBaseURL,
			Country:        cfg.NewsAPICountry,
			PageSize:       cfg.NewsAPIPageSize,
			RequestsPerMin: cfg.NewsAPIRequestsPerMin,
			Timeout:        cfg.NewsAPITimeout,
		}, logger),
		trends.NewAnalyticsFetcher(trends.AnalyticsConfig{
			Enabled:  cfg.AnalyticsEnabled,
			Limit:    cfg.AnalyticsLimit,
			Lookback: cfg.FatigueLookback(),
		}, posts),
		trends.NewSearchTrendsFetcher(trends.SearchTrendsConfig{
			Enabled: cfg.SearchTrendsEnabled,
			FeedURL: cfg.SearchTrendsFeedURL,
			Timeout: cfg.SearchTrendsTimeout,
		}, logger),
	}
}

// newImageEngine builds the image cascade from every configured provider.
func newImageEngine(cfg *config.Config, logger *zerolog.Logger) *imagery.Engine {
	providers := []imagery.Provider{
		imagery.NewTMDBProvider(imagery.TMDBConfig{
			Enabled:        cfg.TMDBEnabled,
			APIKey:         cfg.TMDBAPIKey,
			BaseURL:        cfg.TMDBBaseURL,
			ImageBaseURL:   cfg.TMDBImageURL,
			Language:       imageLanguage,
			RequestsPerMin: cfg.TMDBRPM,
			Timeout:        cfg.ImageProviderTimeout,
		}, logger),
		imagery.NewCommonsProvider(imagery.CommonsConfig{
			Enabled:   cfg.CommonsEnabled,
			BaseURL:   cfg.CommonsBaseURL,
			UserAgent: cfg.WikimediaUserAgent,
			Timeout:   cfg.ImageProviderTimeout,
		}, logger),
		imagery.NewWikipediaProvider(imagery.WikipediaConfig{
			Enabled:   cfg.WikipediaEnabled,
			BaseURL:   cfg.WikipediaBaseURL,
			UserAgent: cfg.WikimediaUserAgent,
			Timeout:   cfg.ImageProviderTimeout,
		}, logger),
		imagery.NewOpenGraphProvider(imagery.OpenGraphConfig{
			Enabled:   cfg.OpenGraphEnabled,
			MaxPages:  cfg.OpenGraphMaxPages,
			UserAgent: cfg.WikimediaUserAgent,
			Timeout:   cfg.ImageProviderTimeout,
		}, logger),
		imagery.NewUnsplashProvider(imagery.UnsplashConfig{
			Enabled:   cfg.UnsplashEnabled,
			AccessKey: cfg.UnsplashAccessKey,
			BaseURL:   cfg.UnsplashBaseURL,
			Timeout:   cfg.ImageProviderTimeout,
		}, logger),
		imagery.NewPlaceholderProvider(imagery.PlaceholderConfig{
			Enabled: cfg.ImagePlaceholderEnable,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.ImagePlaceholderModel,
		}, logger),
	}

	return imagery.NewEngine(providers, cfg.ImageProviderTimeout, cfg.ImageMaxPerProvider, logger)
}

// newLLMRegistry registers every provider with an API key. It returns nil when
// none is configured so synthesis falls back to templates.
func newLLMRegistry(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *llm.Registry {
	registry := llm.NewRegistry(cfg.LLMTimeout, logger)
	circuitCfg := llm.CircuitBreakerConfig{
		Threshold:  cfg.LLMCircuitFails,
		ResetAfter: cfg.LLMCircuitWindow,
	}

	if cfg.LLMAPIKey == llmAPIKeyMock {
		registry.Register(llm.NewMockProvider(), circuitCfg)

		return registry
	}

	if cfg.LLMAPIKey != "" {
		registry.Register(llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
			RPS:    cfg.RateLimitRPS,
		}, logger), circuitCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			RPS:    cfg.RateLimitRPS,
		}, logger), circuitCfg)
	}

	if cfg.GoogleAPIKey != "" {
		google, err := llm.NewGoogleProvider(ctx, llm.GoogleConfig{
			APIKey: cfg.GoogleAPIKey,
			Model:  cfg.GoogleModel,
			RPS:    cfg.RateLimitRPS,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("google provider unavailable")
		} else {
			registry.Register(google, circuitCfg)
		}
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM provider configured, drafts will use template fallback")

		return nil
	}

	return registry
}
