package llm

import "time"

// Error message templates
const (
	errRateLimiterSimple = "rate limiter: %w"
)

// Log key strings
const (
	logKeyProvider = "provider"
	logKeyModel    = "model"
)

// Defaults
const (
	defaultRateLimiterBurst = 5
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
	defaultMaxTokens        = 2048
	defaultTemperature      = 0.7
)
