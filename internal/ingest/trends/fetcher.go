// Package trends fetches entertainment trend signals from external sources and
// normalizes them into domain.TrendSignal.
//
// Every fetcher maps its source-native popularity onto a shared 0-100 scale and
// tags entity type and category with keyword heuristics when the source has no
// structured types. The Ingestor runs all fetchers concurrently and never lets a
// single source fail the batch.
package trends

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/platform/htmlutils"
)

// Fetcher produces normalized signals from one source.
type Fetcher interface {
	Source() domain.SignalSource
	Enabled() bool
	Fetch(ctx context.Context) ([]domain.TrendSignal, error)
}

const (
	secondsPerMinute   = 60.0
	maxKeywordRunes    = 120
	headerUserAgent    = "User-Agent"
	defaultUserAgent   = "trendpulse/1.0"
	errWrapFmtWithCode = "%w: status %d"
)

// signalNamespace seeds deterministic signal ids.
var signalNamespace = uuid.MustParse("6f1c1b8e-6a1f-4c55-9d51-2f6b6f1e8a42")

// SignalID derives a stable id from source, keyword and timestamp so that
// re-ingesting the same observation is a no-op upsert.
func SignalID(source domain.SignalSource, keyword string, ts time.Time) string {
	name := string(source) + "|" + strings.ToLower(strings.TrimSpace(keyword)) + "|" + ts.UTC().Format(time.RFC3339)

	return uuid.NewSHA1(signalNamespace, []byte(name)).String()
}

// snapshotTime is the observation time for sources that report current rankings
// without a per-item timestamp. Truncating to the hour keeps ids stable across
// re-runs within the same hour.
func snapshotTime(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour)
}

func newSignal(source domain.SignalSource, keyword string, ts time.Time) domain.TrendSignal {
	keyword = htmlutils.Truncate(htmlutils.CollapseSpaces(keyword), maxKeywordRunes)

	return domain.TrendSignal{
		ID:        SignalID(source, keyword, ts),
		Source:    source,
		Keyword:   keyword,
		Velocity:  domain.DefaultVelocity,
		Timestamp: ts,
	}
}

func perMinuteLimit(rpm, fallback int) float64 {
	if rpm <= 0 {
		rpm = fallback
	}

	return float64(rpm) / secondsPerMinute
}
