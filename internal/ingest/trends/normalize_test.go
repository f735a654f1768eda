package trends

import (
	"math"
	"testing"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

func TestCappedLinear(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		ceiling float64
		want    float64
	}{
		{name: "zero", value: 0, ceiling: 100, want: 0},
		{name: "half", value: 125, ceiling: 250, want: 50},
		{name: "at ceiling", value: 250, ceiling: 250, want: 100},
		{name: "above ceiling", value: 9000, ceiling: 250, want: 100},
		{name: "negative", value: -5, ceiling: 250, want: 0},
		{name: "no ceiling", value: 10, ceiling: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CappedLinear(tt.value, tt.ceiling); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CappedLinear(%v, %v) = %v, want %v", tt.value, tt.ceiling, got, tt.want)
			}
		})
	}
}

func TestRankLinear(t *testing.T) {
	tests := []struct {
		rank, total int
		want        float64
	}{
		{rank: 0, total: 4, want: 100},
		{rank: 1, total: 4, want: 75},
		{rank: 3, total: 4, want: 25},
		{rank: 4, total: 4, want: 0},
		{rank: 0, total: 0, want: 0},
	}

	for _, tt := range tests {
		if got := RankLinear(tt.rank, tt.total); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RankLinear(%d, %d) = %v, want %v", tt.rank, tt.total, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	for _, v := range []float64{-100, 0, 42, 100, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := ClampScore(v)
		if got < 0 || got > 100 {
			t.Errorf("ClampScore(%v) = %v, out of range", v, got)
		}
	}
}

func TestParseApproxCount(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{input: "20,000+", want: 20000, wantOK: true},
		{input: "500K+", want: 500000, wantOK: true},
		{input: "1.5M", want: 1500000, wantOK: true},
		{input: "  200 ", want: 200, wantOK: true},
		{input: "", wantOK: false},
		{input: "lots", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseApproxCount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseApproxCount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}

			if ok && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ParseApproxCount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchesLanguage(t *testing.T) {
	allowed := []string{"hi", "te", "en"}

	tests := []struct {
		lang string
		want bool
	}{
		{lang: "te", want: true},
		{lang: "en-IN", want: true},
		{lang: "HI", want: true},
		{lang: "fr", want: false},
		{lang: "", want: true},
	}

	for _, tt := range tests {
		if got := matchesLanguage(tt.lang, allowed); got != tt.want {
			t.Errorf("matchesLanguage(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}

	if !matchesLanguage("fr", nil) {
		t.Error("empty allow list should match everything")
	}
}

func TestSignalID_Deterministic(t *testing.T) {
	ts := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	a := SignalID(domain.SourceMovieDB, "Pushpa 2", ts)
	b := SignalID(domain.SourceMovieDB, " pushpa 2 ", ts)
	c := SignalID(domain.SourceNewsAPI, "Pushpa 2", ts)
	d := SignalID(domain.SourceMovieDB, "Pushpa 2", ts.Add(time.Hour))

	if a != b {
		t.Errorf("expected case/space-insensitive id, got %q and %q", a, b)
	}

	if a == c || a == d {
		t.Error("expected different ids for different source or timestamp")
	}
}
