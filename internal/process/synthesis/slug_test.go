package synthesis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugBase(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Pushpa 2: The Rule", "pushpa-2-the-rule"},
		{"  Beyoncé's   Café  Tour!! ", "beyonce-s-cafe-tour"},
		{"KGF -- Chapter 3", "kgf-chapter-3"},
		{"పుష్ప 2", "2"},
		{"పుష్ప", "topic"},
		{"", "topic"},
		{strings.Repeat("long title ", 20), "long-title-long-title-long-title-long-title-long-title-long"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SlugBase(tt.title))
		})
	}
}

func TestSlug_TimestampSuffix(t *testing.T) {
	at := time.UnixMilli(1735812000000)

	a := Slug("Devara", at)
	b := Slug("Devara", at.Add(time.Millisecond))

	assert.Equal(t, "devara-m5f5nb40", a)
	assert.NotEqual(t, a, b)
}
