package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNews_RejectsMissingHeadline(t *testing.T) {
	cases := []any{"", "   ", "undefined", "null", nil, 42}
	for _, headline := range cases {
		_, ok := SanitizeNews(map[string]any{
			"headline": headline,
			"datetime": float64(1700000000),
		})
		assert.False(t, ok, "headline %v should be rejected", headline)
	}
}

func TestSanitizeNews_RejectsBadDatetime(t *testing.T) {
	cases := []any{"not-a-number", "", nil, float64(0), float64(-5)}
	for _, datetime := range cases {
		_, ok := SanitizeNews(map[string]any{
			"headline": "something happened",
			"datetime": datetime,
		})
		assert.False(t, ok, "datetime %v should be rejected", datetime)
	}
}

func TestSanitizeNews_SecondsAndMilliseconds(t *testing.T) {
	item, ok := SanitizeNews(map[string]any{
		"headline": "seconds resolution",
		"datetime": float64(1700000000),
	})
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), item.Datetime)

	item, ok = SanitizeNews(map[string]any{
		"headline": "millisecond resolution",
		"datetime": float64(1700000000123),
	})
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), item.Datetime)

	item, ok = SanitizeNews(map[string]any{
		"headline": "numeric string",
		"datetime": "1700000000",
	})
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), item.Datetime)
}

func TestSanitizeNews_Defaults(t *testing.T) {
	item, ok := SanitizeNews(map[string]any{
		"headline": "  trimmed headline  ",
		"datetime": float64(1700000000),
		"summary":  "undefined",
		"source":   "",
	})
	require.True(t, ok)
	assert.Equal(t, "trimmed headline", item.Headline)
	assert.Equal(t, "Unknown", item.Source)
	assert.Equal(t, UnknownSymbol, item.Symbol)
	assert.Empty(t, item.Summary)
	assert.NotEmpty(t, item.ID)
}

func TestSanitizeNews_IDHandling(t *testing.T) {
	supplied, ok := SanitizeNews(map[string]any{
		"id":       "abc-123",
		"headline": "keeps id",
		"datetime": float64(1700000000),
	})
	require.True(t, ok)
	assert.Equal(t, "abc-123", supplied.ID)

	first, ok := SanitizeNews(map[string]any{"headline": "a", "datetime": float64(1700000000)})
	require.True(t, ok)
	second, ok := SanitizeNews(map[string]any{"headline": "a", "datetime": float64(1700000000)})
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSanitizeNews_KeepsOptionalFields(t *testing.T) {
	item, ok := SanitizeNews(map[string]any{
		"symbol":   "aapl",
		"headline": "earnings beat",
		"datetime": float64(1700000000),
		"summary":  "quarterly results above guidance",
		"image":    "https://example.com/a.png",
		"source":   "Newswire",
		"url":      "https://example.com/a",
	})
	require.True(t, ok)
	assert.Equal(t, "aapl", item.Symbol)
	assert.Equal(t, "Newswire", item.Source)
	assert.Equal(t, "https://example.com/a", item.URL)
	assert.Equal(t, "https://example.com/a.png", item.Image)
}
