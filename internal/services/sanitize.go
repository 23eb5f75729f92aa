package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"foliowatch/backend-go/internal/models"
)

const (
	// Sentinel used when a record carries no symbol of its own.
	UnknownSymbol = "UNKNOWN"
	unknownSource = "Unknown"

	// Unix timestamps below 13 digits are in seconds, not milliseconds.
	millisThreshold = 1e12
)

// SanitizeNews validates one untrusted upstream record and normalizes it into
// a NewsItem. A record without a usable headline and datetime yields ok=false
// and is silently dropped. Pure function of its input; assigned ids are never
// reused.
func SanitizeNews(raw map[string]any) (models.NewsItem, bool) {
	if raw == nil {
		return models.NewsItem{}, false
	}

	headline := cleanString(raw["headline"])
	if headline == "" {
		return models.NewsItem{}, false
	}

	datetime, ok := cleanDatetime(raw["datetime"])
	if !ok {
		return models.NewsItem{}, false
	}

	item := models.NewsItem{
		ID:       cleanString(raw["id"]),
		Symbol:   cleanString(raw["symbol"]),
		Headline: headline,
		Datetime: datetime,
		Summary:  cleanString(raw["summary"]),
		Image:    cleanString(raw["image"]),
		Source:   cleanString(raw["source"]),
		URL:      cleanString(raw["url"]),
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Symbol == "" {
		item.Symbol = UnknownSymbol
	}
	if item.Source == "" {
		item.Source = unknownSource
	}
	return item, true
}

// cleanString trims a string-like value and maps the empty string and the
// literal texts "undefined" and "null" to absent.
func cleanString(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "undefined" || s == "null" {
		return ""
	}
	return s
}

// cleanDatetime accepts only numeric timestamps. Second-resolution values are
// scaled to milliseconds for the validity check, then the result is stored as
// whole Unix seconds.
func cleanDatetime(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	ms := f
	if math.Abs(f) < millisThreshold {
		ms = f * 1000
	}
	if ms <= 0 || ms >= math.MaxInt64 {
		return 0, false
	}
	return int64(ms) / 1000, true
}
