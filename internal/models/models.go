package models

import (
	"bytes"
	"strconv"
)

// Number decodes a loosely-typed upstream field. Plain numbers, quoted
// numbers, null and anything unparsable all land as a float64, with garbage
// coerced to 0 so no NaN or missing value leaks into arithmetic.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			*n = 0
			return nil
		}
		data = []byte(unquoted)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

type Asset struct {
	Symbol       string `json:"symbol"`
	Holdings     Number `json:"holdings"`
	CurrentPrice Number `json:"currentPrice"`
	CostInvested Number `json:"CI"`
	Sector       string `json:"sector,omitempty"`
	Category     string `json:"category,omitempty"`
}

// DerivedAsset carries the recomputed per-position metrics. Derived fields
// are never persisted; they are rebuilt from the source fields on every pass.
type DerivedAsset struct {
	Asset
	MarketValue   float64 `json:"marketValue"`
	ProfitLoss    float64 `json:"profitLoss"`
	ProfitLossPct float64 `json:"profitLossPct"`
}

type PortfolioTotals struct {
	Value float64 `json:"value"`
	PL    float64 `json:"pl"`
	PLPct float64 `json:"plPct"`
}

type SectorWeight struct {
	Sector string  `json:"sector"`
	Value  float64 `json:"value"`
}

type PortfolioSummary struct {
	PerAsset      []DerivedAsset  `json:"perAsset"`
	Totals        PortfolioTotals `json:"totals"`
	SectorWeights []SectorWeight  `json:"sectorWeights"`
	Winners       []DerivedAsset  `json:"winners"`
	Losers        []DerivedAsset  `json:"losers"`
	TopWinners    []DerivedAsset  `json:"topWinners"`
	TopLosers     []DerivedAsset  `json:"topLosers"`
}

// NewsItem is the strict internal shape produced by the sanitizer. Headline
// and Datetime are always set; a record that cannot supply both never becomes
// a NewsItem.
type NewsItem struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Headline string `json:"headline"`
	Datetime int64  `json:"datetime"`
	Summary  string `json:"summary,omitempty"`
	Image    string `json:"image,omitempty"`
	Source   string `json:"source"`
	URL      string `json:"url,omitempty"`
}

type FeedResult struct {
	Items   []NewsItem `json:"items"`
	Errors  []string   `json:"errors"`
	Partial bool       `json:"partial"`
}

type AnalysisResult struct {
	Results   []Asset `json:"results"`
	Remaining *int    `json:"remaining,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type IndexSeries struct {
	Latest map[string]float64 `json:"latest_observations"`
	Full   map[string]float64 `json:"full_data"`
}

type MarketHoliday struct {
	EventName string `json:"eventName"`
	AtDate    string `json:"atDate"`
}

// External API responses

type HealthResponse struct {
	Ok          bool                 `json:"ok"`
	TsISO       string               `json:"tsISO"`
	Service     string               `json:"service"`
	Version     string               `json:"version,omitempty"`
	Deps        []string             `json:"deps"`
	DepsStatus  map[string]DepStatus `json:"deps_status,omitempty"`
	DataMissing []string             `json:"data_missing"`
	Env         map[string]bool      `json:"env"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type PortfolioResponse struct {
	TsISO     string           `json:"tsISO"`
	Summary   PortfolioSummary `json:"summary"`
	Remaining *int             `json:"remaining,omitempty"`
}

type NewsFeedResponse struct {
	TsISO    string     `json:"tsISO"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Total    int        `json:"total"`
	Items    []NewsItem `json:"items"`
	Errors   []string   `json:"errors"`
	Partial  bool       `json:"partial"`
	Warning  string     `json:"warning,omitempty"`
}

type MarketNewsResponse struct {
	TsISO    string     `json:"tsISO"`
	Category string     `json:"category"`
	Items    []NewsItem `json:"items"`
}

type IndexSeriesResponse struct {
	TsISO  string                 `json:"tsISO"`
	Series map[string]IndexSeries `json:"series"`
}

type HolidaysResponse struct {
	TsISO    string          `json:"tsISO"`
	Exchange string          `json:"exchange"`
	Items    []MarketHoliday `json:"items"`
}
