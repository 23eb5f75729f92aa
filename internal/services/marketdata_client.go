package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foliowatch/backend-go/internal/config"
	"foliowatch/backend-go/internal/models"
)

var errRateLimited = errors.New("rate_limited")

const (
	indexNamespace   = "index:v1"
	indexLastGoodKey = "index:lastgood"
	holidayNamespace = "holidays:v1"
	indexLastGoodTTL = time.Hour
	newsDateLayout   = "2006-01-02"
)

// MarketDataClient fronts the market-data upstream: company news, general
// market news, index series and exchange holidays. Index and holiday lookups
// go through their own TTL namespaces; news caching belongs to the
// orchestrator, which owns the per-symbol reduction.
type MarketDataClient struct {
	baseURL      string
	hc           *http.Client
	cache        Cache
	indexStore   *TTLStore[models.IndexSeries]
	holidayStore *TTLStore[[]models.MarketHoliday]
}

func NewMarketDataClient(cfg config.Config, cache Cache) *MarketDataClient {
	return &MarketDataClient{
		baseURL: strings.TrimRight(cfg.MarketDataBaseURL, "/"),
		hc: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		cache:        cache,
		indexStore:   NewTTLStore[models.IndexSeries](cache, cfg.CacheTTLIndex),
		holidayStore: NewTTLStore[[]models.MarketHoliday](cache, cfg.CacheTTLHolidays),
	}
}

func (c *MarketDataClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", from.UTC().Format(newsDateLayout))
	q.Set("to", to.UTC().Format(newsDateLayout))

	var out []map[string]any
	if err := c.getJSON(ctx, "/company-news?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketDataClient) MarketNews(ctx context.Context, category string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("category", category)

	var out []map[string]any
	if err := c.getJSON(ctx, "/market-news?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexSeries resolves one or more series identifiers through the index
// namespace. Missing identifiers are fetched in a single upstream call; on
// upstream failure the last good snapshot, if any, is served instead.
func (c *MarketDataClient) IndexSeries(ctx context.Context, ids []string) (map[string]models.IndexSeries, error) {
	ids = normalizeSymbols(ids)
	entries := c.indexStore.Load(ctx, indexNamespace)

	out := make(map[string]models.IndexSeries, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if entry, ok := entries[id]; ok {
			out[id] = entry.Value
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	q := url.Values{}
	q.Set("series", strings.Join(missing, ","))
	var fetched map[string]models.IndexSeries
	if err := c.getJSON(ctx, "/index-series?"+q.Encode(), &fetched); err != nil {
		if stale, ok := c.lastGoodIndex(ctx, missing); ok {
			for id, series := range stale {
				out[id] = series
			}
			return out, nil
		}
		return nil, err
	}

	for id, series := range fetched {
		id = strings.ToUpper(id)
		out[id] = series
		entries[id] = c.indexStore.Entry(series)
	}
	c.indexStore.Save(ctx, indexNamespace, entries)
	c.saveLastGoodIndex(ctx, out)
	return out, nil
}

func (c *MarketDataClient) MarketHolidays(ctx context.Context, exchange string) ([]models.MarketHoliday, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		exchange = "US"
	}

	entries := c.holidayStore.Load(ctx, holidayNamespace)
	if entry, ok := entries[exchange]; ok {
		return entry.Value, nil
	}

	q := url.Values{}
	q.Set("exchange", exchange)
	var out []models.MarketHoliday
	if err := c.getJSON(ctx, "/market-holidays?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	entries[exchange] = c.holidayStore.Entry(out)
	c.holidayStore.Save(ctx, holidayNamespace, entries)
	return out, nil
}

func (c *MarketDataClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("market data api: %s", res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *MarketDataClient) lastGoodIndex(ctx context.Context, ids []string) (map[string]models.IndexSeries, bool) {
	if c.cache == nil {
		return nil, false
	}
	b, ok := c.cache.Get(ctx, indexLastGoodKey)
	if !ok {
		return nil, false
	}
	var snapshot map[string]models.IndexSeries
	if err := UnmarshalCache(b, &snapshot); err != nil {
		return nil, false
	}
	out := make(map[string]models.IndexSeries, len(ids))
	for _, id := range ids {
		if series, ok := snapshot[id]; ok {
			out[id] = series
		}
	}
	return out, len(out) > 0
}

func (c *MarketDataClient) saveLastGoodIndex(ctx context.Context, snapshot map[string]models.IndexSeries) {
	if c.cache == nil || len(snapshot) == 0 {
		return
	}
	if b, err := MarshalCache(snapshot); err == nil {
		_ = c.cache.Set(ctx, indexLastGoodKey, b, indexLastGoodTTL)
	}
}
