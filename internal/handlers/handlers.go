package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"foliowatch/backend-go/internal/config"
	"foliowatch/backend-go/internal/models"
	"foliowatch/backend-go/internal/services"
)

type API struct {
	cfg      config.Config
	cache    services.Cache
	analysis *services.AnalysisClient
	market   *services.MarketDataClient
	news     *services.NewsOrchestrator
	feed     *services.FeedService
}

func New(cfg config.Config, cache services.Cache, analysis *services.AnalysisClient) *API {
	market := services.NewMarketDataClient(cfg, cache)
	news := services.NewNewsOrchestrator(cfg, cache, market)
	return &API{
		cfg:      cfg,
		cache:    cache,
		analysis: analysis,
		market:   market,
		news:     news,
		feed:     services.NewFeedService(news, cfg.RequestTimeout),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func timeboxed(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func parseSymbols(raw string, max int) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) >= max {
			break
		}
	}
	return out
}

func symbolSet(symbols []string) map[string]struct{} {
	out := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		out[s] = struct{}{}
	}
	return out
}

func parseIntParam(v string, def int, min int, max int) int {
	if v == "" {
		return def
	}
	var out int
	_, err := fmt.Sscanf(v, "%d", &out)
	if err != nil {
		return def
	}
	if out < min {
		return min
	}
	if out > max {
		return max
	}
	return out
}

func paginate(items []models.NewsItem, page, pageSize int) []models.NewsItem {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	paged := []models.NewsItem{}
	if start < end {
		paged = items[start:end]
	}
	return paged
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
