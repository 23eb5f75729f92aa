package http

import (
	"net/http"

	"foliowatch/backend-go/internal/config"
	"foliowatch/backend-go/internal/handlers"
	"foliowatch/backend-go/internal/services"
)

func NewRouter(cfg config.Config, cache services.Cache, analysis *services.AnalysisClient) http.Handler {
	api := handlers.New(cfg, cache, analysis)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", api.Health)
	mux.HandleFunc("/api/v1/portfolio/analyze", api.PortfolioAnalyze)
	mux.HandleFunc("/api/v1/portfolio/summary", api.PortfolioSummary)
	mux.HandleFunc("/api/v1/news/feed", api.NewsFeed)
	mux.HandleFunc("/api/v1/news/market", api.MarketNews)
	mux.HandleFunc("/api/v1/market/indices", api.IndexSeries)
	mux.HandleFunc("/api/v1/market/holidays", api.MarketHolidays)
	mux.HandleFunc("/api/v1/stream", api.StreamFeed)

	h := http.Handler(mux)
	h = withRecovery(h)
	h = withLogging(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
