package handlers

import (
	"net/http"

	"foliowatch/backend-go/internal/models"
	"foliowatch/backend-go/internal/services"
)

// NewsFeed resolves the ranked per-symbol feed. Winner and loser sets come
// from the caller's latest portfolio pass; the ranking is reproducible from
// those sets alone.
func (a *API) NewsFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbols := parseSymbols(q.Get("symbols"), a.cfg.MaxSymbols)
	page := parseIntParam(q.Get("page"), 1, 1, 500)
	pageSize := parseIntParam(q.Get("pageSize"), 10, 1, 50)
	cls := services.SymbolClassification{
		Winners: symbolSet(parseSymbols(q.Get("winners"), a.cfg.MaxSymbols)),
		Losers:  symbolSet(parseSymbols(q.Get("losers"), a.cfg.MaxSymbols)),
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()
	result := a.news.ResolveFeed(ctx, symbols, cls)

	warning := ""
	if result.Partial {
		warning = "some items unavailable"
	}
	writeJSON(w, http.StatusOK, models.NewsFeedResponse{
		TsISO:    nowISO(),
		Page:     page,
		PageSize: pageSize,
		Total:    len(result.Items),
		Items:    paginate(result.Items, page, pageSize),
		Errors:   result.Errors,
		Partial:  result.Partial,
		Warning:  warning,
	})
}

// MarketNews serves the general market feed. It shares the sanitizer with the
// per-symbol pipeline but lives in its own namespace and is never merged into
// the ranked feed.
func (a *API) MarketNews(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = "general"
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()
	items, err := a.news.GeneralFeed(ctx, category)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if items == nil {
		items = []models.NewsItem{}
	}

	writeJSON(w, http.StatusOK, models.MarketNewsResponse{
		TsISO:    nowISO(),
		Category: category,
		Items:    items,
	})
}
