package handlers

import (
	"net/http"

	"foliowatch/backend-go/internal/models"
)

func (a *API) IndexSeries(w http.ResponseWriter, r *http.Request) {
	ids := parseSymbols(r.URL.Query().Get("series"), a.cfg.MaxSymbols)
	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, models.IndexSeriesResponse{TsISO: nowISO(), Series: map[string]models.IndexSeries{}})
		return
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()
	series, err := a.market.IndexSeries(ctx, ids)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.IndexSeriesResponse{TsISO: nowISO(), Series: series})
}

func (a *API) MarketHolidays(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "US"
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()
	items, err := a.market.MarketHolidays(ctx, exchange)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if items == nil {
		items = []models.MarketHoliday{}
	}

	writeJSON(w, http.StatusOK, models.HolidaysResponse{
		TsISO:    nowISO(),
		Exchange: exchange,
		Items:    items,
	})
}
