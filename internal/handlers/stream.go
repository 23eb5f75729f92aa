package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"foliowatch/backend-go/internal/services"
)

// StreamFeed pushes feed refreshes over server-sent events. The subscription
// ends with the request context; its background refresh loop is cancelled
// once the last subscriber is gone.
func (a *API) StreamFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	symbols := parseSymbols(q.Get("symbols"), a.cfg.MaxSymbols)
	cls := services.SymbolClassification{
		Winners: symbolSet(parseSymbols(q.Get("winners"), a.cfg.MaxSymbols)),
		Losers:  symbolSet(parseSymbols(q.Get("losers"), a.cfg.MaxSymbols)),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots, unsubscribe := a.feed.Subscribe(r.Context(), symbols, cls, a.cfg.StreamInterval)
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			payload := map[string]any{
				"tsISO":   snap.TsISO,
				"items":   snap.Result.Items,
				"errors":  snap.Result.Errors,
				"partial": snap.Result.Partial,
			}
			data, _ := json.Marshal(payload)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
