package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"foliowatch/backend-go/internal/config"
	"foliowatch/backend-go/internal/models"
)

const (
	symbolNewsNamespace  = "news:v1:symbols"
	generalNewsNamespace = "news:v1:general:"
)

// NewsFetcher is the upstream boundary the orchestrator pulls raw records
// from. Records come back loosely typed; only the sanitizer decides what
// survives.
type NewsFetcher interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]map[string]any, error)
	MarketNews(ctx context.Context, category string) ([]map[string]any, error)
}

// SymbolClassification splits a portfolio's symbols by sign of profit/loss.
// Zero-P/L symbols belong to neither set.
type SymbolClassification struct {
	Winners map[string]struct{}
	Losers  map[string]struct{}
}

func Classify(summary models.PortfolioSummary) SymbolClassification {
	cls := SymbolClassification{
		Winners: make(map[string]struct{}, len(summary.Winners)),
		Losers:  make(map[string]struct{}, len(summary.Losers)),
	}
	for _, a := range summary.Winners {
		cls.Winners[strings.ToUpper(a.Symbol)] = struct{}{}
	}
	for _, a := range summary.Losers {
		cls.Losers[strings.ToUpper(a.Symbol)] = struct{}{}
	}
	return cls
}

// NewsOrchestrator resolves the per-symbol feed through cache-or-fetch and
// ranks the merged result. One pass runs at a time per caller; the cache
// read-merge-write is not atomic across concurrent callers.
type NewsOrchestrator struct {
	fetcher      NewsFetcher
	symbolStore  *TTLStore[models.NewsItem]
	generalStore *TTLStore[[]models.NewsItem]
	fetchTimeout time.Duration
	lookback     time.Duration
	now          func() time.Time
}

func NewNewsOrchestrator(cfg config.Config, cache Cache, fetcher NewsFetcher) *NewsOrchestrator {
	return &NewsOrchestrator{
		fetcher:      fetcher,
		symbolStore:  NewTTLStore[models.NewsItem](cache, cfg.CacheTTLNews),
		generalStore: NewTTLStore[[]models.NewsItem](cache, cfg.CacheTTLNews),
		fetchTimeout: cfg.FetchTimeout,
		lookback:     cfg.NewsLookback,
		now:          time.Now,
	}
}

type fetchOutcome struct {
	symbol string
	item   models.NewsItem
	found  bool
	err    error
}

// ResolveFeed produces the ranked, deduplicated feed for the given symbols.
// Fresh cache hits skip the network; the remaining symbols are fetched
// concurrently and awaited jointly, so one slow or failing symbol never
// blocks its siblings. The feed carries at most one item per symbol, ordered
// winners first, then losers, then most recent first.
func (o *NewsOrchestrator) ResolveFeed(ctx context.Context, symbols []string, cls SymbolClassification) models.FeedResult {
	symbols = normalizeSymbols(symbols)
	entries := o.symbolStore.Load(ctx, symbolNewsNamespace)

	resolved := make(map[string]models.NewsItem, len(symbols))
	missing := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if entry, ok := entries[sym]; ok {
			resolved[sym] = entry.Value
			continue
		}
		missing = append(missing, sym)
	}

	outcomes := make(chan fetchOutcome, len(missing))
	var wg sync.WaitGroup
	for _, sym := range missing {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			outcomes <- o.fetchSymbol(ctx, sym)
		}(sym)
	}
	wg.Wait()
	close(outcomes)

	failures := make([]string, 0)
	dirty := false
	for out := range outcomes {
		if out.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s", out.symbol, errorLabel(out.err)))
			continue
		}
		if !out.found {
			continue
		}
		resolved[out.symbol] = out.item
		entries[out.symbol] = o.symbolStore.Entry(out.item)
		dirty = true
	}
	if dirty {
		o.symbolStore.Save(ctx, symbolNewsNamespace, entries)
	}

	items := make([]models.NewsItem, 0, len(resolved))
	for _, item := range resolved {
		items = append(items, item)
	}
	rankFeed(items, cls)
	sort.Strings(failures)

	if len(failures) > 0 {
		log.Warn().Int("failed", len(failures)).Int("attempted", len(missing)).Msg("symbol news fetches failed")
	}
	return models.FeedResult{
		Items:   items,
		Errors:  failures,
		Partial: len(failures) > 0 && len(failures) < len(missing),
	}
}

func (o *NewsOrchestrator) fetchSymbol(ctx context.Context, sym string) fetchOutcome {
	fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	to := o.now()
	raws, err := o.fetcher.CompanyNews(fctx, sym, to.Add(-o.lookback), to)
	if err != nil {
		return fetchOutcome{symbol: sym, err: err}
	}

	// Multiple records reduce to the single most recent one.
	var latest models.NewsItem
	found := false
	for _, raw := range raws {
		item, ok := SanitizeNews(raw)
		if !ok {
			continue
		}
		item.Symbol = sym
		if !found || item.Datetime > latest.Datetime {
			latest = item
			found = true
		}
	}
	return fetchOutcome{symbol: sym, item: latest, found: found}
}

// GeneralFeed resolves the single market-wide feed under its own namespace.
// It is sanitized like the per-symbol feed but never merged into it; ordering
// is plain recency.
func (o *NewsOrchestrator) GeneralFeed(ctx context.Context, category string) ([]models.NewsItem, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "general"
	}
	namespace := generalNewsNamespace + category

	entries := o.generalStore.Load(ctx, namespace)
	if entry, ok := entries[category]; ok {
		return entry.Value, nil
	}

	fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()
	raws, err := o.fetcher.MarketNews(fctx, category)
	if err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(raws))
	for _, raw := range raws {
		if item, ok := SanitizeNews(raw); ok {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Datetime > items[j].Datetime
	})

	entries[category] = o.generalStore.Entry(items)
	o.generalStore.Save(ctx, namespace, entries)
	return items, nil
}

// rankFeed orders items winners first, losers second, everything else last,
// with recency breaking ties. The order depends only on the resolved set and
// the classification, never on fetch arrival order.
func rankFeed(items []models.NewsItem, cls SymbolClassification) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := symbolRank(items[i].Symbol, cls), symbolRank(items[j].Symbol, cls)
		if ri != rj {
			return ri < rj
		}
		if items[i].Datetime != items[j].Datetime {
			return items[i].Datetime > items[j].Datetime
		}
		return items[i].Symbol < items[j].Symbol
	})
}

func symbolRank(symbol string, cls SymbolClassification) int {
	if _, ok := cls.Winners[symbol]; ok {
		return 0
	}
	if _, ok := cls.Losers[symbol]; ok {
		return 1
	}
	return 2
}

func errorLabel(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
