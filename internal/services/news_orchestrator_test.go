package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foliowatch/backend-go/internal/models"
)

type fakeFetcher struct {
	mu        sync.Mutex
	company   map[string][]map[string]any
	errs      map[string]error
	calls     map[string]int
	market    []map[string]any
	marketErr error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		company: make(map[string][]map[string]any),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeFetcher) CompanyNews(_ context.Context, symbol string, _, _ time.Time) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.company[symbol], nil
}

func (f *fakeFetcher) MarketNews(_ context.Context, _ string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["__market__"]++
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	return f.market, nil
}

func record(headline string, datetime float64) map[string]any {
	return map[string]any{"headline": headline, "datetime": datetime}
}

func newTestOrchestrator(f NewsFetcher) *NewsOrchestrator {
	return &NewsOrchestrator{
		fetcher:      f,
		symbolStore:  NewTTLStore[models.NewsItem](NewMemoryCache(), time.Hour),
		generalStore: NewTTLStore[[]models.NewsItem](NewMemoryCache(), time.Hour),
		fetchTimeout: time.Second,
		lookback:     24 * time.Hour,
		now:          time.Now,
	}
}

func TestResolveFeed_RankingWinnerLoserNeither(t *testing.T) {
	f := newFakeFetcher()
	f.company["A"] = []map[string]any{record("a news", 100)}
	f.company["B"] = []map[string]any{record("b news", 300)}
	f.company["C"] = []map[string]any{record("c news", 200)}

	o := newTestOrchestrator(f)
	cls := SymbolClassification{
		Winners: map[string]struct{}{"A": {}},
		Losers:  map[string]struct{}{"B": {}},
	}
	result := o.ResolveFeed(context.Background(), []string{"A", "B", "C"}, cls)

	require.Len(t, result.Items, 3)
	assert.Equal(t, "A", result.Items[0].Symbol)
	assert.Equal(t, "B", result.Items[1].Symbol)
	assert.Equal(t, "C", result.Items[2].Symbol)
	assert.Empty(t, result.Errors)
	assert.False(t, result.Partial)
}

func TestResolveFeed_PartialFailure(t *testing.T) {
	f := newFakeFetcher()
	f.company["X"] = []map[string]any{record("x news", 1700000000)}
	f.errs["Y"] = context.DeadlineExceeded

	o := newTestOrchestrator(f)
	result := o.ResolveFeed(context.Background(), []string{"X", "Y"}, SymbolClassification{})

	require.Len(t, result.Items, 1)
	assert.Equal(t, "X", result.Items[0].Symbol)
	assert.Equal(t, []string{"Y: timeout"}, result.Errors)
	assert.True(t, result.Partial)
}

func TestResolveFeed_TotalFailure(t *testing.T) {
	f := newFakeFetcher()
	f.errs["X"] = context.DeadlineExceeded
	f.errs["Y"] = context.DeadlineExceeded

	o := newTestOrchestrator(f)
	result := o.ResolveFeed(context.Background(), []string{"X", "Y"}, SymbolClassification{})

	assert.Empty(t, result.Items)
	assert.Equal(t, []string{"X: timeout", "Y: timeout"}, result.Errors)
	assert.False(t, result.Partial)
}

func TestResolveFeed_ReducesToMostRecent(t *testing.T) {
	f := newFakeFetcher()
	f.company["A"] = []map[string]any{
		record("old", 100),
		record("newest", 900),
		record("middle", 500),
	}

	o := newTestOrchestrator(f)
	result := o.ResolveFeed(context.Background(), []string{"A"}, SymbolClassification{})

	require.Len(t, result.Items, 1)
	assert.Equal(t, "newest", result.Items[0].Headline)
	assert.Equal(t, int64(900), result.Items[0].Datetime)
}

func TestResolveFeed_CacheShortCircuits(t *testing.T) {
	f := newFakeFetcher()
	f.company["A"] = []map[string]any{record("a news", 1700000000)}

	o := newTestOrchestrator(f)
	first := o.ResolveFeed(context.Background(), []string{"A"}, SymbolClassification{})
	require.Len(t, first.Items, 1)

	second := o.ResolveFeed(context.Background(), []string{"A"}, SymbolClassification{})
	require.Len(t, second.Items, 1)
	assert.Equal(t, 1, f.calls["A"], "fresh cache hit must not refetch")
}

func TestResolveFeed_DropsInvalidRecords(t *testing.T) {
	f := newFakeFetcher()
	f.company["A"] = []map[string]any{
		record("", 100),
		{"headline": "no datetime"},
	}

	o := newTestOrchestrator(f)
	result := o.ResolveFeed(context.Background(), []string{"A"}, SymbolClassification{})

	assert.Empty(t, result.Items)
	assert.Empty(t, result.Errors)
}

func TestResolveFeed_RankingIndependentOfArrivalOrder(t *testing.T) {
	cls := SymbolClassification{
		Winners: map[string]struct{}{"W": {}},
		Losers:  map[string]struct{}{"L": {}},
	}
	var reference []models.NewsItem
	for i := 0; i < 5; i++ {
		f := newFakeFetcher()
		f.company["W"] = []map[string]any{record("w", 10)}
		f.company["L"] = []map[string]any{record("l", 500)}
		f.company["N1"] = []map[string]any{record("n1", 300)}
		f.company["N2"] = []map[string]any{record("n2", 400)}

		o := newTestOrchestrator(f)
		result := o.ResolveFeed(context.Background(), []string{"N2", "L", "W", "N1"}, cls)
		require.Len(t, result.Items, 4)
		if reference == nil {
			reference = result.Items
			continue
		}
		assert.Equal(t, reference, result.Items)
	}
	assert.Equal(t, "W", reference[0].Symbol)
	assert.Equal(t, "L", reference[1].Symbol)
	assert.Equal(t, "N2", reference[2].Symbol)
	assert.Equal(t, "N1", reference[3].Symbol)
}

func TestGeneralFeed_SortedAndCached(t *testing.T) {
	f := newFakeFetcher()
	f.market = []map[string]any{
		record("older", 100),
		record("newest", 300),
		record("bad", 0),
		record("middle", 200),
	}

	o := newTestOrchestrator(f)
	items, err := o.GeneralFeed(context.Background(), "general")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "newest", items[0].Headline)
	assert.Equal(t, "middle", items[1].Headline)
	assert.Equal(t, "older", items[2].Headline)

	f.mu.Lock()
	f.marketErr = assert.AnError
	f.mu.Unlock()
	cached, err := o.GeneralFeed(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, items, cached)
	assert.Equal(t, 1, f.calls["__market__"])
}

func TestGeneralFeed_UpstreamErrorSurfaced(t *testing.T) {
	f := newFakeFetcher()
	f.marketErr = assert.AnError

	o := newTestOrchestrator(f)
	_, err := o.GeneralFeed(context.Background(), "general")
	assert.Error(t, err)
}
