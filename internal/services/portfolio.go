package services

import (
	"math"
	"sort"

	"foliowatch/backend-go/internal/models"
)

const (
	defaultSector = "Uncategorized"

	// Display-facing winner/loser slices are capped; classification always
	// works on the full partitions.
	topMoverCount = 5
)

// AggregatePortfolio recomputes every derived metric from the source fields
// of the given snapshot. The input is never mutated, so repeated calls on the
// same snapshot produce identical output.
func AggregatePortfolio(assets []models.Asset) models.PortfolioSummary {
	perAsset := make([]models.DerivedAsset, 0, len(assets))
	winners := make([]models.DerivedAsset, 0)
	losers := make([]models.DerivedAsset, 0)
	sectorTotals := make(map[string]float64)

	var totalValue, totalPL float64
	for _, a := range assets {
		d := deriveAsset(a)
		perAsset = append(perAsset, d)
		totalValue += d.MarketValue
		totalPL += d.ProfitLoss
		sectorTotals[assetSector(a)] += d.MarketValue
		switch {
		case d.ProfitLoss > 0:
			winners = append(winners, d)
		case d.ProfitLoss < 0:
			losers = append(losers, d)
		}
	}

	sort.SliceStable(winners, func(i, j int) bool {
		return winners[i].ProfitLoss > winners[j].ProfitLoss
	})
	sort.SliceStable(losers, func(i, j int) bool {
		return losers[i].ProfitLoss < losers[j].ProfitLoss
	})

	return models.PortfolioSummary{
		PerAsset:      perAsset,
		Totals:        portfolioTotals(totalValue, totalPL),
		SectorWeights: sectorWeights(sectorTotals),
		Winners:       winners,
		Losers:        losers,
		TopWinners:    topMovers(winners),
		TopLosers:     topMovers(losers),
	}
}

func deriveAsset(a models.Asset) models.DerivedAsset {
	price := safeNum(float64(a.CurrentPrice))
	holdings := safeNum(float64(a.Holdings))
	cost := safeNum(float64(a.CostInvested))

	mv := price * holdings
	pl := mv - cost
	plPct := 0.0
	if cost > 0 {
		plPct = pl / cost * 100
	}
	return models.DerivedAsset{
		Asset:         a,
		MarketValue:   mv,
		ProfitLoss:    pl,
		ProfitLossPct: plPct,
	}
}

// portfolioTotals infers the aggregate cost basis as value minus P/L instead
// of summing CI. The upstream dashboard has always reported the percentage
// this way, so it is kept as-is.
func portfolioTotals(value, pl float64) models.PortfolioTotals {
	plPct := 0.0
	if cost := value - pl; cost > 0 {
		plPct = pl / cost * 100
	}
	return models.PortfolioTotals{Value: value, PL: pl, PLPct: plPct}
}

func sectorWeights(totals map[string]float64) []models.SectorWeight {
	out := make([]models.SectorWeight, 0, len(totals))
	for sector, value := range totals {
		if value <= 0 {
			continue
		}
		out = append(out, models.SectorWeight{Sector: sector, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func topMovers(ranked []models.DerivedAsset) []models.DerivedAsset {
	n := len(ranked)
	if n > topMoverCount {
		n = topMoverCount
	}
	out := make([]models.DerivedAsset, n)
	copy(out, ranked[:n])
	return out
}

func assetSector(a models.Asset) string {
	if a.Sector != "" {
		return a.Sector
	}
	if a.Category != "" {
		return a.Category
	}
	return defaultSector
}

// safeNum keeps NaN and infinities out of every displayed total.
func safeNum(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
