package planner

import (
	"sort"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
)

// PairKey identifies a (store, product) pair.
type PairKey struct {
	StoreID   string
	ProductID string
}

// DemandWindow returns the lookback range [from, to) ending before runDate.
func DemandWindow(runDate time.Time, lookbackDays int) (from, to time.Time) {
	to = DateOf(runDate)
	from = to.AddDate(0, 0, -lookbackDays)
	return from, to
}

// DemandEstimator answers avg_daily_sales for every pair from one batch of
// daily sales rows.
type DemandEstimator struct {
	mode   CalculationMode
	series map[PairKey][]float64
}

func NewDemandEstimator(mode CalculationMode, rows []model.DailySales) *DemandEstimator {
	e := &DemandEstimator{
		mode:   mode,
		series: make(map[PairKey][]float64),
	}
	for _, row := range rows {
		if !qualifies(mode, row) {
			continue
		}
		key := PairKey{StoreID: row.StoreID, ProductID: row.ProductID}
		e.series[key] = append(e.series[key], row.Quantity)
	}
	return e
}

// qualifies reports whether a day is an observation of true demand. In
// snapshot mode only days that ended in stock count, including days with no
// sales. In fallback mode stock is unknown so zero-sale days are dropped.
func qualifies(mode CalculationMode, row model.DailySales) bool {
	if mode == ModeSnapshot {
		return row.SnapshotOnHand != nil && *row.SnapshotOnHand > 0
	}
	return row.Quantity > 0
}

// AvgDailySales is the median of the pair's qualifying days, or 0 if none.
func (e *DemandEstimator) AvgDailySales(storeID, productID string) float64 {
	return Median(e.series[PairKey{StoreID: storeID, ProductID: productID}])
}

func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
