package planner

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC)
}

func onHand(v int64) *int64 {
	return &v
}

func TestDemandEstimator_FallbackDropsZeroDays(t *testing.T) {
	quantities := []float64{0, 0, 5, 6, 0, 4}
	rows := make([]model.DailySales, 0, len(quantities))
	for i, q := range quantities {
		rows = append(rows, model.DailySales{StoreID: "S1", ProductID: "P1", SaleDate: day(i + 1), Quantity: q})
	}

	e := NewDemandEstimator(ModeFallback, rows)
	if got := e.AvgDailySales("S1", "P1"); got != 5 {
		t.Errorf("Expected avg daily sales 5, got %v", got)
	}
}

func TestDemandEstimator_SnapshotKeepsInStockDays(t *testing.T) {
	rows := []model.DailySales{
		{StoreID: "S1", ProductID: "P1", SaleDate: day(1), Quantity: 0, SnapshotOnHand: onHand(12)},
		{StoreID: "S1", ProductID: "P1", SaleDate: day(2), Quantity: 4, SnapshotOnHand: onHand(8)},
		{StoreID: "S1", ProductID: "P1", SaleDate: day(3), Quantity: 10, SnapshotOnHand: onHand(0)},
		{StoreID: "S1", ProductID: "P1", SaleDate: day(4), Quantity: 2},
		{StoreID: "S2", ProductID: "P1", SaleDate: day(1), Quantity: 7, SnapshotOnHand: onHand(3)},
	}

	e := NewDemandEstimator(ModeSnapshot, rows)

	if got := e.AvgDailySales("S1", "P1"); got != 2 {
		t.Errorf("Expected S1 avg daily sales 2, got %v", got)
	}
	if got := e.AvgDailySales("S2", "P1"); got != 7 {
		t.Errorf("Expected S2 avg daily sales 7, got %v", got)
	}
	if got := e.AvgDailySales("S3", "P1"); got != 0 {
		t.Errorf("Expected unknown pair avg daily sales 0, got %v", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 3},
		{"odd", []float64{9, 1, 4}, 4},
		{"even", []float64{1, 2, 3, 10}, 2.5},
		{"outlier", []float64{2, 2, 3, 2, 500}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Expected median %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDemandWindow(t *testing.T) {
	runDate := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	from, to := DemandWindow(runDate, 28)

	if !to.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected window to end at run date, got %v", to)
	}
	if !from.Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected window to start 28 days earlier, got %v", from)
	}
}
