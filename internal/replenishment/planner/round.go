package planner

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ratePlaces     int32 = 4
	levelPlaces    int32 = 2
	priorityPlaces int32 = 4
	daysPlaces     int32 = 2
)

// round rounds half away from zero using fixed-point arithmetic, so 2.675
// becomes 2.68 rather than the 2.67 that binary floats produce.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
