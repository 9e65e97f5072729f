package planner

import "fmt"

type ExceptionType string

const (
	ExceptionNegativeStock     ExceptionType = "negative_stock"
	ExceptionOverstock         ExceptionType = "overstock"
	ExceptionWarehouseShortage ExceptionType = "warehouse_shortage"
)

// Exception is the first matching anomaly of a plan row.
type Exception struct {
	Type   ExceptionType
	Detail string
}

// ClassifyException checks negative stock, then overstock, then warehouse
// shortage, and reports the first that applies.
func ClassifyException(onHand int64, daysOfStock float64, requested, allocated int64, overstockDays float64) (Exception, bool) {
	switch {
	case onHand < 0:
		return Exception{
			Type:   ExceptionNegativeStock,
			Detail: fmt.Sprintf("On-hand is %d (negative)", onHand),
		}, true
	case daysOfStock > overstockDays:
		return Exception{
			Type:   ExceptionOverstock,
			Detail: fmt.Sprintf("Days of stock: %.0f (>%.0f)", daysOfStock, overstockDays),
		}, true
	case allocated < requested:
		return Exception{
			Type:   ExceptionWarehouseShortage,
			Detail: fmt.Sprintf("Allocated %d of %d requested", allocated, requested),
		}, true
	}
	return Exception{}, false
}
