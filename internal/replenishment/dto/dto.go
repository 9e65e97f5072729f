package dto

import "time"

type PlanFilter struct {
	StoreIDs   []string
	ProductIDs []string
}

type PipelineFilter struct {
	StoreIDs []string
}

type WarehouseFilter struct {
	ProductIDs []string
}

type PlanSummary struct {
	TotalStores         int   `json:"total_stores"`
	TotalSKUs           int   `json:"total_skus"`
	TotalRequestedUnits int64 `json:"total_requested_units"`
	TotalAllocatedUnits int64 `json:"total_allocated_units"`
}

// RunSummary describes one committed replenishment run.
type RunSummary struct {
	RunID                 string      `json:"run_id"`
	RunDate               string      `json:"run_date"`
	StoreID               string      `json:"store_id,omitempty"`
	Status                string      `json:"status"`
	CalculationMode       string      `json:"calculation_mode"`
	SnapshotDaysAvailable int         `json:"snapshot_days_available"`
	SeasonalityMultiplier float64     `json:"seasonality_multiplier"`
	TotalItems            int         `json:"total_items"`
	StoresProcessed       int         `json:"stores_processed"`
	ProductsProcessed     int         `json:"products_processed"`
	WarehouseAllocations  int         `json:"warehouse_allocations"`
	ExceptionsCount       int         `json:"exceptions_count"`
	Summary               PlanSummary `json:"summary"`
	StartedAt             time.Time   `json:"started_at"`
	CompletedAt           time.Time   `json:"completed_at"`
}

type PlanItem struct {
	RunDate                  string  `json:"run_date"`
	StoreID                  string  `json:"store_id"`
	StoreName                string  `json:"store_name"`
	ProductID                string  `json:"product_id"`
	ProductName              string  `json:"product_name"`
	Category                 string  `json:"category"`
	AvgDailySales            float64 `json:"avg_daily_sales"`
	SeasonAdjustedDailySales float64 `json:"season_adjusted_daily_sales"`
	SafetyStock              float64 `json:"safety_stock"`
	MinLevel                 float64 `json:"min_level"`
	MaxLevel                 float64 `json:"max_level"`
	ExpiryCap                float64 `json:"expiry_cap"`
	FinalMax                 float64 `json:"final_max"`
	OnHand                   int64   `json:"on_hand"`
	OnOrder                  int64   `json:"on_order"`
	InventoryPosition        int64   `json:"inventory_position"`
	RequestedShipQty         int64   `json:"requested_ship_qty"`
	AllocatedShipQty         int64   `json:"allocated_ship_qty"`
	PriorityScore            float64 `json:"priority_score"`
	DaysOfStock              float64 `json:"days_of_stock"`
	WarehouseOnHand          int64   `json:"wh_on_hand_units"`
	CalculationMode          string  `json:"calculation_mode"`
}

// LatestPlan is the plan at the most recent committed run date. RunDate is
// nil when no run has been committed.
type LatestPlan struct {
	RunDate               *string     `json:"run_date"`
	CalculationMode       string      `json:"calculation_mode"`
	SnapshotDaysAvailable int         `json:"snapshot_days_available"`
	Items                 []PlanItem  `json:"items"`
	Summary               PlanSummary `json:"summary"`
}

type StoreAllocation struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	Quantity  int64  `json:"qty"`
}

type PicklistItem struct {
	ProductID      string            `json:"product_id"`
	ProductName    string            `json:"product_name"`
	Category       string            `json:"category"`
	TotalAllocated int64             `json:"total_allocated"`
	Stores         []StoreAllocation `json:"stores"`
}

type Picklist struct {
	RunDate       *string        `json:"run_date"`
	Items         []PicklistItem `json:"items"`
	TotalProducts int            `json:"total_products"`
	TotalUnits    int64          `json:"total_units"`
}

type ExceptionItem struct {
	StoreID          string  `json:"store_id"`
	StoreName        string  `json:"store_name"`
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	ExceptionType    string  `json:"exception_type"`
	Details          string  `json:"details"`
	OnHand           int64   `json:"on_hand"`
	AvgDailySales    float64 `json:"avg_daily_sales"`
	DaysOfStock      float64 `json:"days_of_stock"`
	RequestedShipQty int64   `json:"requested_ship_qty"`
	AllocatedShipQty int64   `json:"allocated_ship_qty"`
	PriorityScore    float64 `json:"priority_score"`
}

type Exceptions struct {
	RunDate *string         `json:"run_date"`
	Items   []ExceptionItem `json:"items"`
	Total   int             `json:"total"`
}

type StoreSnapshotCoverage struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
}

type DataReadiness struct {
	SnapshotDaysAvailable int                     `json:"snapshot_days_available"`
	RequiredDays          int                     `json:"required_days"`
	DaysUntilFullAccuracy int                     `json:"days_until_full_accuracy"`
	FullAccuracyDate      string                  `json:"full_accuracy_date"`
	CalculationMode       string                  `json:"calculation_mode"`
	UseInventorySnapshots bool                    `json:"use_inventory_snapshots"`
	StoresWithSnapshots   []StoreSnapshotCoverage `json:"stores_with_snapshots"`
	Message               string                  `json:"message"`
}

type BulkResult struct {
	Updated int `json:"updated"`
	Created int `json:"created"`
}
