package model

import "time"

type StoreTier struct {
	StoreID          string     `db:"store_id" json:"store_id"`
	Tier             string     `db:"tier" json:"tier"`
	SafetyDays       int        `db:"safety_days" json:"safety_days"`
	TargetCoverDays  int        `db:"target_cover_days" json:"target_cover_days"`
	ExpiryWindowDays int        `db:"expiry_window_days" json:"expiry_window_days"`
	StoreName        *string    `db:"store_name" json:"store_name,omitempty"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type SeasonalityPeriod struct {
	ID         int64     `db:"id" json:"id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Multiplier float64   `db:"multiplier" json:"multiplier"`
	Label      string    `db:"label" json:"label"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ReplenishmentSettings struct {
	UseInventorySnapshots bool       `db:"use_inventory_snapshots" json:"use_inventory_snapshots"`
	UpdatedAt             *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ShipmentPlan is one committed plan row keyed by (run_date, store_id, product_id).
type ShipmentPlan struct {
	RunDate                  time.Time `db:"run_date"`
	StoreID                  string    `db:"store_id"`
	ProductID                string    `db:"product_id"`
	AvgDailySales            float64   `db:"avg_daily_sales"`
	SeasonAdjustedDailySales float64   `db:"season_adjusted_daily_sales"`
	SafetyStock              float64   `db:"safety_stock"`
	MinLevel                 float64   `db:"min_level"`
	MaxLevel                 float64   `db:"max_level"`
	ExpiryCap                float64   `db:"expiry_cap"`
	FinalMax                 float64   `db:"final_max"`
	OnHand                   int64     `db:"on_hand"`
	OnOrder                  int64     `db:"on_order"`
	InventoryPosition        int64     `db:"inventory_position"`
	RequestedShipQty         int64     `db:"requested_ship_qty"`
	AllocatedShipQty         int64     `db:"allocated_ship_qty"`
	PriorityScore            float64   `db:"priority_score"`
	DaysOfStock              float64   `db:"days_of_stock"`
	CalculationMode          string    `db:"calculation_mode"`

	// RankScore is the unrounded priority the allocator orders by.
	RankScore float64 `db:"-"`
}

// PlanItem is a committed plan row joined with store and product identity
// and the current warehouse on-hand.
type PlanItem struct {
	ShipmentPlan
	StoreName       string `db:"store_name"`
	ProductName     string `db:"product_name"`
	Category        string `db:"category"`
	WarehouseOnHand int64  `db:"wh_on_hand"`
}

type PicklistLine struct {
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	Category    string `db:"category"`
	StoreID     string `db:"store_id"`
	StoreName   string `db:"store_name"`
	Quantity    int64  `db:"allocated_ship_qty"`
}
