package dto

import "time"

type TriggerRunInput struct {
	RunDate     *time.Time
	StoreID     *string
	RequestedBy string
}

type UpsertStoreTierInput struct {
	StoreID          string `json:"store_id"`
	Tier             string `json:"tier"`
	SafetyDays       int    `json:"safety_days"`
	TargetCoverDays  int    `json:"target_cover_days"`
	ExpiryWindowDays int    `json:"expiry_window_days"`
}

type SeasonalityInput struct {
	ID         int64    `json:"id,omitempty"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Multiplier *float64 `json:"multiplier"`
	Label      string   `json:"label"`
}

type PipelineItemInput struct {
	StoreID      string `json:"store_id"`
	ProductID    string `json:"product_id"`
	OnOrderUnits int64  `json:"on_order_units"`
}

type WarehouseItemInput struct {
	ProductID     string `json:"product_id"`
	WhOnHandUnits int64  `json:"wh_on_hand_units"`
}

type UpdateSettingsInput struct {
	UseInventorySnapshots bool `json:"use_inventory_snapshots"`
}
