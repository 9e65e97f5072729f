package model

import "time"

// Inventory is the on-hand position of one product at one store.
type Inventory struct {
	StoreID        string `db:"store_id"`
	ProductID      string `db:"product_id"`
	QuantityOnHand int64  `db:"quantity_on_hand"`
}

type StorePipeline struct {
	StoreID      string     `db:"store_id" json:"store_id"`
	ProductID    string     `db:"product_id" json:"product_id"`
	OnOrderUnits int64      `db:"on_order_units" json:"on_order_units"`
	StoreName    *string    `db:"store_name" json:"store_name,omitempty"`
	ProductName  *string    `db:"product_name" json:"product_name,omitempty"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type WarehouseInventory struct {
	ProductID     string     `db:"product_id" json:"product_id"`
	WhOnHandUnits int64      `db:"wh_on_hand_units" json:"wh_on_hand_units"`
	ProductName   *string    `db:"product_name" json:"product_name,omitempty"`
	Category      *string    `db:"category" json:"category,omitempty"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DailySales is the quantity of one product sold at one store on one
// business day. SnapshotOnHand is set when the row was joined against an
// end-of-day inventory snapshot.
type DailySales struct {
	StoreID        string    `db:"store_id"`
	ProductID      string    `db:"product_id"`
	SaleDate       time.Time `db:"sale_date"`
	Quantity       float64   `db:"quantity"`
	SnapshotOnHand *int64    `db:"snapshot_on_hand"`
}
