package replenishment

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
)

type Repository interface {
	// Run inputs
	GetSettings(ctx context.Context) (*model.ReplenishmentSettings, error)
	CountSnapshotDays(ctx context.Context, from, to time.Time) (int, error)
	ListStoresWithSnapshots(ctx context.Context) ([]model.Store, error)
	ListSeasonality(ctx context.Context) ([]model.SeasonalityPeriod, error)
	ListCandidates(ctx context.Context, warehouseStoreID string, storeID *string) ([]model.Inventory, error)
	ListStoreTiers(ctx context.Context) ([]model.StoreTier, error)
	ListPipeline(ctx context.Context, filter *dto.PipelineFilter) ([]model.StorePipeline, error)
	ListWarehouseInventory(ctx context.Context, filter *dto.WarehouseFilter) ([]model.WarehouseInventory, error)
	ListDailySales(ctx context.Context, snapshotMode bool, from, to time.Time, storeID *string) ([]model.DailySales, error)

	// Plan storage
	ReplacePlans(ctx context.Context, runDate time.Time, storeID *string, plans []model.ShipmentPlan) error
	LatestRunDate(ctx context.Context) (*time.Time, error)
	ListPlanItems(ctx context.Context, runDate time.Time, filter *dto.PlanFilter) ([]model.PlanItem, error)
	ListAllocatedLines(ctx context.Context, runDate time.Time) ([]model.PicklistLine, error)
	SumAllocatedExcludingStore(ctx context.Context, runDate time.Time, storeID string) (map[string]int64, error)

	// Configuration
	UpsertStoreTier(ctx context.Context, tier *model.StoreTier) error
	DeleteStoreTier(ctx context.Context, storeID string) (bool, error)
	GetSeasonality(ctx context.Context, id int64) (*model.SeasonalityPeriod, error)
	CreateSeasonality(ctx context.Context, period *model.SeasonalityPeriod) error
	UpdateSeasonality(ctx context.Context, period *model.SeasonalityPeriod) (bool, error)
	DeleteSeasonality(ctx context.Context, id int64) (bool, error)
	UpsertPipeline(ctx context.Context, items []model.StorePipeline) (updated, created int, err error)
	UpsertWarehouseInventory(ctx context.Context, items []model.WarehouseInventory) (updated, created int, err error)
	UpdateSettings(ctx context.Context, settings *model.ReplenishmentSettings) error
}
