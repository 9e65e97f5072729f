package replenishment

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
)

type UseCase interface {
	// Runs
	TriggerRun(ctx context.Context, input *dto.TriggerRunInput) (*dto.RunSummary, error)

	// Reports
	GetLatestPlan(ctx context.Context, filter *dto.PlanFilter) (*dto.LatestPlan, error)
	GetPicklist(ctx context.Context, runDate *time.Time) (*dto.Picklist, error)
	GetExceptions(ctx context.Context, runDate *time.Time) (*dto.Exceptions, error)
	GetDataReadiness(ctx context.Context) (*dto.DataReadiness, error)

	// Configuration
	ListStoreTiers(ctx context.Context) ([]model.StoreTier, error)
	UpsertStoreTier(ctx context.Context, input *dto.UpsertStoreTierInput) (*model.StoreTier, error)
	DeleteStoreTier(ctx context.Context, storeID string) error
	ListSeasonality(ctx context.Context) ([]model.SeasonalityPeriod, error)
	CreateSeasonality(ctx context.Context, input *dto.SeasonalityInput) (*model.SeasonalityPeriod, error)
	UpdateSeasonality(ctx context.Context, input *dto.SeasonalityInput) (*model.SeasonalityPeriod, error)
	DeleteSeasonality(ctx context.Context, id int64) error
	ListPipeline(ctx context.Context, filter *dto.PipelineFilter) ([]model.StorePipeline, error)
	UpdatePipeline(ctx context.Context, items []dto.PipelineItemInput) (*dto.BulkResult, error)
	ListWarehouseInventory(ctx context.Context, filter *dto.WarehouseFilter) ([]model.WarehouseInventory, error)
	UpdateWarehouseInventory(ctx context.Context, items []dto.WarehouseItemInput) (*dto.BulkResult, error)
	GetSettings(ctx context.Context) (*model.ReplenishmentSettings, error)
	UpdateSettings(ctx context.Context, input *dto.UpdateSettingsInput) (*model.ReplenishmentSettings, error)
}

// Locker serializes runs that share a run date.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// EventPublisher announces committed plans to downstream consumers.
type EventPublisher interface {
	PublishPlanCommitted(ctx context.Context, summary *dto.RunSummary) error
}
