package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/planner"
	"go.uber.org/zap"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", replenishment.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (uc *replenishmentUseCase) ListStoreTiers(ctx context.Context) ([]model.StoreTier, error) {
	return uc.repo.ListStoreTiers(ctx)
}

func (uc *replenishmentUseCase) UpsertStoreTier(ctx context.Context, input *dto.UpsertStoreTierInput) (*model.StoreTier, error) {
	tier := strings.ToUpper(strings.TrimSpace(input.Tier))
	switch {
	case strings.TrimSpace(input.StoreID) == "":
		return nil, invalid("store_id is required")
	case tier != planner.TierA && tier != planner.TierB:
		return nil, invalid("tier must be A or B, got %q", input.Tier)
	case input.SafetyDays <= 0, input.TargetCoverDays <= 0, input.ExpiryWindowDays <= 0:
		return nil, invalid("safety_days, target_cover_days and expiry_window_days must be positive")
	}

	t := &model.StoreTier{
		StoreID:          input.StoreID,
		Tier:             tier,
		SafetyDays:       input.SafetyDays,
		TargetCoverDays:  input.TargetCoverDays,
		ExpiryWindowDays: input.ExpiryWindowDays,
	}
	if err := uc.repo.UpsertStoreTier(ctx, t); err != nil {
		return nil, err
	}

	uc.logger.Info("Store tier updated", zap.String("store_id", t.StoreID), zap.String("tier", t.Tier))
	return t, nil
}

func (uc *replenishmentUseCase) DeleteStoreTier(ctx context.Context, storeID string) error {
	ok, err := uc.repo.DeleteStoreTier(ctx, storeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store tier %s: %w", storeID, replenishment.ErrNotFound)
	}
	return nil
}

func (uc *replenishmentUseCase) ListSeasonality(ctx context.Context) ([]model.SeasonalityPeriod, error) {
	return uc.repo.ListSeasonality(ctx)
}

func (uc *replenishmentUseCase) CreateSeasonality(ctx context.Context, input *dto.SeasonalityInput) (*model.SeasonalityPeriod, error) {
	p := &model.SeasonalityPeriod{Multiplier: 1.0}
	if err := applySeasonality(p, input, true); err != nil {
		return nil, err
	}
	if err := uc.repo.CreateSeasonality(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *replenishmentUseCase) UpdateSeasonality(ctx context.Context, input *dto.SeasonalityInput) (*model.SeasonalityPeriod, error) {
	existing, err := uc.repo.GetSeasonality(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("seasonality period %d: %w", input.ID, replenishment.ErrNotFound)
	}

	if err := applySeasonality(existing, input, false); err != nil {
		return nil, err
	}
	ok, err := uc.repo.UpdateSeasonality(ctx, existing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("seasonality period %d: %w", input.ID, replenishment.ErrNotFound)
	}
	return existing, nil
}

func (uc *replenishmentUseCase) DeleteSeasonality(ctx context.Context, id int64) error {
	ok, err := uc.repo.DeleteSeasonality(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("seasonality period %d: %w", id, replenishment.ErrNotFound)
	}
	return nil
}

// applySeasonality copies the set fields of input onto p and validates the
// result. On create every field except the multiplier is required.
func applySeasonality(p *model.SeasonalityPeriod, input *dto.SeasonalityInput, create bool) error {
	if input.StartDate != "" {
		d, err := time.Parse(dateLayout, input.StartDate)
		if err != nil {
			return invalid("start_date must be YYYY-MM-DD")
		}
		p.StartDate = d
	} else if create {
		return invalid("start_date is required")
	}

	if input.EndDate != "" {
		d, err := time.Parse(dateLayout, input.EndDate)
		if err != nil {
			return invalid("end_date must be YYYY-MM-DD")
		}
		p.EndDate = d
	} else if create {
		return invalid("end_date is required")
	}

	if input.Multiplier != nil {
		p.Multiplier = *input.Multiplier
	}
	if label := strings.TrimSpace(input.Label); label != "" {
		p.Label = label
	} else if create {
		return invalid("label is required")
	}

	if p.EndDate.Before(p.StartDate) {
		return invalid("end_date must not be before start_date")
	}
	if p.Multiplier < 0 {
		return invalid("multiplier must not be negative")
	}
	return nil
}

func (uc *replenishmentUseCase) ListPipeline(ctx context.Context, filter *dto.PipelineFilter) ([]model.StorePipeline, error) {
	return uc.repo.ListPipeline(ctx, filter)
}

func (uc *replenishmentUseCase) UpdatePipeline(ctx context.Context, items []dto.PipelineItemInput) (*dto.BulkResult, error) {
	rows := make([]model.StorePipeline, 0, len(items))
	for i, item := range items {
		if item.StoreID == "" || item.ProductID == "" {
			return nil, invalid("item %d: store_id and product_id are required", i)
		}
		if item.OnOrderUnits < 0 {
			return nil, invalid("item %d: on_order_units must not be negative", i)
		}
		rows = append(rows, model.StorePipeline{
			StoreID:      item.StoreID,
			ProductID:    item.ProductID,
			OnOrderUnits: item.OnOrderUnits,
		})
	}
	if len(rows) == 0 {
		return &dto.BulkResult{}, nil
	}

	updated, created, err := uc.repo.UpsertPipeline(ctx, rows)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Store pipeline updated", zap.Int("updated", updated), zap.Int("created", created))
	return &dto.BulkResult{Updated: updated, Created: created}, nil
}

func (uc *replenishmentUseCase) ListWarehouseInventory(ctx context.Context, filter *dto.WarehouseFilter) ([]model.WarehouseInventory, error) {
	return uc.repo.ListWarehouseInventory(ctx, filter)
}

func (uc *replenishmentUseCase) UpdateWarehouseInventory(ctx context.Context, items []dto.WarehouseItemInput) (*dto.BulkResult, error) {
	rows := make([]model.WarehouseInventory, 0, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, invalid("item %d: product_id is required", i)
		}
		if item.WhOnHandUnits < 0 {
			return nil, invalid("item %d: wh_on_hand_units must not be negative", i)
		}
		rows = append(rows, model.WarehouseInventory{
			ProductID:     item.ProductID,
			WhOnHandUnits: item.WhOnHandUnits,
		})
	}
	if len(rows) == 0 {
		return &dto.BulkResult{}, nil
	}

	updated, created, err := uc.repo.UpsertWarehouseInventory(ctx, rows)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Warehouse inventory updated", zap.Int("updated", updated), zap.Int("created", created))
	return &dto.BulkResult{Updated: updated, Created: created}, nil
}

func (uc *replenishmentUseCase) GetSettings(ctx context.Context) (*model.ReplenishmentSettings, error) {
	return uc.repo.GetSettings(ctx)
}

func (uc *replenishmentUseCase) UpdateSettings(ctx context.Context, input *dto.UpdateSettingsInput) (*model.ReplenishmentSettings, error) {
	s := &model.ReplenishmentSettings{UseInventorySnapshots: input.UseInventorySnapshots}
	if err := uc.repo.UpdateSettings(ctx, s); err != nil {
		return nil, err
	}
	uc.logger.Info("Replenishment settings updated", zap.Bool("use_inventory_snapshots", s.UseInventorySnapshots))
	return s, nil
}
