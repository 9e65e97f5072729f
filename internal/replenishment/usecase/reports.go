package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/planner"
)

// currentReadiness evaluates snapshot coverage as of today.
func (uc *replenishmentUseCase) currentReadiness(ctx context.Context) (planner.Readiness, *model.ReplenishmentSettings, error) {
	settings, err := uc.repo.GetSettings(ctx)
	if err != nil {
		return planner.Readiness{}, nil, err
	}
	asOf := uc.today()
	from, to := planner.ReadinessWindow(asOf, uc.cfg.ReadinessWindowDays)
	days, err := uc.repo.CountSnapshotDays(ctx, from, to)
	if err != nil {
		return planner.Readiness{}, nil, err
	}
	return planner.EvaluateReadiness(days, asOf, uc.cfg.ReadinessWindowDays, settings.UseInventorySnapshots), settings, nil
}

// resolveRunDate returns the requested run date, or the latest committed one.
// A nil result means no plan has been committed.
func (uc *replenishmentUseCase) resolveRunDate(ctx context.Context, runDate *time.Time) (*time.Time, error) {
	if runDate != nil {
		d := planner.DateOf(*runDate)
		return &d, nil
	}
	return uc.repo.LatestRunDate(ctx)
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func (uc *replenishmentUseCase) GetLatestPlan(ctx context.Context, filter *dto.PlanFilter) (*dto.LatestPlan, error) {
	readiness, _, err := uc.currentReadiness(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.LatestPlan{
		CalculationMode:       string(readiness.Mode),
		SnapshotDaysAvailable: readiness.SnapshotDaysAvailable,
		Items:                 []dto.PlanItem{},
	}

	latest, err := uc.repo.LatestRunDate(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return result, nil
	}
	result.RunDate = dateString(latest)

	rows, err := uc.repo.ListPlanItems(ctx, *latest, filter)
	if err != nil {
		return nil, err
	}

	stores := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, row := range rows {
		result.Items = append(result.Items, toPlanItemDTO(row))
		stores[row.StoreID] = struct{}{}
		products[row.ProductID] = struct{}{}
		result.Summary.TotalRequestedUnits += row.RequestedShipQty
		result.Summary.TotalAllocatedUnits += row.AllocatedShipQty
	}
	result.Summary.TotalStores = len(stores)
	result.Summary.TotalSKUs = len(products)
	if len(rows) > 0 {
		result.CalculationMode = rows[0].CalculationMode
	}

	return result, nil
}

func (uc *replenishmentUseCase) GetPicklist(ctx context.Context, runDate *time.Time) (*dto.Picklist, error) {
	date, err := uc.resolveRunDate(ctx, runDate)
	if err != nil {
		return nil, err
	}

	result := &dto.Picklist{
		RunDate: dateString(date),
		Items:   []dto.PicklistItem{},
	}
	if date == nil {
		return result, nil
	}

	lines, err := uc.repo.ListAllocatedLines(ctx, *date)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		i, ok := index[line.ProductID]
		if !ok {
			i = len(result.Items)
			index[line.ProductID] = i
			result.Items = append(result.Items, dto.PicklistItem{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Category:    line.Category,
				Stores:      []dto.StoreAllocation{},
			})
		}
		item := &result.Items[i]
		item.TotalAllocated += line.Quantity
		item.Stores = append(item.Stores, dto.StoreAllocation{
			StoreID:   line.StoreID,
			StoreName: line.StoreName,
			Quantity:  line.Quantity,
		})
	}

	for i := range result.Items {
		stores := result.Items[i].Stores
		sort.SliceStable(stores, func(a, b int) bool {
			if stores[a].Quantity != stores[b].Quantity {
				return stores[a].Quantity > stores[b].Quantity
			}
			return stores[a].StoreID < stores[b].StoreID
		})
		result.TotalUnits += result.Items[i].TotalAllocated
	}
	sort.SliceStable(result.Items, func(a, b int) bool {
		if result.Items[a].TotalAllocated != result.Items[b].TotalAllocated {
			return result.Items[a].TotalAllocated > result.Items[b].TotalAllocated
		}
		return result.Items[a].ProductID < result.Items[b].ProductID
	})
	result.TotalProducts = len(result.Items)

	return result, nil
}

func (uc *replenishmentUseCase) GetExceptions(ctx context.Context, runDate *time.Time) (*dto.Exceptions, error) {
	date, err := uc.resolveRunDate(ctx, runDate)
	if err != nil {
		return nil, err
	}

	result := &dto.Exceptions{
		RunDate: dateString(date),
		Items:   []dto.ExceptionItem{},
	}
	if date == nil {
		return result, nil
	}

	rows, err := uc.repo.ListPlanItems(ctx, *date, nil)
	if err != nil {
		return nil, err
	}

	// rows arrive ordered by priority descending
	for _, row := range rows {
		exc, ok := planner.ClassifyException(row.OnHand, row.DaysOfStock, row.RequestedShipQty, row.AllocatedShipQty, uc.cfg.OverstockDays)
		if !ok {
			continue
		}
		result.Items = append(result.Items, dto.ExceptionItem{
			StoreID:          row.StoreID,
			StoreName:        row.StoreName,
			ProductID:        row.ProductID,
			ProductName:      row.ProductName,
			ExceptionType:    string(exc.Type),
			Details:          exc.Detail,
			OnHand:           row.OnHand,
			AvgDailySales:    row.AvgDailySales,
			DaysOfStock:      row.DaysOfStock,
			RequestedShipQty: row.RequestedShipQty,
			AllocatedShipQty: row.AllocatedShipQty,
			PriorityScore:    row.PriorityScore,
		})
	}
	result.Total = len(result.Items)

	return result, nil
}

func (uc *replenishmentUseCase) GetDataReadiness(ctx context.Context) (*dto.DataReadiness, error) {
	readiness, settings, err := uc.currentReadiness(ctx)
	if err != nil {
		return nil, err
	}

	stores, err := uc.repo.ListStoresWithSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	coverage := make([]dto.StoreSnapshotCoverage, 0, len(stores))
	for _, s := range stores {
		coverage = append(coverage, dto.StoreSnapshotCoverage{StoreID: s.ID, StoreName: s.Name})
	}

	message := fmt.Sprintf("Snapshot history: %d/%d days. ", readiness.SnapshotDaysAvailable, readiness.RequiredDays)
	switch {
	case !settings.UseInventorySnapshots:
		message += "Inventory snapshots disabled, using transaction-based fallback."
	case readiness.Mode == planner.ModeSnapshot:
		message += "Full accuracy mode active."
	default:
		message += "Using transaction-based fallback."
	}

	return &dto.DataReadiness{
		SnapshotDaysAvailable: readiness.SnapshotDaysAvailable,
		RequiredDays:          readiness.RequiredDays,
		DaysUntilFullAccuracy: readiness.DaysUntilFullAccuracy,
		FullAccuracyDate:      readiness.FullAccuracyDate.Format(dateLayout),
		CalculationMode:       string(readiness.Mode),
		UseInventorySnapshots: settings.UseInventorySnapshots,
		StoresWithSnapshots:   coverage,
		Message:               message,
	}, nil
}

func toPlanItemDTO(row model.PlanItem) dto.PlanItem {
	return dto.PlanItem{
		RunDate:                  row.RunDate.Format(dateLayout),
		StoreID:                  row.StoreID,
		StoreName:                row.StoreName,
		ProductID:                row.ProductID,
		ProductName:              row.ProductName,
		Category:                 row.Category,
		AvgDailySales:            row.AvgDailySales,
		SeasonAdjustedDailySales: row.SeasonAdjustedDailySales,
		SafetyStock:              row.SafetyStock,
		MinLevel:                 row.MinLevel,
		MaxLevel:                 row.MaxLevel,
		ExpiryCap:                row.ExpiryCap,
		FinalMax:                 row.FinalMax,
		OnHand:                   row.OnHand,
		OnOrder:                  row.OnOrder,
		InventoryPosition:        row.InventoryPosition,
		RequestedShipQty:         row.RequestedShipQty,
		AllocatedShipQty:         row.AllocatedShipQty,
		PriorityScore:            row.PriorityScore,
		DaysOfStock:              row.DaysOfStock,
		WarehouseOnHand:          row.WarehouseOnHand,
		CalculationMode:          row.CalculationMode,
	}
}
