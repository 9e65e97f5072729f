package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
)

// fakeRepo is an in-memory replenishment.Repository.
type fakeRepo struct {
	mu sync.Mutex

	settings     model.ReplenishmentSettings
	snapshotDays int
	snapStores   []model.Store
	periods      []model.SeasonalityPeriod
	candidates   []model.Inventory
	tiers        []model.StoreTier
	pipeline     []model.StorePipeline
	warehouse    map[string]int64
	sales        []model.DailySales
	storeNames   map[string]string
	productNames map[string]string

	plans map[string][]model.ShipmentPlan

	replaceErr    error
	replaceCalls  int
	salesSnapshot bool
	onSales       func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		settings:     model.ReplenishmentSettings{UseInventorySnapshots: true},
		warehouse:    map[string]int64{},
		storeNames:   map[string]string{},
		productNames: map[string]string{},
		plans:        map[string][]model.ShipmentPlan{},
	}
}

func (f *fakeRepo) GetSettings(ctx context.Context) (*model.ReplenishmentSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeRepo) UpdateSettings(ctx context.Context, s *model.ReplenishmentSettings) error {
	f.settings = *s
	return nil
}

func (f *fakeRepo) CountSnapshotDays(ctx context.Context, from, to time.Time) (int, error) {
	return f.snapshotDays, nil
}

func (f *fakeRepo) ListStoresWithSnapshots(ctx context.Context) ([]model.Store, error) {
	return f.snapStores, nil
}

func (f *fakeRepo) ListSeasonality(ctx context.Context) ([]model.SeasonalityPeriod, error) {
	return f.periods, nil
}

func (f *fakeRepo) ListCandidates(ctx context.Context, warehouseStoreID string, storeID *string) ([]model.Inventory, error) {
	var out []model.Inventory
	for _, c := range f.candidates {
		if c.StoreID == warehouseStoreID {
			continue
		}
		if storeID != nil && c.StoreID != *storeID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) ListStoreTiers(ctx context.Context) ([]model.StoreTier, error) {
	return f.tiers, nil
}

func (f *fakeRepo) ListPipeline(ctx context.Context, filter *dto.PipelineFilter) ([]model.StorePipeline, error) {
	return f.pipeline, nil
}

func (f *fakeRepo) ListWarehouseInventory(ctx context.Context, filter *dto.WarehouseFilter) ([]model.WarehouseInventory, error) {
	var out []model.WarehouseInventory
	for pid, units := range f.warehouse {
		out = append(out, model.WarehouseInventory{ProductID: pid, WhOnHandUnits: units})
	}
	return out, nil
}

func (f *fakeRepo) ListDailySales(ctx context.Context, snapshotMode bool, from, to time.Time, storeID *string) ([]model.DailySales, error) {
	f.salesSnapshot = snapshotMode
	if f.onSales != nil {
		f.onSales()
	}
	return f.sales, nil
}

func (f *fakeRepo) ReplacePlans(ctx context.Context, runDate time.Time, storeID *string, plans []model.ShipmentPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}

	key := runDate.Format(dateLayout)
	var kept []model.ShipmentPlan
	for _, p := range f.plans[key] {
		if storeID != nil && p.StoreID != *storeID {
			kept = append(kept, p)
		}
	}
	kept = append(kept, plans...)
	f.plans[key] = kept
	return nil
}

func (f *fakeRepo) LatestRunDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	for key := range f.plans {
		d, _ := time.Parse(dateLayout, key)
		if latest == nil || d.After(*latest) {
			d := d
			latest = &d
		}
	}
	return latest, nil
}

func (f *fakeRepo) ListPlanItems(ctx context.Context, runDate time.Time, filter *dto.PlanFilter) ([]model.PlanItem, error) {
	var items []model.PlanItem
	for _, p := range f.plans[runDate.Format(dateLayout)] {
		if filter != nil && len(filter.StoreIDs) > 0 && !contains(filter.StoreIDs, p.StoreID) {
			continue
		}
		if filter != nil && len(filter.ProductIDs) > 0 && !contains(filter.ProductIDs, p.ProductID) {
			continue
		}
		items = append(items, model.PlanItem{
			ShipmentPlan:    p,
			StoreName:       f.storeNames[p.StoreID],
			ProductName:     f.productNames[p.ProductID],
			WarehouseOnHand: f.warehouse[p.ProductID],
		})
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].PriorityScore != items[b].PriorityScore {
			return items[a].PriorityScore > items[b].PriorityScore
		}
		if items[a].StoreID != items[b].StoreID {
			return items[a].StoreID < items[b].StoreID
		}
		return items[a].ProductID < items[b].ProductID
	})
	return items, nil
}

func (f *fakeRepo) ListAllocatedLines(ctx context.Context, runDate time.Time) ([]model.PicklistLine, error) {
	var lines []model.PicklistLine
	for _, p := range f.plans[runDate.Format(dateLayout)] {
		if p.AllocatedShipQty <= 0 {
			continue
		}
		lines = append(lines, model.PicklistLine{
			ProductID:   p.ProductID,
			ProductName: f.productNames[p.ProductID],
			StoreID:     p.StoreID,
			StoreName:   f.storeNames[p.StoreID],
			Quantity:    p.AllocatedShipQty,
		})
	}
	return lines, nil
}

func (f *fakeRepo) SumAllocatedExcludingStore(ctx context.Context, runDate time.Time, storeID string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := map[string]int64{}
	for _, p := range f.plans[runDate.Format(dateLayout)] {
		if p.StoreID != storeID {
			out[p.ProductID] += p.AllocatedShipQty
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertStoreTier(ctx context.Context, tier *model.StoreTier) error {
	for i := range f.tiers {
		if f.tiers[i].StoreID == tier.StoreID {
			f.tiers[i] = *tier
			return nil
		}
	}
	f.tiers = append(f.tiers, *tier)
	return nil
}

func (f *fakeRepo) DeleteStoreTier(ctx context.Context, storeID string) (bool, error) {
	for i := range f.tiers {
		if f.tiers[i].StoreID == storeID {
			f.tiers = append(f.tiers[:i], f.tiers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetSeasonality(ctx context.Context, id int64) (*model.SeasonalityPeriod, error) {
	for _, p := range f.periods {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateSeasonality(ctx context.Context, p *model.SeasonalityPeriod) error {
	p.ID = int64(len(f.periods) + 1)
	f.periods = append(f.periods, *p)
	return nil
}

func (f *fakeRepo) UpdateSeasonality(ctx context.Context, p *model.SeasonalityPeriod) (bool, error) {
	for i := range f.periods {
		if f.periods[i].ID == p.ID {
			f.periods[i] = *p
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) DeleteSeasonality(ctx context.Context, id int64) (bool, error) {
	for i := range f.periods {
		if f.periods[i].ID == id {
			f.periods = append(f.periods[:i], f.periods[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) UpsertPipeline(ctx context.Context, items []model.StorePipeline) (int, int, error) {
	updated, created := 0, 0
	for _, item := range items {
		found := false
		for i := range f.pipeline {
			if f.pipeline[i].StoreID == item.StoreID && f.pipeline[i].ProductID == item.ProductID {
				f.pipeline[i].OnOrderUnits = item.OnOrderUnits
				found = true
			}
		}
		if found {
			updated++
		} else {
			f.pipeline = append(f.pipeline, item)
			created++
		}
	}
	return updated, created, nil
}

func (f *fakeRepo) UpsertWarehouseInventory(ctx context.Context, items []model.WarehouseInventory) (int, int, error) {
	updated, created := 0, 0
	for _, item := range items {
		if _, ok := f.warehouse[item.ProductID]; ok {
			updated++
		} else {
			created++
		}
		f.warehouse[item.ProductID] = item.WhOnHandUnits
	}
	return updated, created, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
