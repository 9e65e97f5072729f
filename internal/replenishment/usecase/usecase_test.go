package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/cache"
	"github.com/fekuna/omnipos-replenishment-service/internal/clock"
	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/planner"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	manila  = time.FixedZone("PHT", 8*3600)
	runDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

type fakePublisher struct {
	summaries []*dto.RunSummary
	err       error
}

func (p *fakePublisher) PublishPlanCommitted(ctx context.Context, s *dto.RunSummary) error {
	p.summaries = append(p.summaries, s)
	return p.err
}

func salesDays(store, product string, qty ...float64) []model.DailySales {
	rows := make([]model.DailySales, 0, len(qty))
	for i, q := range qty {
		rows = append(rows, model.DailySales{
			StoreID:   store,
			ProductID: product,
			SaleDate:  runDate.AddDate(0, 0, -(i + 1)),
			Quantity:  q,
		})
	}
	return rows
}

// seededRepo has two stores competing for 50 units of P1 and one pair that
// needs nothing.
func seededRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.candidates = []model.Inventory{
		{StoreID: "S1", ProductID: "P1", QuantityOnHand: 10},
		{StoreID: "S1", ProductID: "P2", QuantityOnHand: 100},
		{StoreID: "S2", ProductID: "P1", QuantityOnHand: 0},
		{StoreID: "WH", ProductID: "P1", QuantityOnHand: 999},
	}
	repo.warehouse["P1"] = 50
	repo.warehouse["P2"] = 10
	repo.sales = append(repo.sales, salesDays("S1", "P1", 5, 5, 5)...)
	repo.sales = append(repo.sales, salesDays("S1", "P2", 1)...)
	repo.sales = append(repo.sales, salesDays("S2", "P1", 2, 0, 2)...)
	return repo
}

type testDeps struct {
	locker    *cache.LocalLocker
	publisher *fakePublisher
	logs      *observer.ObservedLogs
	clock     clock.Clock
}

func newTestUseCase(repo *fakeRepo) (*replenishmentUseCase, *testDeps) {
	core, logs := observer.New(zapcore.DebugLevel)
	deps := &testDeps{
		locker:    cache.NewLocalLocker(),
		publisher: &fakePublisher{},
		logs:      logs,
		clock:     clock.Fixed(time.Date(2024, 2, 29, 18, 30, 0, 0, time.UTC)),
	}

	cfg := planner.DefaultConfig()
	cfg.WarehouseStoreID = "WH"

	uc := NewReplenishmentUseCase(repo, deps.locker, deps.publisher, nil, deps.clock, Options{
		Planner:  cfg,
		Workers:  2,
		LockTTL:  time.Minute,
		Location: manila,
	}, logger.NewFromZap(zap.New(core)))
	return uc.(*replenishmentUseCase), deps
}

func TestTriggerRun_CommitsAllocatedPlan(t *testing.T) {
	repo := seededRepo()
	uc, deps := newTestUseCase(repo)

	d := runDate
	summary, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d, RequestedBy: "tester"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.RunDate != "2024-03-01" {
		t.Errorf("Expected run date 2024-03-01, got %s", summary.RunDate)
	}
	if summary.CalculationMode != "fallback" {
		t.Errorf("Expected fallback mode, got %s", summary.CalculationMode)
	}
	if summary.TotalItems != 2 {
		t.Errorf("Expected 2 plan rows, got %d", summary.TotalItems)
	}
	if summary.StoresProcessed != 2 || summary.ProductsProcessed != 1 {
		t.Errorf("Expected 2 stores and 1 product, got %d and %d", summary.StoresProcessed, summary.ProductsProcessed)
	}
	if summary.Summary.TotalRequestedUnits != 123 {
		t.Errorf("Expected 123 requested units, got %d", summary.Summary.TotalRequestedUnits)
	}
	if summary.Summary.TotalAllocatedUnits != 50 {
		t.Errorf("Expected 50 allocated units, got %d", summary.Summary.TotalAllocatedUnits)
	}
	if summary.WarehouseAllocations != 1 {
		t.Errorf("Expected 1 contended product, got %d", summary.WarehouseAllocations)
	}
	if summary.ExceptionsCount != 1 {
		t.Errorf("Expected 1 exception, got %d", summary.ExceptionsCount)
	}
	if summary.RunID == "" || summary.Status != "committed" {
		t.Errorf("Expected a committed run with an id, got %+v", summary)
	}

	stored := repo.plans["2024-03-01"]
	if len(stored) != 2 {
		t.Fatalf("Expected 2 stored rows, got %d", len(stored))
	}
	byStore := map[string]model.ShipmentPlan{}
	for _, p := range stored {
		byStore[p.StoreID] = p
	}
	if got := byStore["S2"]; got.RequestedShipQty != 38 || got.AllocatedShipQty != 38 {
		t.Errorf("Expected S2 to receive its full 38 units, got %d of %d", got.AllocatedShipQty, got.RequestedShipQty)
	}
	if got := byStore["S1"]; got.RequestedShipQty != 85 || got.AllocatedShipQty != 12 {
		t.Errorf("Expected S1 to receive the remaining 12 of 85 units, got %d of %d", got.AllocatedShipQty, got.RequestedShipQty)
	}

	if len(deps.publisher.summaries) != 1 {
		t.Errorf("Expected 1 published event, got %d", len(deps.publisher.summaries))
	}
	if deps.logs.FilterMessage("Replenishment run committed").Len() != 1 {
		t.Error("Expected a commit log entry")
	}
}

func TestTriggerRun_Idempotent(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)
	d := runDate

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	first := append([]model.ShipmentPlan(nil), repo.plans["2024-03-01"]...)

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second := repo.plans["2024-03-01"]

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical plans on re-run, got %+v and %+v", first, second)
	}
}

func TestTriggerRun_DefaultsToBusinessDay(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)

	// 2024-02-29 18:30 UTC is already 2024-03-01 in Manila
	summary, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.RunDate != "2024-03-01" {
		t.Errorf("Expected run date 2024-03-01, got %s", summary.RunDate)
	}
}

func TestTriggerRun_ConflictWhenRunDateLocked(t *testing.T) {
	repo := seededRepo()
	uc, deps := newTestUseCase(repo)

	ok, _ := deps.locker.AcquireLock(context.Background(), "lock:replenishment:run:2024-03-01", "other", time.Minute)
	if !ok {
		t.Fatal("Failed to pre-acquire lock")
	}

	d := runDate
	_, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d})
	if !errors.Is(err, replenishment.ErrRunInProgress) {
		t.Fatalf("Expected ErrRunInProgress, got %v", err)
	}
	if repo.replaceCalls != 0 {
		t.Errorf("Expected no plan writes, got %d", repo.replaceCalls)
	}

	// a different run date is not blocked
	other := runDate.AddDate(0, 0, 1)
	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &other}); err != nil {
		t.Errorf("Expected run for another date to succeed, got %v", err)
	}
}

func TestTriggerRun_CommitFailureKeepsPreviousPlan(t *testing.T) {
	repo := seededRepo()
	uc, deps := newTestUseCase(repo)
	d := runDate

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	previous := append([]model.ShipmentPlan(nil), repo.plans["2024-03-01"]...)

	repo.replaceErr = errors.New("connection reset")
	_, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d})

	var runErr *replenishment.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Expected RunError, got %v", err)
	}
	if runErr.Stage != replenishment.StageCommit {
		t.Errorf("Expected stage %s, got %s", replenishment.StageCommit, runErr.Stage)
	}
	if !reflect.DeepEqual(previous, repo.plans["2024-03-01"]) {
		t.Error("Expected previous plan to be unchanged")
	}
	if len(deps.publisher.summaries) != 1 {
		t.Errorf("Expected only the first run to be published, got %d events", len(deps.publisher.summaries))
	}

	// the lock is released after a failure
	repo.replaceErr = nil
	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

func TestTriggerRun_CancelledBeforeCommit(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)

	ctx, cancel := context.WithCancel(context.Background())
	repo.onSales = cancel

	d := runDate
	_, err := uc.TriggerRun(ctx, &dto.TriggerRunInput{RunDate: &d})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if repo.replaceCalls != 0 {
		t.Errorf("Expected no plan writes after cancellation, got %d", repo.replaceCalls)
	}
	if len(repo.plans) != 0 {
		t.Errorf("Expected no stored plans, got %d run dates", len(repo.plans))
	}
}

func TestTriggerRun_BoundedByLockTTL(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)
	uc.lockTTL = 20 * time.Millisecond
	repo.onSales = func() { time.Sleep(60 * time.Millisecond) }

	d := runDate
	_, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if repo.replaceCalls != 0 {
		t.Errorf("Expected no plan writes after the lock expired, got %d", repo.replaceCalls)
	}
}

func TestTriggerRun_StoreScopedRunKeepsOtherStores(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)
	d := runDate

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store := "S2"
	repo.candidates[2].QuantityOnHand = 100
	summary, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d, StoreID: &store})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.StoreID != "S2" || summary.TotalItems != 0 {
		t.Errorf("Expected an empty S2 run, got %+v", summary)
	}

	stored := repo.plans["2024-03-01"]
	if len(stored) != 1 || stored[0].StoreID != "S1" {
		t.Errorf("Expected only the S1 row to remain, got %+v", stored)
	}
}

func TestTriggerRun_StoreScopedRunRespectsWarehouseStock(t *testing.T) {
	repo := seededRepo()
	uc, _ := newTestUseCase(repo)
	d := runDate

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	store := "S1"
	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d, StoreID: &store}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	allocated := map[string]int64{}
	for _, p := range repo.plans["2024-03-01"] {
		allocated[p.ProductID] += p.AllocatedShipQty
		if p.StoreID == "S1" && p.ProductID == "P1" && p.AllocatedShipQty != 12 {
			t.Errorf("Expected S1 P1 allocated 12, got %d", p.AllocatedShipQty)
		}
		if p.StoreID == "S2" && p.ProductID == "P1" && p.AllocatedShipQty != 38 {
			t.Errorf("Expected S2 P1 allocated 38, got %d", p.AllocatedShipQty)
		}
	}
	for pid, units := range allocated {
		if units > repo.warehouse[pid] {
			t.Errorf("Expected %s allocations within %d warehouse units, got %d", pid, repo.warehouse[pid], units)
		}
	}
}

func TestTriggerRun_SnapshotModeWithFullHistory(t *testing.T) {
	repo := seededRepo()
	repo.snapshotDays = 28
	uc, _ := newTestUseCase(repo)
	d := runDate

	summary, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.CalculationMode != "snapshot" {
		t.Errorf("Expected snapshot mode, got %s", summary.CalculationMode)
	}
	if !repo.salesSnapshot {
		t.Error("Expected sales to be read in snapshot mode")
	}

	repo.settings.UseInventorySnapshots = false
	summary, err = uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.CalculationMode != "fallback" {
		t.Errorf("Expected fallback mode when snapshots are disabled, got %s", summary.CalculationMode)
	}
}

func TestTriggerRun_PublishFailureDoesNotFailRun(t *testing.T) {
	repo := seededRepo()
	uc, deps := newTestUseCase(repo)
	deps.publisher.err = errors.New("broker down")
	d := runDate

	if _, err := uc.TriggerRun(context.Background(), &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Expected committed run despite publish failure, got %v", err)
	}
	if deps.logs.FilterMessage("Failed to publish plan committed event").Len() != 1 {
		t.Error("Expected publish failure to be logged")
	}
}
