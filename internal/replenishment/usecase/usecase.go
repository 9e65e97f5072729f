package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/clock"
	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/metrics"
	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/planner"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout = "2006-01-02"

	statusCommitted = "committed"
)

type Options struct {
	Planner  planner.Config
	Workers  int
	LockTTL  time.Duration
	Location *time.Location
}

type replenishmentUseCase struct {
	repo      replenishment.Repository
	locker    replenishment.Locker
	publisher replenishment.EventPublisher
	metrics   *metrics.RunMetrics
	clock     clock.Clock
	cfg       planner.Config
	workers   int
	lockTTL   time.Duration
	location  *time.Location
	logger    logger.ZapLogger
}

// NewReplenishmentUseCase wires the run orchestrator. publisher and m may be
// nil.
func NewReplenishmentUseCase(
	repo replenishment.Repository,
	locker replenishment.Locker,
	publisher replenishment.EventPublisher,
	m *metrics.RunMetrics,
	clk clock.Clock,
	opts Options,
	log logger.ZapLogger,
) replenishment.UseCase {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &replenishmentUseCase{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
		clock:     clk,
		cfg:       opts.Planner.WithDefaults(),
		workers:   opts.Workers,
		lockTTL:   opts.LockTTL,
		location:  opts.Location,
		logger:    log,
	}
}

// today is the current calendar date in the business time zone.
func (uc *replenishmentUseCase) today() time.Time {
	return planner.DateOf(uc.clock.Now().In(uc.location))
}

// runInputs is everything a run reads, loaded once before computation.
type runInputs struct {
	readiness  planner.Readiness
	multiplier float64
	candidates []model.Inventory
	policy     *planner.PolicyResolver
	pipeline   map[planner.PairKey]int64
	warehouse  map[string]int64
	demand     *planner.DemandEstimator
}

func (uc *replenishmentUseCase) TriggerRun(ctx context.Context, input *dto.TriggerRunInput) (*dto.RunSummary, error) {
	started := uc.clock.Now()

	runDate := uc.today()
	if input.RunDate != nil {
		runDate = planner.DateOf(*input.RunDate)
	}
	var storeID *string
	if input.StoreID != nil && *input.StoreID != "" {
		storeID = input.StoreID
	}
	runKey := runDate.Format(dateLayout)
	runID := uuid.New().String()

	log := uc.logger.With(
		zap.String("run_id", runID),
		zap.String("run_date", runKey),
		zap.String("requested_by", input.RequestedBy),
	)
	if storeID != nil {
		log = log.With(zap.String("store_id", *storeID))
	}

	lockKey := fmt.Sprintf("lock:replenishment:run:%s", runKey)
	lockValue := uuid.New().String()

	acquired, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, uc.lockTTL)
	if err != nil {
		uc.metrics.ObserveRun("failed", uc.clock.Now().Sub(started))
		return nil, &replenishment.RunError{RunDate: runKey, Stage: replenishment.StageLock, Err: err}
	}
	if !acquired {
		log.Warn("Replenishment run rejected, another run holds the run date")
		uc.metrics.ObserveRun("conflict", uc.clock.Now().Sub(started))
		return nil, fmt.Errorf("run date %s: %w", runKey, replenishment.ErrRunInProgress)
	}
	defer func() {
		if err := uc.locker.ReleaseLock(context.Background(), lockKey, lockValue); err != nil {
			log.Error("Failed to release run lock", zap.Error(err))
		}
	}()

	log.Info("Starting replenishment run")

	// The run must not outlive its lock.
	runCtx, cancel := context.WithTimeout(ctx, uc.lockTTL)
	defer cancel()

	summary, err := uc.run(runCtx, runDate, storeID, log)
	elapsed := uc.clock.Now().Sub(started)
	if err != nil {
		result := "failed"
		if errors.Is(err, replenishment.ErrRunInProgress) {
			result = "conflict"
		}
		uc.metrics.ObserveRun(result, elapsed)
		log.Error("Replenishment run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	summary.RunID = runID
	summary.StartedAt = started
	summary.CompletedAt = uc.clock.Now()

	uc.metrics.ObserveRun(statusCommitted, elapsed)
	uc.metrics.SetLastRun(summary.TotalItems, summary.Summary.TotalRequestedUnits, summary.Summary.TotalAllocatedUnits, summary.ExceptionsCount, summary.CompletedAt)

	log.Info("Replenishment run committed",
		zap.String("mode", summary.CalculationMode),
		zap.Int("total_items", summary.TotalItems),
		zap.Int("stores_processed", summary.StoresProcessed),
		zap.Int("warehouse_allocations", summary.WarehouseAllocations),
		zap.Int("exceptions", summary.ExceptionsCount),
		zap.Duration("elapsed", elapsed),
	)

	if uc.publisher != nil {
		if err := uc.publisher.PublishPlanCommitted(ctx, summary); err != nil {
			log.Error("Failed to publish plan committed event", zap.Error(err))
		}
	}

	return summary, nil
}

func (uc *replenishmentUseCase) run(ctx context.Context, runDate time.Time, storeID *string, log logger.ZapLogger) (*dto.RunSummary, error) {
	runKey := runDate.Format(dateLayout)
	fail := func(stage string, err error) error {
		return &replenishment.RunError{RunDate: runKey, Stage: stage, Err: err}
	}

	in, stage, err := uc.loadInputs(ctx, runDate, storeID)
	if err != nil {
		return nil, fail(stage, err)
	}
	log.Debug("Run inputs loaded",
		zap.String("mode", string(in.readiness.Mode)),
		zap.Int("snapshot_days", in.readiness.SnapshotDaysAvailable),
		zap.Float64("seasonality_multiplier", in.multiplier),
		zap.Int("candidates", len(in.candidates)),
	)

	plans, err := uc.computePlans(ctx, runDate, in)
	if err != nil {
		return nil, fail(replenishment.StageCompute, err)
	}

	contended := planner.AllocateWarehouse(plans, in.warehouse)

	if err := ctx.Err(); err != nil {
		return nil, fail(replenishment.StageCommit, err)
	}
	if err := uc.repo.ReplacePlans(ctx, runDate, storeID, plans); err != nil {
		return nil, fail(replenishment.StageCommit, err)
	}

	summary := uc.summarize(plans, in)
	summary.RunDate = runKey
	if storeID != nil {
		summary.StoreID = *storeID
	}
	summary.WarehouseAllocations = contended
	return summary, nil
}

// loadInputs performs every read of a run. On failure it reports the stage
// that failed.
func (uc *replenishmentUseCase) loadInputs(ctx context.Context, runDate time.Time, storeID *string) (*runInputs, string, error) {
	in := &runInputs{}

	settings, err := uc.repo.GetSettings(ctx)
	if err != nil {
		return nil, replenishment.StageReadiness, err
	}
	from, to := planner.ReadinessWindow(runDate, uc.cfg.ReadinessWindowDays)
	snapshotDays, err := uc.repo.CountSnapshotDays(ctx, from, to)
	if err != nil {
		return nil, replenishment.StageReadiness, err
	}
	in.readiness = planner.EvaluateReadiness(snapshotDays, runDate, uc.cfg.ReadinessWindowDays, settings.UseInventorySnapshots)

	periods, err := uc.repo.ListSeasonality(ctx)
	if err != nil {
		return nil, replenishment.StageSeasonality, err
	}
	in.multiplier = planner.SeasonalityMultiplier(periods, runDate)

	in.candidates, err = uc.repo.ListCandidates(ctx, uc.cfg.WarehouseStoreID, storeID)
	if err != nil {
		return nil, replenishment.StageCandidates, err
	}

	tiers, err := uc.repo.ListStoreTiers(ctx)
	if err != nil {
		return nil, replenishment.StagePreload, err
	}
	in.policy = planner.NewPolicyResolver(tiers, uc.cfg.DefaultTier)

	var pipelineFilter *dto.PipelineFilter
	if storeID != nil {
		pipelineFilter = &dto.PipelineFilter{StoreIDs: []string{*storeID}}
	}
	pipeline, err := uc.repo.ListPipeline(ctx, pipelineFilter)
	if err != nil {
		return nil, replenishment.StagePreload, err
	}
	in.pipeline = make(map[planner.PairKey]int64, len(pipeline))
	for _, p := range pipeline {
		in.pipeline[planner.PairKey{StoreID: p.StoreID, ProductID: p.ProductID}] = p.OnOrderUnits
	}

	warehouse, err := uc.repo.ListWarehouseInventory(ctx, nil)
	if err != nil {
		return nil, replenishment.StagePreload, err
	}
	in.warehouse = make(map[string]int64, len(warehouse))
	for _, w := range warehouse {
		in.warehouse[w.ProductID] = w.WhOnHandUnits
	}
	if storeID != nil {
		// A scoped run only gets what the other stores' committed rows leave.
		committed, err := uc.repo.SumAllocatedExcludingStore(ctx, runDate, *storeID)
		if err != nil {
			return nil, replenishment.StagePreload, err
		}
		for pid, units := range committed {
			left := in.warehouse[pid] - units
			if left < 0 {
				left = 0
			}
			in.warehouse[pid] = left
		}
	}

	salesFrom, salesTo := planner.DemandWindow(runDate, uc.cfg.LookbackDays)
	sales, err := uc.repo.ListDailySales(ctx, in.readiness.Mode == planner.ModeSnapshot, salesFrom, salesTo, storeID)
	if err != nil {
		return nil, replenishment.StagePreload, err
	}
	in.demand = planner.NewDemandEstimator(in.readiness.Mode, sales)

	return in, "", nil
}

// computePlans evaluates every candidate on a bounded pool of workers. Each
// worker writes only its own slots, so the output order follows the
// candidates regardless of scheduling.
func (uc *replenishmentUseCase) computePlans(ctx context.Context, runDate time.Time, in *runInputs) ([]model.ShipmentPlan, error) {
	n := len(in.candidates)
	results := make([]model.ShipmentPlan, n)
	planned := make([]bool, n)

	chunk := (n + uc.workers - 1) / uc.workers
	if chunk == 0 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := in.candidates[i]
				results[i], planned[i] = uc.cfg.PlanShipment(planner.PlanInput{
					RunDate:       runDate,
					StoreID:       c.StoreID,
					ProductID:     c.ProductID,
					OnHand:        c.QuantityOnHand,
					OnOrder:       in.pipeline[planner.PairKey{StoreID: c.StoreID, ProductID: c.ProductID}],
					AvgDailySales: in.demand.AvgDailySales(c.StoreID, c.ProductID),
					Multiplier:    in.multiplier,
					Tier:          in.policy.Resolve(c.StoreID),
					Mode:          in.readiness.Mode,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plans := make([]model.ShipmentPlan, 0, n)
	for i := range results {
		if planned[i] {
			plans = append(plans, results[i])
		}
	}
	return plans, nil
}

func (uc *replenishmentUseCase) summarize(plans []model.ShipmentPlan, in *runInputs) *dto.RunSummary {
	stores := make(map[string]struct{})
	products := make(map[string]struct{})
	summary := &dto.RunSummary{
		Status:                statusCommitted,
		CalculationMode:       string(in.readiness.Mode),
		SnapshotDaysAvailable: in.readiness.SnapshotDaysAvailable,
		SeasonalityMultiplier: in.multiplier,
		TotalItems:            len(plans),
	}

	for _, p := range plans {
		stores[p.StoreID] = struct{}{}
		products[p.ProductID] = struct{}{}
		summary.Summary.TotalRequestedUnits += p.RequestedShipQty
		summary.Summary.TotalAllocatedUnits += p.AllocatedShipQty
		if _, ok := planner.ClassifyException(p.OnHand, p.DaysOfStock, p.RequestedShipQty, p.AllocatedShipQty, uc.cfg.OverstockDays); ok {
			summary.ExceptionsCount++
		}
	}

	summary.StoresProcessed = len(stores)
	summary.ProductsProcessed = len(products)
	summary.Summary.TotalStores = len(stores)
	summary.Summary.TotalSKUs = len(products)
	return summary
}
