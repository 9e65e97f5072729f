package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"github.com/jmoiron/sqlx"
)

const insertBatchSize = 1000

type PGRepository struct {
	DB       *sqlx.DB
	location *time.Location
}

// NewPGRepository builds a repository that buckets sales into business days
// of loc.
func NewPGRepository(db *sqlx.DB, loc *time.Location) *PGRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PGRepository{DB: db, location: loc}
}

func (r *PGRepository) GetSettings(ctx context.Context) (*model.ReplenishmentSettings, error) {
	var s model.ReplenishmentSettings
	err := r.DB.GetContext(ctx, &s, `
        SELECT use_inventory_snapshots, updated_at
        FROM replenishment_settings
        WHERE id = 1
    `)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.ReplenishmentSettings{UseInventorySnapshots: true}, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) UpdateSettings(ctx context.Context, s *model.ReplenishmentSettings) error {
	return r.DB.QueryRowxContext(ctx, `
        INSERT INTO replenishment_settings (id, use_inventory_snapshots, updated_at)
        VALUES (1, $1, NOW())
        ON CONFLICT (id)
        DO UPDATE SET
            use_inventory_snapshots = EXCLUDED.use_inventory_snapshots,
            updated_at = EXCLUDED.updated_at
        RETURNING updated_at
    `, s.UseInventorySnapshots).Scan(&s.UpdatedAt)
}

func (r *PGRepository) CountSnapshotDays(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `
        SELECT COUNT(DISTINCT snapshot_date)
        FROM inventory_snapshots
        WHERE snapshot_date >= $1 AND snapshot_date < $2
    `, from, to)
	return count, err
}

func (r *PGRepository) ListStoresWithSnapshots(ctx context.Context) ([]model.Store, error) {
	stores := []model.Store{}
	err := r.DB.SelectContext(ctx, &stores, `
        SELECT DISTINCT s.id, s.name
        FROM inventory_snapshots i
        JOIN stores s ON s.id = i.store_id
        ORDER BY s.name, s.id
    `)
	return stores, err
}

func (r *PGRepository) ListSeasonality(ctx context.Context) ([]model.SeasonalityPeriod, error) {
	periods := []model.SeasonalityPeriod{}
	err := r.DB.SelectContext(ctx, &periods, `
        SELECT id, start_date, end_date, multiplier::float8 AS multiplier, label, created_at
        FROM seasonality_calendar
        ORDER BY start_date, id
    `)
	return periods, err
}

// ListCandidates returns the inventory rows of stock-tracked products at
// every store except the warehouse, ordered by store then product.
func (r *PGRepository) ListCandidates(ctx context.Context, warehouseStoreID string, storeID *string) ([]model.Inventory, error) {
	query := `
        SELECT i.store_id, i.product_id, i.quantity_on_hand::bigint AS quantity_on_hand
        FROM inventory i
        JOIN products p ON p.id = i.product_id
        WHERE p.track_stock_level = true AND i.store_id <> ?`
	args := []interface{}{warehouseStoreID}

	if storeID != nil && *storeID != "" {
		query += ` AND i.store_id = ?`
		args = append(args, *storeID)
	}
	query += ` ORDER BY i.store_id, i.product_id`

	items := []model.Inventory{}
	err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) ListStoreTiers(ctx context.Context) ([]model.StoreTier, error) {
	tiers := []model.StoreTier{}
	err := r.DB.SelectContext(ctx, &tiers, `
        SELECT t.store_id, t.tier, t.safety_days, t.target_cover_days, t.expiry_window_days,
               s.name AS store_name, t.updated_at
        FROM store_tiers t
        LEFT JOIN stores s ON s.id = t.store_id
        ORDER BY t.store_id
    `)
	return tiers, err
}

func (r *PGRepository) UpsertStoreTier(ctx context.Context, tier *model.StoreTier) error {
	query := `
        INSERT INTO store_tiers (store_id, tier, safety_days, target_cover_days, expiry_window_days, updated_at)
        VALUES (:store_id, :tier, :safety_days, :target_cover_days, :expiry_window_days, NOW())
        ON CONFLICT (store_id)
        DO UPDATE SET
            tier = EXCLUDED.tier,
            safety_days = EXCLUDED.safety_days,
            target_cover_days = EXCLUDED.target_cover_days,
            expiry_window_days = EXCLUDED.expiry_window_days,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, tier)
	return err
}

func (r *PGRepository) DeleteStoreTier(ctx context.Context, storeID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM store_tiers WHERE store_id = $1`, storeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) GetSeasonality(ctx context.Context, id int64) (*model.SeasonalityPeriod, error) {
	var p model.SeasonalityPeriod
	err := r.DB.GetContext(ctx, &p, `
        SELECT id, start_date, end_date, multiplier::float8 AS multiplier, label, created_at
        FROM seasonality_calendar
        WHERE id = $1
    `, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) CreateSeasonality(ctx context.Context, p *model.SeasonalityPeriod) error {
	return r.DB.QueryRowxContext(ctx, `
        INSERT INTO seasonality_calendar (start_date, end_date, multiplier, label)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, p.StartDate, p.EndDate, p.Multiplier, p.Label).Scan(&p.ID, &p.CreatedAt)
}

func (r *PGRepository) UpdateSeasonality(ctx context.Context, p *model.SeasonalityPeriod) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE seasonality_calendar
        SET start_date = $1, end_date = $2, multiplier = $3, label = $4
        WHERE id = $5
    `, p.StartDate, p.EndDate, p.Multiplier, p.Label, p.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) DeleteSeasonality(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM seasonality_calendar WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) ListPipeline(ctx context.Context, f *dto.PipelineFilter) ([]model.StorePipeline, error) {
	query := `
        SELECT sp.store_id, sp.product_id, sp.on_order_units::bigint AS on_order_units,
               s.name AS store_name, p.name AS product_name, sp.updated_at
        FROM store_pipeline sp
        LEFT JOIN stores s ON s.id = sp.store_id
        LEFT JOIN products p ON p.id = sp.product_id`
	var args []interface{}
	if f != nil && len(f.StoreIDs) > 0 {
		query += ` WHERE sp.store_id IN (?)`
		args = append(args, f.StoreIDs)
	}
	query += ` ORDER BY sp.store_id, sp.product_id`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	items := []model.StorePipeline{}
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) ListWarehouseInventory(ctx context.Context, f *dto.WarehouseFilter) ([]model.WarehouseInventory, error) {
	query := `
        SELECT wi.product_id, wi.wh_on_hand_units::bigint AS wh_on_hand_units,
               p.name AS product_name, p.category AS category, wi.updated_at
        FROM warehouse_inventory wi
        LEFT JOIN products p ON p.id = wi.product_id`
	var args []interface{}
	if f != nil && len(f.ProductIDs) > 0 {
		query += ` WHERE wi.product_id IN (?)`
		args = append(args, f.ProductIDs)
	}
	query += ` ORDER BY wi.product_id`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	items := []model.WarehouseInventory{}
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) UpsertPipeline(ctx context.Context, items []model.StorePipeline) (int, int, error) {
	return r.bulkUpsert(ctx, `
        INSERT INTO store_pipeline (store_id, product_id, on_order_units, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (store_id, product_id)
        DO UPDATE SET
            on_order_units = EXCLUDED.on_order_units,
            updated_at = EXCLUDED.updated_at
        RETURNING (xmax = 0) AS inserted
    `, len(items), func(i int) []interface{} {
		return []interface{}{items[i].StoreID, items[i].ProductID, items[i].OnOrderUnits}
	})
}

func (r *PGRepository) UpsertWarehouseInventory(ctx context.Context, items []model.WarehouseInventory) (int, int, error) {
	return r.bulkUpsert(ctx, `
        INSERT INTO warehouse_inventory (product_id, wh_on_hand_units, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (product_id)
        DO UPDATE SET
            wh_on_hand_units = EXCLUDED.wh_on_hand_units,
            updated_at = EXCLUDED.updated_at
        RETURNING (xmax = 0) AS inserted
    `, len(items), func(i int) []interface{} {
		return []interface{}{items[i].ProductID, items[i].WhOnHandUnits}
	})
}

// bulkUpsert runs query once per row inside one transaction and counts rows
// that were inserted rather than updated.
func (r *PGRepository) bulkUpsert(ctx context.Context, query string, n int, argsAt func(int) []interface{}) (updated, created int, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		var inserted bool
		if err := stmt.QueryRowxContext(ctx, argsAt(i)...).Scan(&inserted); err != nil {
			return 0, 0, fmt.Errorf("upsert row %d: %w", i, err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return updated, created, nil
}

// ListDailySales returns per-day sales for [from, to). In snapshot mode the
// rows are the inventory snapshots of the window joined with that day's
// sales, so in-stock days without sales appear with quantity 0. Otherwise
// only days with recorded sales are returned.
func (r *PGRepository) ListDailySales(ctx context.Context, snapshotMode bool, from, to time.Time, storeID *string) ([]model.DailySales, error) {
	fromTS := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, r.location)
	toTS := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, r.location)
	filterStore := storeID != nil && *storeID != ""

	daily := `
        SELECT t.store_id, ti.product_id,
               (t.transaction_time AT TIME ZONE ?)::date AS sale_date,
               SUM(ti.quantity)::float8 AS quantity
        FROM transactions t
        JOIN transaction_items ti ON ti.transaction_ref_id = t.ref_id
        WHERE t.is_cancelled = false
          AND t.transaction_time >= ? AND t.transaction_time < ?`
	args := []interface{}{r.location.String(), fromTS, toTS}
	if filterStore {
		daily += ` AND t.store_id = ?`
		args = append(args, *storeID)
	}
	daily += `
        GROUP BY t.store_id, ti.product_id, sale_date`

	var query string
	if snapshotMode {
		query = `
        WITH daily AS (` + daily + `
        )
        SELECT s.store_id, s.product_id, s.snapshot_date AS sale_date,
               COALESCE(d.quantity, 0) AS quantity,
               s.quantity_on_hand::bigint AS snapshot_on_hand
        FROM inventory_snapshots s
        LEFT JOIN daily d
               ON d.store_id = s.store_id
              AND d.product_id = s.product_id
              AND d.sale_date = s.snapshot_date
        WHERE s.snapshot_date >= ? AND s.snapshot_date < ?`
		args = append(args, from, to)
		if filterStore {
			query += ` AND s.store_id = ?`
			args = append(args, *storeID)
		}
		query += ` ORDER BY s.store_id, s.product_id, s.snapshot_date`
	} else {
		query = `
        SELECT store_id, product_id, sale_date, quantity, NULL::bigint AS snapshot_on_hand
        FROM (` + daily + `
        ) daily
        ORDER BY store_id, product_id, sale_date`
	}

	rows := []model.DailySales{}
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...)
	return rows, err
}

// ReplacePlans swaps the plan rows of runDate, or of one store on runDate,
// in a single transaction. Concurrent writers for the same run date are
// rejected with ErrRunInProgress.
func (r *PGRepository) ReplacePlans(ctx context.Context, runDate time.Time, storeID *string, plans []model.ShipmentPlan) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lockKey := "shipment_plans:" + runDate.Format("2006-01-02")
	var locked bool
	if err := tx.QueryRowxContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, lockKey).Scan(&locked); err != nil {
		return fmt.Errorf("failed to lock run date: %w", err)
	}
	if !locked {
		return replenishment.ErrRunInProgress
	}

	deleteQuery := `DELETE FROM shipment_plans WHERE run_date = ?`
	args := []interface{}{runDate}
	if storeID != nil && *storeID != "" {
		deleteQuery += ` AND store_id = ?`
		args = append(args, *storeID)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(deleteQuery), args...); err != nil {
		return fmt.Errorf("failed to delete previous plan: %w", err)
	}

	insertQuery := `
        INSERT INTO shipment_plans (
            run_date, store_id, product_id,
            avg_daily_sales, season_adjusted_daily_sales, safety_stock,
            min_level, max_level, expiry_cap, final_max,
            on_hand, on_order, inventory_position,
            requested_ship_qty, allocated_ship_qty,
            priority_score, days_of_stock, calculation_mode
        )
        VALUES (
            :run_date, :store_id, :product_id,
            :avg_daily_sales, :season_adjusted_daily_sales, :safety_stock,
            :min_level, :max_level, :expiry_cap, :final_max,
            :on_hand, :on_order, :inventory_position,
            :requested_ship_qty, :allocated_ship_qty,
            :priority_score, :days_of_stock, :calculation_mode
        )`
	for start := 0; start < len(plans); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(plans) {
			end = len(plans)
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, plans[start:end]); err != nil {
			return fmt.Errorf("failed to insert plan rows: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) LatestRunDate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.DB.GetContext(ctx, &latest, `SELECT MAX(run_date) FROM shipment_plans`); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

const planItemColumns = `
        sp.run_date, sp.store_id, sp.product_id,
        sp.avg_daily_sales::float8 AS avg_daily_sales,
        sp.season_adjusted_daily_sales::float8 AS season_adjusted_daily_sales,
        sp.safety_stock::float8 AS safety_stock,
        sp.min_level::float8 AS min_level,
        sp.max_level::float8 AS max_level,
        sp.expiry_cap::float8 AS expiry_cap,
        sp.final_max::float8 AS final_max,
        sp.on_hand, sp.on_order, sp.inventory_position,
        sp.requested_ship_qty, sp.allocated_ship_qty,
        sp.priority_score::float8 AS priority_score,
        sp.days_of_stock::float8 AS days_of_stock,
        sp.calculation_mode,
        COALESCE(s.name, '') AS store_name,
        COALESCE(p.name, '') AS product_name,
        COALESCE(p.category, '') AS category,
        COALESCE(wi.wh_on_hand_units, 0)::bigint AS wh_on_hand`

func (r *PGRepository) ListPlanItems(ctx context.Context, runDate time.Time, f *dto.PlanFilter) ([]model.PlanItem, error) {
	conditions := []string{"sp.run_date = ?"}
	args := []interface{}{runDate}
	if f != nil && len(f.StoreIDs) > 0 {
		conditions = append(conditions, "sp.store_id IN (?)")
		args = append(args, f.StoreIDs)
	}
	if f != nil && len(f.ProductIDs) > 0 {
		conditions = append(conditions, "sp.product_id IN (?)")
		args = append(args, f.ProductIDs)
	}

	query := `SELECT` + planItemColumns + `
        FROM shipment_plans sp
        LEFT JOIN stores s ON s.id = sp.store_id
        LEFT JOIN products p ON p.id = sp.product_id
        LEFT JOIN warehouse_inventory wi ON wi.product_id = sp.product_id
        WHERE ` + strings.Join(conditions, " AND ") + `
        ORDER BY sp.priority_score DESC, sp.store_id, sp.product_id`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	items := []model.PlanItem{}
	err = r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) ListAllocatedLines(ctx context.Context, runDate time.Time) ([]model.PicklistLine, error) {
	lines := []model.PicklistLine{}
	err := r.DB.SelectContext(ctx, &lines, `
        SELECT sp.product_id, COALESCE(p.name, '') AS product_name, COALESCE(p.category, '') AS category,
               sp.store_id, COALESCE(s.name, '') AS store_name, sp.allocated_ship_qty
        FROM shipment_plans sp
        LEFT JOIN products p ON p.id = sp.product_id
        LEFT JOIN stores s ON s.id = sp.store_id
        WHERE sp.run_date = $1 AND sp.allocated_ship_qty > 0
        ORDER BY sp.product_id, sp.allocated_ship_qty DESC, sp.store_id
    `, runDate)
	return lines, err
}

// SumAllocatedExcludingStore totals, per product, the units already committed
// to every store except storeID on runDate.
func (r *PGRepository) SumAllocatedExcludingStore(ctx context.Context, runDate time.Time, storeID string) (map[string]int64, error) {
	var rows []struct {
		ProductID string `db:"product_id"`
		Allocated int64  `db:"allocated"`
	}
	err := r.DB.SelectContext(ctx, &rows, `
        SELECT product_id, SUM(allocated_ship_qty)::bigint AS allocated
        FROM shipment_plans
        WHERE run_date = $1 AND store_id <> $2
        GROUP BY product_id
    `, runDate, storeID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Allocated
	}
	return out, nil
}
