package planner

import (
	"math"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
)

const (
	minSalesRate   = 0.1
	minDaysOfCover = 0.1

	salesWeight = 0.6
	riskWeight  = 0.4
)

type PlanInput struct {
	RunDate       time.Time
	StoreID       string
	ProductID     string
	OnHand        int64
	OnOrder       int64
	AvgDailySales float64
	Multiplier    float64
	Tier          TierParams
	Mode          CalculationMode
}

// PlanShipment computes the target levels for one pair. It returns false when
// the pair needs no shipment; such pairs are not persisted.
func (c Config) PlanShipment(in PlanInput) (model.ShipmentPlan, bool) {
	sads := in.AvgDailySales * in.Multiplier

	safety := sads * float64(in.Tier.SafetyDays)
	minLevel := sads*float64(c.CoverDays()) + safety
	maxLevel := minLevel + sads*float64(in.Tier.TargetCoverDays)
	expiryCap := sads * float64(in.Tier.ExpiryWindowDays)
	finalMax := math.Min(maxLevel, expiryCap)

	position := in.OnHand + in.OnOrder
	requested := int64(math.Ceil(finalMax - float64(position)))
	if requested <= 0 {
		return model.ShipmentPlan{}, false
	}

	daysOfStock := DaysOfStock(in.OnHand, sads)
	priority := sads*salesWeight + (1/math.Max(daysOfStock, minDaysOfCover))*riskWeight

	return model.ShipmentPlan{
		RunDate:                  DateOf(in.RunDate),
		StoreID:                  in.StoreID,
		ProductID:                in.ProductID,
		AvgDailySales:            round(in.AvgDailySales, ratePlaces),
		SeasonAdjustedDailySales: round(sads, ratePlaces),
		SafetyStock:              round(safety, levelPlaces),
		MinLevel:                 round(minLevel, levelPlaces),
		MaxLevel:                 round(maxLevel, levelPlaces),
		ExpiryCap:                round(expiryCap, levelPlaces),
		FinalMax:                 round(finalMax, levelPlaces),
		OnHand:                   in.OnHand,
		OnOrder:                  in.OnOrder,
		InventoryPosition:        position,
		RequestedShipQty:         requested,
		PriorityScore:            round(priority, priorityPlaces),
		DaysOfStock:              round(daysOfStock, daysPlaces),
		CalculationMode:          string(in.Mode),
		RankScore:                priority,
	}, true
}

// DaysOfStock is on-hand divided by the sales rate floored at 0.1 units/day.
func DaysOfStock(onHand int64, sads float64) float64 {
	return float64(onHand) / math.Max(sads, minSalesRate)
}
