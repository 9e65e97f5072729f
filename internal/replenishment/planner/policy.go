package planner

import "github.com/fekuna/omnipos-replenishment-service/internal/model"

const (
	TierA = "A"
	TierB = "B"
)

type TierParams struct {
	Tier             string
	SafetyDays       int
	TargetCoverDays  int
	ExpiryWindowDays int
}

func DefaultTierParams() TierParams {
	return TierParams{Tier: TierB, SafetyDays: 3, TargetCoverDays: 7, ExpiryWindowDays: 60}
}

type PolicyResolver struct {
	tiers    map[string]TierParams
	fallback TierParams
}

func NewPolicyResolver(tiers []model.StoreTier, fallback TierParams) *PolicyResolver {
	r := &PolicyResolver{
		tiers:    make(map[string]TierParams, len(tiers)),
		fallback: fallback,
	}
	for _, t := range tiers {
		r.tiers[t.StoreID] = TierParams{
			Tier:             t.Tier,
			SafetyDays:       t.SafetyDays,
			TargetCoverDays:  t.TargetCoverDays,
			ExpiryWindowDays: t.ExpiryWindowDays,
		}
	}
	return r
}

// Resolve returns the store's configured tier or the fallback tier.
func (r *PolicyResolver) Resolve(storeID string) TierParams {
	if p, ok := r.tiers[storeID]; ok {
		return p
	}
	return r.fallback
}
