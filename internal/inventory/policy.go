package inventory

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ZScore maps a service level to a standard normal quantile. Levels at or
// above 1 use fallback; levels at or below 0 use -fallback.
func ZScore(serviceLevel, fallback float64) float64 {
	switch {
	case serviceLevel >= 1:
		return fallback
	case serviceLevel <= 0:
		return -fallback
	}
	return distuv.UnitNormal.Quantile(serviceLevel)
}

// PolicyCalculator derives EOQ, safety stock and reorder points.
type PolicyCalculator struct {
	params Params
}

// NewPolicyCalculator creates a new policy calculator
func NewPolicyCalculator(params Params) *PolicyCalculator {
	return &PolicyCalculator{params: params}
}

// Calculate computes one policy per demand record. Output order follows demand.
func (pc *PolicyCalculator) Calculate(demand []domain.DemandRecord, abc domain.ABCResult) []domain.Policy {
	classes := abc.Lookup()
	policies := make([]domain.Policy, 0, len(demand))
	for _, rec := range demand {
		entry, classified := classes[rec.SKUID]
		policies = append(policies, pc.calculateOne(rec, entry, classified))
	}
	return policies
}

func (pc *PolicyCalculator) calculateOne(rec domain.DemandRecord, entry domain.ABCEntry, classified bool) domain.Policy {
	p := pc.params
	policy := domain.Policy{
		StoreID:      rec.StoreID,
		SKUID:        rec.SKUID,
		MeanDemand:   rec.MeanDemand,
		AnnualDemand: rec.AnnualDemand,
		Status:       domain.PolicyOK,
	}

	if !rec.HasAttributes {
		policy.Status = domain.PolicyMissingAttributes
		return policy
	}
	policy.UnitCost = rec.UnitCost.Float64
	policy.AvgLeadTime = rec.AvgLeadTime.Float64

	if !classified {
		policy.Status = domain.PolicyUnclassified
		return policy
	}
	policy.Class = entry.Class
	policy.TargetServiceLevel = entry.TargetServiceLevel

	// 1. Annual holding cost per unit = unit cost × holding rate
	policy.HoldingCostPerUnit = policy.UnitCost * p.HoldingCostRate

	// 2. EOQ = sqrt(2 × D × S / H); zero holding cost has no finite optimum
	if policy.HoldingCostPerUnit > 0 {
		policy.EOQ = nonNegative(roundFloat(math.Sqrt(2*policy.AnnualDemand*p.OrderingCost/policy.HoldingCostPerUnit), 0))
	} else {
		policy.Status = domain.PolicyZeroHoldingCost
	}

	// 3. z-score for the class service level
	policy.ZScore = ZScore(policy.TargetServiceLevel, p.FallbackZ)

	// 4. Lead-time demand std = demand std × sqrt(lead time)
	policy.LeadTimeStd = rec.StdDemand * math.Sqrt(math.Max(0, policy.AvgLeadTime))

	// 5. Safety stock = round(z × lead-time std), floored at 0
	policy.SafetyStock = nonNegative(roundFloat(policy.ZScore*policy.LeadTimeStd, 0))

	// 6. Reorder point = round(mean daily demand × lead time + safety stock)
	policy.LeadTimeDemand = policy.MeanDemand * policy.AvgLeadTime
	policy.ReorderPoint = nonNegative(roundFloat(policy.LeadTimeDemand+policy.SafetyStock, 0))

	// 7. Max inventory = EOQ + safety stock
	policy.MaxInventory = policy.EOQ + policy.SafetyStock

	// 8. Costs
	switch {
	case policy.EOQ > 0:
		policy.AnnualOrderingCost = domain.Defined(policy.AnnualDemand / policy.EOQ * p.OrderingCost)
	case policy.AnnualDemand == 0:
		policy.AnnualOrderingCost = domain.Defined(0)
	default:
		policy.AnnualOrderingCost = domain.Undefined()
	}
	policy.AnnualHoldingCost = domain.Defined((policy.EOQ/2 + policy.SafetyStock) * policy.HoldingCostPerUnit)

	if policy.AnnualOrderingCost.Valid {
		policy.TotalAnnualCost = domain.Defined(policy.AnnualOrderingCost.Float64 + policy.AnnualHoldingCost.Float64)
	}

	return policy
}

// SummarizeBySKU rolls store policies up to one row per SKU. Class and unit
// cost come from the lowest store id. Policies that could not be computed
// are left out. Rows are ordered by SKU id.
func SummarizeBySKU(policies []domain.Policy) []domain.SKUPolicy {
	bySKU := make(map[string][]domain.Policy)
	for _, pol := range policies {
		if !pol.Status.Simulatable() {
			continue
		}
		bySKU[pol.SKUID] = append(bySKU[pol.SKUID], pol)
	}

	skus := make([]string, 0, len(bySKU))
	for sku := range bySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	out := make([]domain.SKUPolicy, 0, len(skus))
	for _, sku := range skus {
		group := bySKU[sku]
		rep := group[0]
		for _, pol := range group[1:] {
			if pol.StoreID < rep.StoreID {
				rep = pol
			}
		}

		var eoq, ss, rop, maxInv, cost float64
		undefined := 0
		for _, pol := range group {
			eoq += pol.EOQ
			ss += pol.SafetyStock
			rop += pol.ReorderPoint
			maxInv += pol.MaxInventory
			if pol.TotalAnnualCost.Valid {
				cost += pol.TotalAnnualCost.Float64
			} else {
				undefined++
			}
		}
		n := float64(len(group))

		row := domain.SKUPolicy{
			SKUID:               sku,
			Stores:              len(group),
			RepresentativeStore: rep.StoreID,
			Class:               rep.Class,
			UnitCost:            rep.UnitCost,
			EOQ:                 roundFloat(eoq/n, 0),
			SafetyStock:         roundFloat(ss/n, 0),
			ReorderPoint:        roundFloat(rop/n, 0),
			MaxInventory:        roundFloat(maxInv/n, 0),
			MeanMaxInventory:    maxInv / n,
			TotalAnnualCost:     cost,
			UndefinedCostStores: undefined,
		}
		row.InvestmentRequired = row.MaxInventory * row.UnitCost
		out = append(out, row)
	}
	return out
}
