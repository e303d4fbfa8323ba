package inventory

import (
	"sort"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ClassifyABC ranks SKUs by revenue across all stores and assigns a class.
//
// Revenue ties are ordered by SKU id ascending. Per-SKU shares are rounded
// to two decimals before the class boundaries are applied, so a SKU whose
// cumulative share rounds to exactly ClassABoundary is class A. The top
// ranked SKU is always class A, even when its own share crosses the A
// boundary. SKUs without attributes have no unit cost and are reported in
// Unclassified.
func ClassifyABC(sales []domain.SalesTransaction, attrs []domain.SKUAttributes, p Params) domain.ABCResult {
	attrIdx := attributeIndex(attrs)

	type totals struct {
		qty     float64
		revenue float64
	}
	bySKU := make(map[string]*totals)
	missing := make(map[string]struct{})

	for _, tx := range sales {
		a, ok := attrIdx[tx.SKUID]
		if !ok {
			missing[tx.SKUID] = struct{}{}
			continue
		}
		t := bySKU[tx.SKUID]
		if t == nil {
			t = &totals{}
			bySKU[tx.SKUID] = t
		}
		t.qty += tx.QuantitySold
		t.revenue += tx.QuantitySold * a.UnitCost
	}

	entries := make([]domain.ABCEntry, 0, len(bySKU))
	for sku, t := range bySKU {
		entries = append(entries, domain.ABCEntry{SKUID: sku, QuantitySold: t.qty, Revenue: t.revenue})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Revenue != entries[j].Revenue {
			return entries[i].Revenue > entries[j].Revenue
		}
		return entries[i].SKUID < entries[j].SKUID
	})

	var total float64
	for _, e := range entries {
		total += e.Revenue
	}

	var cumulative float64
	for i := range entries {
		e := &entries[i]
		e.Rank = i + 1
		cumulative += e.Revenue
		if total > 0 {
			e.RevenueShare = roundFloat(e.Revenue/total*100, 2)
			e.CumulativeShare = roundFloat(cumulative/total*100, 2)
		}
		e.Class = classFor(e.CumulativeShare, p)
		if i == 0 && total > 0 {
			e.Class = domain.ClassA
		}
		e.TargetServiceLevel = p.ServiceLevel(e.Class)
	}

	result := domain.ABCResult{
		Entries:      entries,
		Summary:      summarizeABC(entries, total),
		TotalRevenue: total,
	}
	for sku := range missing {
		result.Unclassified = append(result.Unclassified, sku)
	}
	sort.Strings(result.Unclassified)

	return result
}

func classFor(cumulative float64, p Params) domain.ABCClass {
	switch {
	case cumulative <= p.ClassABoundary:
		return domain.ClassA
	case cumulative <= p.ClassBBoundary:
		return domain.ClassB
	default:
		return domain.ClassC
	}
}

// summarizeABC always emits A, B and C. Shares use unrounded class revenue.
func summarizeABC(entries []domain.ABCEntry, total float64) []domain.ABCClassSummary {
	idx := make(map[domain.ABCClass]*domain.ABCClassSummary, len(domain.ABCClasses))
	summary := make([]domain.ABCClassSummary, len(domain.ABCClasses))
	for i, class := range domain.ABCClasses {
		summary[i].Class = class
		idx[class] = &summary[i]
	}

	for _, e := range entries {
		s := idx[e.Class]
		s.SKUCount++
		s.TotalRevenue += e.Revenue
	}

	if total > 0 {
		for i := range summary {
			summary[i].RevenueShare = summary[i].TotalRevenue / total * 100
		}
	}
	return summary
}
