// Package export flattens analysis results into named tables and writes them
// as CSV files or as a single xlsx workbook.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

// Sheet names of the results workbook, in output order.
const (
	SheetSummary        = "Summary"
	SheetDemand         = "Demand_Analysis"
	SheetForecast       = "Demand_Forecast"
	SheetABC            = "ABC_Classification"
	SheetPolicy         = "Inventory_Model"
	SheetSKUPolicy      = "SKU_Policy"
	SheetKPI            = "KPI"
	SheetSimulation     = "Simulation_Results"
	SheetCostBenefit    = "Cost_Benefit_Analysis"
	SheetWorkingCapital = "Working_Capital"
)

// Table is a flat, named result table. Cells are string, int, float64 or nil
// for an undefined value.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// money rounds currency amounts to cents.
func money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func nullable(n domain.NullFloat64) any {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

func nullableMoney(n domain.NullFloat64) any {
	if !n.Valid {
		return nil
	}
	return money(n.Float64)
}

// Tables flattens every stage output of res.
func Tables(res *pipeline.Result) []Table {
	return []Table{
		summaryTable(res),
		demandTable(res.Demand),
		forecastTable(res.Forecast),
		abcTable(res.ABC),
		policyTable(res.Policies),
		skuPolicyTable(res.SKUPolicies),
		kpiTable(res.KPI),
		simulationTable(res.Simulation),
		costBenefitTable(res.CostBenefit),
		workingCapitalTable(res.WorkingCapital),
	}
}

func summaryTable(res *pipeline.Result) Table {
	t := Table{Name: SheetSummary, Header: []string{"metric", "value"}}
	add := func(k string, v any) { t.Rows = append(t.Rows, []any{k, v}) }

	add("run_id", res.RunID)
	add("generated_at", res.GeneratedAt.Format(time.RFC3339))
	add("seed", res.Seed)
	add("store_skus", len(res.Demand))
	add("skus_classified", len(res.ABC.Entries))
	add("skus_unclassified", len(res.ABC.Unclassified))
	add("total_revenue", money(res.ABC.TotalRevenue))

	snap := res.KPI.Snapshot
	add("current_fill_rate", nullable(snap.FillRate))
	add("avg_inventory_turnover", nullable(snap.AvgInventoryTurns))
	add("avg_days_of_supply", nullable(snap.AvgDaysOfSupply))
	add("current_inventory_value", money(snap.TotalInventoryValue))
	add("stockout_events", snap.StockoutEvents)

	sim := res.Simulation.Summary
	add("simulation_days", sim.Days)
	add("simulated_skus", sim.SKUsSimulated)
	add("simulation_skipped", sim.Skipped)
	add("simulated_avg_fill_rate", sim.AvgFillRate)
	add("simulated_stockout_days", sim.TotalStockoutDays)
	add("simulated_orders", sim.TotalOrdersPlaced)

	if cb := res.CostBenefit; cb != nil {
		add("proposed_inventory_value", money(cb.ProposedInventoryValue))
		add("total_annual_savings", money(cb.TotalAnnualSavings))
		add("roi_percent", nullable(cb.ROIPercent))
		add("payback_months", nullable(cb.PaybackMonths))
	}
	for _, w := range res.Warnings {
		add("warning", w)
	}
	return t
}

func demandTable(recs []domain.DemandRecord) Table {
	t := Table{Name: SheetDemand, Header: []string{
		"store_id", "sku_id", "mean_demand", "std_demand", "total_demand", "observed_days",
		"min_demand", "max_demand", "cv", "demand_pattern", "unit_cost", "avg_lead_time",
		"shelf_life_days", "annual_demand", "annual_revenue",
	}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []any{
			r.StoreID, r.SKUID, r.MeanDemand, r.StdDemand, r.TotalDemand, r.ObservedDays,
			r.MinDemand, r.MaxDemand, r.CV, string(r.Pattern), nullable(r.UnitCost), nullable(r.AvgLeadTime),
			nullable(r.ShelfLifeDays), r.AnnualDemand, nullableMoney(r.AnnualRevenue),
		})
	}
	return t
}

func forecastTable(fcs []domain.DemandForecast) Table {
	t := Table{Name: SheetForecast, Header: []string{
		"store_id", "sku_id", "window_days", "daily_forecast", "horizon_days", "forecast_quantity",
	}}
	for _, f := range fcs {
		t.Rows = append(t.Rows, []any{
			f.StoreID, f.SKUID, f.WindowDays, f.DailyForecast, f.HorizonDays, f.ForecastQuantity,
		})
	}
	return t
}

func abcTable(abc domain.ABCResult) Table {
	t := Table{Name: SheetABC, Header: []string{
		"rank", "sku_id", "quantity_sold", "revenue", "revenue_percentage",
		"cumulative_percentage", "abc_class", "target_service_level",
	}}
	for _, e := range abc.Entries {
		t.Rows = append(t.Rows, []any{
			e.Rank, e.SKUID, e.QuantitySold, money(e.Revenue), e.RevenueShare,
			e.CumulativeShare, string(e.Class), e.TargetServiceLevel,
		})
	}
	for _, sku := range abc.Unclassified {
		t.Rows = append(t.Rows, []any{nil, sku, nil, nil, nil, nil, "unclassified", nil})
	}
	return t
}

func policyTable(policies []domain.Policy) Table {
	t := Table{Name: SheetPolicy, Header: []string{
		"store_id", "sku_id", "abc_class", "target_service_level", "mean_demand", "annual_demand",
		"unit_cost", "avg_lead_time", "eoq", "z_score", "lead_time_std", "safety_stock",
		"lead_time_demand", "reorder_point", "max_inventory", "annual_ordering_cost",
		"annual_holding_cost", "total_annual_cost", "status",
	}}
	for _, p := range policies {
		t.Rows = append(t.Rows, []any{
			p.StoreID, p.SKUID, string(p.Class), p.TargetServiceLevel, p.MeanDemand, p.AnnualDemand,
			p.UnitCost, p.AvgLeadTime, p.EOQ, p.ZScore, p.LeadTimeStd, p.SafetyStock,
			p.LeadTimeDemand, p.ReorderPoint, p.MaxInventory, nullableMoney(p.AnnualOrderingCost),
			nullableMoney(p.AnnualHoldingCost), nullableMoney(p.TotalAnnualCost), p.Status.Label(),
		})
	}
	return t
}

func skuPolicyTable(sps []domain.SKUPolicy) Table {
	t := Table{Name: SheetSKUPolicy, Header: []string{
		"sku_id", "stores", "representative_store", "abc_class", "unit_cost", "eoq",
		"safety_stock", "reorder_point", "max_inventory", "total_annual_cost",
		"undefined_cost_stores", "investment_required",
	}}
	for _, sp := range sps {
		t.Rows = append(t.Rows, []any{
			sp.SKUID, sp.Stores, sp.RepresentativeStore, string(sp.Class), sp.UnitCost, sp.EOQ,
			sp.SafetyStock, sp.ReorderPoint, sp.MaxInventory, money(sp.TotalAnnualCost),
			sp.UndefinedCostStores, money(sp.InvestmentRequired),
		})
	}
	return t
}

func kpiTable(kpi domain.KPIResult) Table {
	t := Table{Name: SheetKPI, Header: []string{
		"store_id", "sku_id", "total_sold", "mean_daily_sales", "revenue", "current_stock",
		"unit_cost", "inventory_value", "days_of_supply", "inventory_turnover",
	}}
	for _, r := range kpi.Records {
		t.Rows = append(t.Rows, []any{
			r.StoreID, r.SKUID, r.TotalSold, r.MeanDailySales, money(r.Revenue), r.CurrentStock,
			r.UnitCost, money(r.InventoryValue), nullable(r.DaysOfSupply), nullable(r.InventoryTurns),
		})
	}
	return t
}

func simulationTable(sim domain.SimulationResult) Table {
	t := Table{Name: SheetSimulation, Header: []string{
		"store_id", "sku_id", "starting_stock", "total_demand", "total_sales",
		"stockout_days", "fill_rate", "orders_placed", "ending_stock",
	}}
	for _, tr := range sim.Traces {
		t.Rows = append(t.Rows, []any{
			tr.StoreID, tr.SKUID, tr.StartingStock, tr.TotalDemand, tr.TotalSales,
			tr.StockoutDays, tr.FillRate, tr.OrdersPlaced, tr.EndingStock,
		})
	}
	return t
}

func costBenefitTable(cb *domain.CostBenefit) Table {
	t := Table{Name: SheetCostBenefit, Header: []string{"metric", "value"}}
	if cb == nil {
		return t
	}
	t.Rows = [][]any{
		{"current_inventory_value", money(cb.CurrentInventoryValue)},
		{"proposed_inventory_value", money(cb.ProposedInventoryValue)},
		{"inventory_reduction", money(cb.InventoryReduction)},
		{"holding_cost_savings", money(cb.HoldingCostSavings)},
		{"current_fill_rate", cb.CurrentFillRate},
		{"target_fill_rate", cb.TargetFillRate},
		{"current_annual_revenue", money(cb.CurrentAnnualRevenue)},
		{"revenue_uplift", money(cb.RevenueUplift)},
		{"total_annual_savings", money(cb.TotalAnnualSavings)},
		{"implementation_cost", money(cb.ImplementationCost)},
		{"roi_percent", nullable(cb.ROIPercent)},
		{"payback_months", nullable(cb.PaybackMonths)},
	}
	return t
}

func workingCapitalTable(wc domain.WorkingCapital) Table {
	return Table{Name: SheetWorkingCapital, Header: []string{"metric", "value"}, Rows: [][]any{
		{"current_working_capital", money(wc.CurrentWorkingCapital)},
		{"proposed_working_capital", money(wc.ProposedWorkingCapital)},
		{"working_capital_reduction", money(wc.Reduction)},
		{"reduction_percentage", nullable(wc.ReductionPercent)},
		{"annual_opportunity_savings", money(wc.OpportunitySavings)},
	}}
}
