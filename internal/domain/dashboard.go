package domain

import "time"

// DashboardMetrics is one column of the current-versus-target comparison.
type DashboardMetrics struct {
	FillRate              NullFloat64 `json:"fill_rate"`
	InventoryTurnover     NullFloat64 `json:"inventory_turnover"`
	StockoutFrequency     NullFloat64 `json:"stockout_frequency"`
	HoldingCostPercentage float64     `json:"holding_cost_percentage"`
}

// ABCDistribution is the class roll-up shown on the dashboard.
type ABCDistribution struct {
	Class        ABCClass `json:"abc_class"`
	Count        int      `json:"count"`
	RevenueShare float64  `json:"revenue_share"`
}

// FinancialImpact is the headline cost-benefit figures.
type FinancialImpact struct {
	AnnualSavings      float64     `json:"annual_savings"`
	ImplementationCost float64     `json:"implementation_cost"`
	ROIPercent         NullFloat64 `json:"roi_percentage"`
	PaybackMonths      NullFloat64 `json:"payback_months"`
}

// Dashboard is the executive summary of an analysis run.
type Dashboard struct {
	RunID           string            `json:"run_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Current         DashboardMetrics  `json:"current_metrics"`
	Target          DashboardMetrics  `json:"target_metrics"`
	ABCDistribution []ABCDistribution `json:"abc_distribution"`
	Financial       FinancialImpact   `json:"financial_impact"`
	Simulation      SimulationSummary `json:"simulation"`
}
