// internal/domain/models.go
package domain

import "time"

// SalesTransaction is one day of sales for a store-SKU.
type SalesTransaction struct {
	StoreID      string    `json:"store_id" db:"store_id"`
	SKUID        string    `json:"sku_id" db:"sku_id"`
	Date         time.Time `json:"date" db:"date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
}

// StockLevel is the current on-hand quantity for a store-SKU.
type StockLevel struct {
	StoreID      string  `json:"store_id" db:"store_id"`
	SKUID        string  `json:"sku_id" db:"sku_id"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
}

// SKUAttributes is per-SKU reference data.
type SKUAttributes struct {
	SKUID         string  `json:"sku_id" db:"sku_id"`
	UnitCost      float64 `json:"unit_cost" db:"unit_cost"`
	AvgLeadTime   float64 `json:"avg_lead_time" db:"avg_lead_time"`
	ShelfLifeDays float64 `json:"shelf_life_days" db:"shelf_life_days"`
}

// StoreSKU identifies a store-SKU pair.
type StoreSKU struct {
	StoreID string `json:"store_id"`
	SKUID   string `json:"sku_id"`
}

// Less orders keys by store then SKU.
func (k StoreSKU) Less(o StoreSKU) bool {
	if k.StoreID != o.StoreID {
		return k.StoreID < o.StoreID
	}
	return k.SKUID < o.SKUID
}

func (k StoreSKU) String() string {
	return k.StoreID + "/" + k.SKUID
}

// DemandRecord holds demand statistics for a store-SKU joined with its attributes.
type DemandRecord struct {
	StoreID       string        `json:"store_id" db:"store_id"`
	SKUID         string        `json:"sku_id" db:"sku_id"`
	MeanDemand    float64       `json:"mean_demand" db:"mean_demand"`
	StdDemand     float64       `json:"std_demand" db:"std_demand"`
	TotalDemand   float64       `json:"total_demand" db:"total_demand"`
	ObservedDays  int           `json:"observed_days" db:"observed_days"`
	MinDemand     float64       `json:"min_demand" db:"min_demand"`
	MaxDemand     float64       `json:"max_demand" db:"max_demand"`
	CV            float64       `json:"cv" db:"cv"`
	Pattern       DemandPattern `json:"demand_pattern" db:"demand_pattern"`
	HasAttributes bool          `json:"has_attributes" db:"has_attributes"`
	UnitCost      NullFloat64   `json:"unit_cost" db:"unit_cost"`
	AvgLeadTime   NullFloat64   `json:"avg_lead_time" db:"avg_lead_time"`
	ShelfLifeDays NullFloat64   `json:"shelf_life_days" db:"shelf_life_days"`
	AnnualDemand  float64       `json:"annual_demand" db:"annual_demand"`
	AnnualRevenue NullFloat64   `json:"annual_revenue" db:"annual_revenue"`
}

// Key returns the store-SKU key of the record.
func (r DemandRecord) Key() StoreSKU {
	return StoreSKU{StoreID: r.StoreID, SKUID: r.SKUID}
}

// ABCEntry is one SKU's revenue ranking.
type ABCEntry struct {
	Rank               int      `json:"rank" db:"rank"`
	SKUID              string   `json:"sku_id" db:"sku_id"`
	QuantitySold       float64  `json:"quantity_sold" db:"quantity_sold"`
	Revenue            float64  `json:"revenue" db:"revenue"`
	RevenueShare       float64  `json:"revenue_percentage" db:"revenue_percentage"`
	CumulativeShare    float64  `json:"cumulative_percentage" db:"cumulative_percentage"`
	Class              ABCClass `json:"abc_class" db:"abc_class"`
	TargetServiceLevel float64  `json:"target_service_level" db:"target_service_level"`
}

// ABCClassSummary rolls up one class.
type ABCClassSummary struct {
	Class        ABCClass `json:"abc_class" db:"abc_class"`
	SKUCount     int      `json:"sku_count" db:"sku_count"`
	TotalRevenue float64  `json:"total_revenue" db:"total_revenue"`
	RevenueShare float64  `json:"revenue_contribution" db:"revenue_contribution"`
}

// ABCResult is the full classification of a run.
type ABCResult struct {
	Entries      []ABCEntry        `json:"entries"`
	Summary      []ABCClassSummary `json:"summary"`
	TotalRevenue float64           `json:"total_revenue"`
	Unclassified []string          `json:"unclassified,omitempty"`
}

// Lookup indexes entries by SKU.
func (r ABCResult) Lookup() map[string]ABCEntry {
	out := make(map[string]ABCEntry, len(r.Entries))
	for _, e := range r.Entries {
		out[e.SKUID] = e
	}
	return out
}

// Policy is the replenishment policy for a store-SKU.
type Policy struct {
	StoreID            string       `json:"store_id" db:"store_id"`
	SKUID              string       `json:"sku_id" db:"sku_id"`
	Class              ABCClass     `json:"abc_class" db:"abc_class"`
	TargetServiceLevel float64      `json:"target_service_level" db:"target_service_level"`
	MeanDemand         float64      `json:"mean_demand" db:"mean_demand"`
	AnnualDemand       float64      `json:"annual_demand" db:"annual_demand"`
	UnitCost           float64      `json:"unit_cost" db:"unit_cost"`
	AvgLeadTime        float64      `json:"avg_lead_time" db:"avg_lead_time"`
	HoldingCostPerUnit float64      `json:"holding_cost_per_unit" db:"holding_cost_per_unit"`
	EOQ                float64      `json:"eoq" db:"eoq"`
	ZScore             float64      `json:"z_score" db:"z_score"`
	LeadTimeStd        float64      `json:"lead_time_std" db:"lead_time_std"`
	SafetyStock        float64      `json:"safety_stock" db:"safety_stock"`
	LeadTimeDemand     float64      `json:"lead_time_demand" db:"lead_time_demand"`
	ReorderPoint       float64      `json:"reorder_point" db:"reorder_point"`
	MaxInventory       float64      `json:"max_inventory" db:"max_inventory"`
	AnnualOrderingCost NullFloat64  `json:"annual_ordering_cost" db:"annual_ordering_cost"`
	AnnualHoldingCost  NullFloat64  `json:"annual_holding_cost" db:"annual_holding_cost"`
	TotalAnnualCost    NullFloat64  `json:"total_annual_cost" db:"total_annual_cost"`
	Status             PolicyStatus `json:"status" db:"status"`
}

// Key returns the store-SKU key of the policy.
func (p Policy) Key() StoreSKU {
	return StoreSKU{StoreID: p.StoreID, SKUID: p.SKUID}
}

// SKUPolicy is the per-SKU roll-up of store policies.
type SKUPolicy struct {
	SKUID               string   `json:"sku_id" db:"sku_id"`
	Stores              int      `json:"stores" db:"stores"`
	RepresentativeStore string   `json:"representative_store" db:"representative_store"`
	Class               ABCClass `json:"abc_class" db:"abc_class"`
	UnitCost            float64  `json:"unit_cost" db:"unit_cost"`
	EOQ                 float64  `json:"eoq" db:"eoq"`
	SafetyStock         float64  `json:"safety_stock" db:"safety_stock"`
	ReorderPoint        float64  `json:"reorder_point" db:"reorder_point"`
	MaxInventory        float64  `json:"max_inventory" db:"max_inventory"`
	MeanMaxInventory    float64  `json:"mean_max_inventory" db:"mean_max_inventory"`
	TotalAnnualCost     float64  `json:"total_annual_cost" db:"total_annual_cost"`
	UndefinedCostStores int      `json:"undefined_cost_stores" db:"undefined_cost_stores"`
	InvestmentRequired  float64  `json:"investment_required" db:"investment_required"`
}

// KPIRecord is the current-state view of a store-SKU.
type KPIRecord struct {
	StoreID        string      `json:"store_id" db:"store_id"`
	SKUID          string      `json:"sku_id" db:"sku_id"`
	TotalSold      float64     `json:"total_sold" db:"total_sold"`
	MeanDailySales float64     `json:"mean_daily_sales" db:"mean_daily_sales"`
	Revenue        float64     `json:"revenue" db:"revenue"`
	CurrentStock   float64     `json:"current_stock" db:"current_stock"`
	UnitCost       float64     `json:"unit_cost" db:"unit_cost"`
	InventoryValue float64     `json:"inventory_value" db:"inventory_value"`
	DaysOfSupply   NullFloat64 `json:"days_of_supply" db:"days_of_supply"`
	InventoryTurns NullFloat64 `json:"inventory_turnover" db:"inventory_turnover"`
}

// KPISnapshot is the current-state aggregate.
type KPISnapshot struct {
	FillRate            NullFloat64 `json:"fill_rate" db:"fill_rate"`
	AvgInventoryTurns   NullFloat64 `json:"avg_inventory_turnover" db:"avg_inventory_turnover"`
	TotalInventoryValue float64     `json:"total_inventory_value" db:"total_inventory_value"`
	AvgDaysOfSupply     NullFloat64 `json:"avg_days_of_supply" db:"avg_days_of_supply"`
	StockoutEvents      int         `json:"stockout_events" db:"stockout_events"`
}

// KPIResult bundles per-row KPIs and the snapshot.
type KPIResult struct {
	Records  []KPIRecord `json:"records"`
	Snapshot KPISnapshot `json:"snapshot"`
}

// CostBenefit compares current practice with the proposed policy.
type CostBenefit struct {
	CurrentInventoryValue  float64     `json:"current_inventory_value" db:"current_inventory_value"`
	ProposedInventoryValue float64     `json:"proposed_inventory_value" db:"proposed_inventory_value"`
	InventoryReduction     float64     `json:"inventory_reduction" db:"inventory_reduction"`
	HoldingCostSavings     float64     `json:"holding_cost_savings" db:"holding_cost_savings"`
	CurrentFillRate        float64     `json:"current_fill_rate" db:"current_fill_rate"`
	TargetFillRate         float64     `json:"target_fill_rate" db:"target_fill_rate"`
	CurrentAnnualRevenue   float64     `json:"current_annual_revenue" db:"current_annual_revenue"`
	RevenueUplift          float64     `json:"revenue_uplift" db:"revenue_uplift"`
	TotalAnnualSavings     float64     `json:"total_annual_savings" db:"total_annual_savings"`
	ImplementationCost     float64     `json:"implementation_cost" db:"implementation_cost"`
	ROIPercent             NullFloat64 `json:"roi_percent" db:"roi_percent"`
	PaybackMonths          NullFloat64 `json:"payback_months" db:"payback_months"`
}

// WorkingCapital applies the opportunity-cost view to the inventory reduction.
type WorkingCapital struct {
	CurrentWorkingCapital  float64     `json:"current_working_capital" db:"current_working_capital"`
	ProposedWorkingCapital float64     `json:"proposed_working_capital" db:"proposed_working_capital"`
	Reduction              float64     `json:"working_capital_reduction" db:"working_capital_reduction"`
	ReductionPercent       NullFloat64 `json:"reduction_percentage" db:"reduction_percentage"`
	OpportunitySavings     float64     `json:"annual_opportunity_savings" db:"annual_opportunity_savings"`
}

// SimulationTrace is the outcome of simulating one store-SKU.
type SimulationTrace struct {
	StoreID       string  `json:"store_id" db:"store_id"`
	SKUID         string  `json:"sku_id" db:"sku_id"`
	TotalDemand   int     `json:"total_demand" db:"total_demand"`
	TotalSales    float64 `json:"total_sales" db:"total_sales"`
	StockoutDays  int     `json:"stockout_days" db:"stockout_days"`
	FillRate      float64 `json:"fill_rate" db:"fill_rate"`
	OrdersPlaced  int     `json:"orders_placed" db:"orders_placed"`
	StartingStock float64 `json:"starting_stock" db:"starting_stock"`
	EndingStock   float64 `json:"ending_stock" db:"ending_stock"`
}

// SimulationSummary aggregates traces.
type SimulationSummary struct {
	Days                int     `json:"days"`
	SKUsSimulated       int     `json:"skus_simulated"`
	Skipped             int     `json:"skipped"`
	AvgFillRate         float64 `json:"avg_fill_rate"`
	TotalStockoutDays   int     `json:"total_stockout_days"`
	TotalOrdersPlaced   int     `json:"total_orders_placed"`
	SKUsWithStockouts   int     `json:"skus_with_stockouts"`
	PerfectFillRateSKUs int     `json:"perfect_fill_rate_skus"`
}

// SimulationResult bundles traces and the summary.
type SimulationResult struct {
	Seed    int64             `json:"seed"`
	Traces  []SimulationTrace `json:"traces"`
	Summary SimulationSummary `json:"summary"`
}

// DemandForecast projects a moving average over a horizon.
type DemandForecast struct {
	StoreID          string  `json:"store_id" db:"store_id"`
	SKUID            string  `json:"sku_id" db:"sku_id"`
	WindowDays       int     `json:"window_days" db:"window_days"`
	DailyForecast    float64 `json:"daily_forecast" db:"daily_forecast"`
	HorizonDays      int     `json:"horizon_days" db:"horizon_days"`
	ForecastQuantity float64 `json:"forecast_quantity" db:"forecast_quantity"`
}
