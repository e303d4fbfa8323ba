package inventory

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive a run.
var ErrInvalidParams = errors.New("inventory: invalid parameters")

// DaysPerYear annualizes daily demand.
const DaysPerYear = 365

// Params holds the business constants shared by every stage.
type Params struct {
	HoldingCostRate     float64 `json:"holding_cost_rate"`
	OrderingCost        float64 `json:"ordering_cost"`
	ImplementationCost  float64 `json:"implementation_cost"`
	TargetFillRate      float64 `json:"target_fill_rate"`
	OpportunityCostRate float64 `json:"opportunity_cost_rate"`
	SimulationDays      int     `json:"simulation_days"`

	ServiceLevels  map[domain.ABCClass]float64 `json:"service_levels"`
	ClassABoundary float64                     `json:"class_a_boundary"`
	ClassBBoundary float64                     `json:"class_b_boundary"`
	FallbackZ      float64                     `json:"fallback_z"`

	// TurnoverAnnualization converts observed turnover to an annual figure.
	// The default of 4 assumes the sales history covers one quarter.
	TurnoverAnnualization float64 `json:"turnover_annualization"`

	StatPrecision   int `json:"stat_precision"`
	ForecastWindow  int `json:"forecast_window"`
	ForecastHorizon int `json:"forecast_horizon"`
}

// DefaultParams returns the standard business constants.
func DefaultParams() Params {
	return Params{
		HoldingCostRate:     0.25,
		OrderingCost:        50,
		ImplementationCost:  100000,
		TargetFillRate:      0.98,
		OpportunityCostRate: 0.12,
		SimulationDays:      21,
		ServiceLevels: map[domain.ABCClass]float64{
			domain.ClassA: 0.98,
			domain.ClassB: 0.95,
			domain.ClassC: 0.90,
		},
		ClassABoundary:        80,
		ClassBBoundary:        95,
		FallbackZ:             2.33,
		TurnoverAnnualization: 4,
		StatPrecision:         2,
		ForecastWindow:        7,
		ForecastHorizon:       30,
	}
}

// ServiceLevel returns the target service level for a class.
func (p Params) ServiceLevel(class domain.ABCClass) float64 {
	return p.ServiceLevels[class]
}

// Validate reports the first inconsistent field.
func (p Params) Validate() error {
	switch {
	case p.OrderingCost <= 0:
		return fmt.Errorf("%w: ordering cost must be positive, got %v", ErrInvalidParams, p.OrderingCost)
	case p.HoldingCostRate < 0 || p.HoldingCostRate > 1:
		return fmt.Errorf("%w: holding cost rate %v outside [0,1]", ErrInvalidParams, p.HoldingCostRate)
	case p.TargetFillRate < 0 || p.TargetFillRate > 1:
		return fmt.Errorf("%w: target fill rate %v outside [0,1]", ErrInvalidParams, p.TargetFillRate)
	case p.OpportunityCostRate < 0 || p.OpportunityCostRate > 1:
		return fmt.Errorf("%w: opportunity cost rate %v outside [0,1]", ErrInvalidParams, p.OpportunityCostRate)
	case p.ImplementationCost < 0:
		return fmt.Errorf("%w: implementation cost must not be negative", ErrInvalidParams)
	case p.SimulationDays <= 0:
		return fmt.Errorf("%w: simulation horizon must be at least one day", ErrInvalidParams)
	case p.ClassABoundary <= 0 || p.ClassABoundary > p.ClassBBoundary || p.ClassBBoundary > 100:
		return fmt.Errorf("%w: class boundaries %v/%v", ErrInvalidParams, p.ClassABoundary, p.ClassBBoundary)
	case p.FallbackZ <= 0:
		return fmt.Errorf("%w: fallback z must be positive", ErrInvalidParams)
	case p.TurnoverAnnualization <= 0:
		return fmt.Errorf("%w: turnover annualization must be positive", ErrInvalidParams)
	case p.StatPrecision < 0:
		return fmt.Errorf("%w: stat precision must not be negative", ErrInvalidParams)
	case p.ForecastWindow <= 0 || p.ForecastHorizon <= 0:
		return fmt.Errorf("%w: forecast window and horizon must be positive", ErrInvalidParams)
	}
	for _, class := range domain.ABCClasses {
		if _, ok := p.ServiceLevels[class]; !ok {
			return fmt.Errorf("%w: missing service level for class %s", ErrInvalidParams, class)
		}
	}
	return nil
}
