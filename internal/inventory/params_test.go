package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/replenish/internal/domain"
)

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero ordering cost", func(p *Params) { p.OrderingCost = 0 }},
		{"holding rate above one", func(p *Params) { p.HoldingCostRate = 1.5 }},
		{"negative target fill", func(p *Params) { p.TargetFillRate = -0.1 }},
		{"no simulation days", func(p *Params) { p.SimulationDays = 0 }},
		{"boundaries swapped", func(p *Params) { p.ClassABoundary, p.ClassBBoundary = 95, 80 }},
		{"missing class level", func(p *Params) { delete(p.ServiceLevels, domain.ClassB) }},
		{"zero forecast window", func(p *Params) { p.ForecastWindow = 0 }},
		{"negative stat precision", func(p *Params) { p.StatPrecision = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}
