package pipeline

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
)

// Stage names used for metrics and logs.
const (
	StageDemand         = "demand"
	StageABC            = "abc"
	StageKPI            = "kpi"
	StagePolicy         = "policy"
	StageCostBenefit    = "cost_benefit"
	StageWorkingCapital = "working_capital"
	StageSimulation     = "simulation"
)

// Input is a single analysis request.
type Input struct {
	Dataset ingest.Dataset   `json:"dataset"`
	Params  inventory.Params `json:"params"`
	// Seed drives the simulation demand draws. Callers resolve a zero seed
	// before building the Input.
	Seed int64 `json:"seed"`
}

// Hash identifies the input for caching. Two inputs with the same dataset,
// parameters and seed hash to the same value.
func (in Input) Hash() (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}

// Result collects every stage output of one run.
type Result struct {
	RunID       string           `json:"run_id"`
	InputHash   string           `json:"input_hash"`
	Seed        int64            `json:"seed"`
	Params      inventory.Params `json:"params"`
	GeneratedAt time.Time        `json:"generated_at"`

	Demand         []domain.DemandRecord   `json:"demand"`
	Forecast       []domain.DemandForecast `json:"forecast"`
	ABC            domain.ABCResult        `json:"abc"`
	KPI            domain.KPIResult        `json:"kpi"`
	Policies       []domain.Policy         `json:"policies"`
	SKUPolicies    []domain.SKUPolicy      `json:"sku_policies"`
	CostBenefit    *domain.CostBenefit     `json:"cost_benefit"`
	WorkingCapital domain.WorkingCapital   `json:"working_capital"`
	Simulation     domain.SimulationResult `json:"simulation"`

	// Warnings lists recoverable conditions, such as an undefined current
	// fill rate that left CostBenefit empty.
	Warnings []string `json:"warnings,omitempty"`
}

// RunStatus represents the current state of an analysis run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// AnalysisRun tracks a single execution of the orchestrator
type AnalysisRun struct {
	ID           int64
	RunID        string
	InputHash    string
	Seed         int64
	Status       RunStatus
	SalesRows    int
	StoreSKUs    int
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// RunStats holds aggregate figures over recent runs.
type RunStats struct {
	Runs            int64
	Failed          int64
	SalesRows       int64
	LastCompletedAt *time.Time
}
