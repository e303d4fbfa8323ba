package domain

import "strings"

// DemandPattern buckets a store-SKU by coefficient of variation.
type DemandPattern string

const (
	PatternStable         DemandPattern = "Stable"
	PatternModerate       DemandPattern = "Moderate"
	PatternHighlyVariable DemandPattern = "Highly Variable"
)

// ABCClass is the revenue-contribution tier of a SKU.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ABCClasses lists the classes in reporting order.
var ABCClasses = []ABCClass{ClassA, ClassB, ClassC}

// ParseABCClass returns the class for a label (case-insensitive).
func ParseABCClass(label string) (ABCClass, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "A":
		return ClassA, true
	case "B":
		return ClassB, true
	case "C":
		return ClassC, true
	}
	return "", false
}

// PolicyStatus explains how a policy row was computed.
type PolicyStatus string

const (
	PolicyOK                PolicyStatus = "ok"
	PolicyZeroHoldingCost   PolicyStatus = "zero_holding_cost"
	PolicyMissingAttributes PolicyStatus = "missing_attributes"
	PolicyUnclassified      PolicyStatus = "unclassified"
)

var policyStatusLabels = map[PolicyStatus]string{
	PolicyOK:                "Computed",
	PolicyZeroHoldingCost:   "Zero holding cost (EOQ fallback 0)",
	PolicyMissingAttributes: "Missing SKU attributes",
	PolicyUnclassified:      "SKU not classified",
}

// Label returns a human-readable label for the status.
func (s PolicyStatus) Label() string {
	if label, ok := policyStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Simulatable reports whether the policy carries usable quantities.
func (s PolicyStatus) Simulatable() bool {
	return s == PolicyOK || s == PolicyZeroHoldingCost
}
