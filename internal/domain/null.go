package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"math"
)

// NullFloat64 marks a derived quantity that may be undefined, e.g. a ratio
// whose denominator was zero or a cost that depends on a missing join.
// Undefined values serialize as JSON null and SQL NULL.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Defined wraps v as a valid value. NaN and infinities collapse to undefined.
func Defined(v float64) NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat64{}
	}
	return NullFloat64{Float64: v, Valid: true}
}

// Undefined returns the zero NullFloat64.
func Undefined() NullFloat64 {
	return NullFloat64{}
}

// ValueOr returns the wrapped value or fallback when undefined.
func (n NullFloat64) ValueOr(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Float64
}

// Ptr returns nil for undefined values.
func (n NullFloat64) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat64{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Defined(v)
	return nil
}

// Value implements driver.Valuer.
func (n NullFloat64) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Scan implements sql.Scanner.
func (n *NullFloat64) Scan(src any) error {
	var nf sql.NullFloat64
	if err := nf.Scan(src); err != nil {
		return err
	}
	if !nf.Valid {
		*n = NullFloat64{}
		return nil
	}
	*n = Defined(nf.Float64)
	return nil
}
