// Package measure holds the optional numeric value used for every signal,
// agreement percentage and score. A missing value is distinct from zero and
// survives every transform as missing.
package measure

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a float that may be absent. The zero Value is missing.
type Value struct {
	Float float64
	Valid bool
}

// Of returns a present value. NaN and infinities are treated as missing.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// Missing returns an absent value.
func Missing() Value { return Value{} }

// Or returns the float when present and fallback otherwise.
func (v Value) Or(fallback float64) float64 {
	if !v.Valid {
		return fallback
	}
	return v.Float
}

// Ptr returns nil for a missing value.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

// FromPtr is the inverse of Ptr.
func FromPtr(p *float64) Value {
	if p == nil {
		return Value{}
	}
	return Of(*p)
}

// String renders missing as the empty string, matching CSV export.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// Format renders with fixed precision, or "N/A" when missing.
func (v Value) Format(prec int) string {
	if !v.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(v.Float, 'f', prec, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}

// Floats returns the present values in order.
func Floats(values []Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.Float)
		}
	}
	return out
}

// CountValid counts present values.
func CountValid(values []Value) int {
	n := 0
	for _, v := range values {
		if v.Valid {
			n++
		}
	}
	return n
}
