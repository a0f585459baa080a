package domain

import (
	"encoding/json"
	"math"
)

// Value is an optional float64. The zero Value is Missing.
type Value struct {
	v  float64
	ok bool
}

// Missing is the absent value.
var Missing = Value{}

// Present wraps v. NaN and infinities are not representable and become Missing.
func Present(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Value{v: v, ok: true}
}

// FromPtr converts a nullable database value.
func FromPtr(p *float64) Value {
	if p == nil {
		return Missing
	}
	return Present(*p)
}

// Get returns the wrapped value and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether v is absent.
func (v Value) IsMissing() bool { return !v.ok }

// Ptr returns nil for Missing.
func (v Value) Ptr() *float64 {
	if !v.ok {
		return nil
	}
	f := v.v
	return &f
}

// Map applies fn to a present value.
func (v Value) Map(fn func(float64) float64) Value {
	if !v.ok {
		return Missing
	}
	return Present(fn(v.v))
}

// Sub returns a - b, Missing if either is.
func Sub(a, b Value) Value {
	if !a.ok || !b.ok {
		return Missing
	}
	return Present(a.v - b.v)
}

// Ratio returns num / den. A zero denominator yields Missing.
func Ratio(num, den Value) Value {
	if !num.ok || !den.ok || den.v == 0 {
		return Missing
	}
	return Present(num.v / den.v)
}

// WeightedSum returns wa*a + wb*b, Missing if either operand is.
func WeightedSum(wa float64, a Value, wb float64, b Value) Value {
	if !a.ok || !b.ok {
		return Missing
	}
	return Present(wa*a.v + wb*b.v)
}

// MarshalJSON renders Missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON accepts null or a number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var p *float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = FromPtr(p)
	return nil
}
