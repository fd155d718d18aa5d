package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Tolerance is the absolute difference under which two quantities are equal
const Tolerance = 0.0001

// Resources is a fixed-length vector of resource quantities.
//
// The zero value is an absent vector: it has no dimension and every
// operation other than IsZero panics on it. Use NewResources to build one.
type Resources struct {
	values []float64
}

// NewResources creates a vector holding a copy of values
func NewResources(values ...float64) Resources {
	v := make([]float64, len(values))
	copy(v, values)
	return Resources{values: v}
}

// Zeros creates a vector of the given dimension filled with zero
func Zeros(n int) Resources {
	return Resources{values: make([]float64, n)}
}

// IsZero reports whether the vector is absent
func (r Resources) IsZero() bool {
	return r.values == nil
}

// Len returns the dimension of the vector
func (r Resources) Len() int {
	return len(r.values)
}

// Get returns the quantity at a position
func (r Resources) Get(i int) float64 {
	return r.values[i]
}

// Values returns a copy of all quantities
func (r Resources) Values() []float64 {
	v := make([]float64, len(r.values))
	copy(v, r.values)
	return v
}

// Clone returns an independent copy of the vector
func (r Resources) Clone() Resources {
	if r.values == nil {
		return Resources{}
	}
	return NewResources(r.values...)
}

// SufficientFor reports whether every position is at least the one in other
func (r Resources) SufficientFor(other Resources) bool {
	r.mustMatch(other)
	for i, v := range r.values {
		if v < other.values[i] {
			return false
		}
	}
	return true
}

// HasNegative reports whether any position is below zero
func (r Resources) HasNegative() bool {
	for _, v := range r.values {
		if v < 0 {
			return true
		}
	}
	return false
}

// Debit subtracts price when every position can afford it.
// Returns false and leaves the vector untouched otherwise.
func (r *Resources) Debit(price Resources) bool {
	if !r.SufficientFor(price) {
		return false
	}
	for i := range r.values {
		r.values[i] -= price.values[i]
	}
	return true
}

// Credit adds delta, keeping each position within [0, limit]
func (r *Resources) Credit(delta, limit Resources) {
	r.mustMatch(delta)
	r.mustMatch(limit)
	for i := range r.values {
		r.values[i] = clamp(r.values[i]+delta.values[i], limit.values[i])
	}
}

// Accrue adds ratio (per second) over elapsedMillis, keeping each position within [0, limit]
func (r *Resources) Accrue(ratio Resources, elapsedMillis int64, limit Resources) {
	r.mustMatch(ratio)
	r.mustMatch(limit)
	seconds := float64(elapsedMillis) * 0.001
	for i := range r.values {
		r.values[i] = clamp(r.values[i]+ratio.values[i]*seconds, limit.values[i])
	}
}

// Take removes up to amount from every position and returns what was removed.
// A position never goes below zero and never gives more than it holds.
func (r *Resources) Take(amount Resources) Resources {
	r.mustMatch(amount)
	taken := Zeros(len(r.values))
	for i, want := range amount.values {
		if want <= 0 {
			continue
		}
		got := want
		if r.values[i] < want {
			got = r.values[i]
		}
		if got < 0 {
			got = 0
		}
		taken.values[i] = got
		r.values[i] -= got
		if r.values[i] < 0 {
			r.values[i] = 0
		}
	}
	return taken
}

// Set overwrites every position with the ones from other
func (r *Resources) Set(other Resources) {
	r.mustMatch(other)
	copy(r.values, other.values)
}

// Equal compares two vectors position by position within Tolerance
func (r Resources) Equal(other Resources) bool {
	if len(r.values) != len(other.values) || r.IsZero() != other.IsZero() {
		return false
	}
	for i, v := range r.values {
		d := v - other.values[i]
		if d > Tolerance || d < -Tolerance {
			return false
		}
	}
	return true
}

// String returns the exact quantities, comma separated
func (r Resources) String() string {
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (r Resources) mustMatch(other Resources) {
	if r.values == nil || other.values == nil {
		panic("models: absent resource vector")
	}
	if len(r.values) != len(other.values) {
		panic(fmt.Sprintf("models: resource vector length mismatch: %d vs %d", len(r.values), len(other.values)))
	}
}

// clamp keeps v within [0, limit]
func clamp(v, limit float64) float64 {
	if v > limit {
		v = limit
	}
	if v < 0 {
		v = 0
	}
	return v
}
