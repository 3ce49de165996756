package features

import (
	"math"
	"strconv"
	"strings"
)

// Dimension names shared by records and catalog adapters.
const (
	Speed  = "speed"
	Spin   = "spin"
	BreakX = "break_x"
	BreakZ = "break_z"
)

// PitchDimensions is the canonical order of pitch features.
var PitchDimensions = []string{Speed, Spin, BreakX, BreakZ}

// Feature is one named numeric field. NaN and infinities are never valid.
type Feature struct {
	Name  string
	Value float64
	Valid bool
}

// Of returns a feature that is valid when value is finite.
func Of(name string, value float64) Feature {
	return Feature{Name: name, Value: value, Valid: !math.IsNaN(value) && !math.IsInf(value, 0)}
}

// Missing returns an absent feature.
func Missing(name string) Feature {
	return Feature{Name: name}
}

// Parse reads a table cell. Blank, unparseable and NaN cells are missing.
func Parse(name, raw string) Feature {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Missing(name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Missing(name)
	}
	return Of(name, value)
}

// Vector is an ordered set of features.
type Vector []Feature

// Get returns the value of a present feature.
func (v Vector) Get(name string) (float64, bool) {
	for _, f := range v {
		if f.Name == name && f.Valid && !math.IsNaN(f.Value) {
			return f.Value, true
		}
	}
	return 0, false
}

// Present lists the names of present features in vector order.
func (v Vector) Present() []string {
	out := make([]string, 0, len(v))
	for _, f := range v {
		if _, ok := v.Get(f.Name); ok && !contains(out, f.Name) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Has reports whether every name is present.
func (v Vector) Has(dims []string) bool {
	for _, name := range dims {
		if _, ok := v.Get(name); !ok {
			return false
		}
	}
	return true
}

// FeetToInches converts movement reported in feet to inches.
func FeetToInches(feet float64) float64 {
	return feet * 12
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
