package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexBool accepts JSON booleans, numbers, and common string spellings.
// Planner clients historically sent "true"/"1"/1/true interchangeably, so the
// coercion happens once at the request boundary.
type FlexBool struct {
	Set   bool
	Value bool
}

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = FlexBool{}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexBool{Set: true, Value: b}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexBool{Set: true, Value: n != 0}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "y", "on":
			*f = FlexBool{Set: true, Value: true}
			return nil
		case "false", "0", "no", "n", "off", "":
			*f = FlexBool{Set: true, Value: false}
			return nil
		}
		return fmt.Errorf("cannot interpret %q as bool", s)
	}

	return fmt.Errorf("cannot interpret %s as bool", raw)
}

func (f FlexBool) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Or returns the coerced value, or fallback when the field was absent/null.
func (f FlexBool) Or(fallback bool) bool {
	if !f.Set {
		return fallback
	}
	return f.Value
}

// FlexFloat accepts JSON numbers and numeric strings.
type FlexFloat struct {
	Set   bool
	Value float64
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = FlexFloat{}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat{Set: true, Value: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*f = FlexFloat{}
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("cannot interpret %q as number", s)
		}
		*f = FlexFloat{Set: true, Value: parsed}
		return nil
	}

	return fmt.Errorf("cannot interpret %s as number", raw)
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Clamped returns the value bounded to [min, max].
func (f FlexFloat) Clamped(min, max float64) float64 {
	v := f.Value
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Ptr returns the value as a pointer, nil when absent.
func (f FlexFloat) Ptr() *float64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}
