package types

import (
	"encoding/json"
	"testing"
)

func TestFlexBoolUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		set   bool
		value bool
	}{
		{`true`, true, true},
		{`false`, true, false},
		{`1`, true, true},
		{`0`, true, false},
		{`"true"`, true, true},
		{`"0"`, true, false},
		{`"yes"`, true, true},
		{`null`, false, false},
	}

	for _, tt := range tests {
		var f FlexBool
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Fatalf("input %s: unexpected error %v", tt.input, err)
		}
		if f.Set != tt.set || f.Value != tt.value {
			t.Fatalf("input %s: got set=%v value=%v", tt.input, f.Set, f.Value)
		}
	}
}

func TestFlexBoolRejectsGarbage(t *testing.T) {
	var f FlexBool
	if err := json.Unmarshal([]byte(`"maybe"`), &f); err == nil {
		t.Fatal("expected error for unparseable bool string")
	}
}

func TestFlexFloatUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		set   bool
		value float64
	}{
		{`4.5`, true, 4.5},
		{`"4.5"`, true, 4.5},
		{`"  3 "`, true, 3},
		{`null`, false, 0},
		{`""`, false, 0},
	}

	for _, tt := range tests {
		var f FlexFloat
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Fatalf("input %s: unexpected error %v", tt.input, err)
		}
		if f.Set != tt.set || f.Value != tt.value {
			t.Fatalf("input %s: got set=%v value=%v", tt.input, f.Set, f.Value)
		}
	}
}

func TestFlexFloatClamped(t *testing.T) {
	f := FlexFloat{Set: true, Value: 11}
	if got := f.Clamped(0, 10); got != 10 {
		t.Fatalf("expected clamp to 10, got %v", got)
	}
	f.Value = -1
	if got := f.Clamped(0, 10); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestFlexFloatPtr(t *testing.T) {
	var absent FlexFloat
	if absent.Ptr() != nil {
		t.Fatal("expected nil pointer for absent value")
	}
	present := FlexFloat{Set: true, Value: 2}
	if p := present.Ptr(); p == nil || *p != 2 {
		t.Fatal("expected pointer to 2")
	}
}
