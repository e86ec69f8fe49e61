package domain

import (
	"errors"
	"testing"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Value
	}{
		{"Lower yes", "y", Yes},
		{"Upper yes", "Y", Yes},
		{"Lower no", "n", No},
		{"Upper no", "N", No},
		{"Padded", " y ", Yes},
		{"Blank", "", Missing},
		{"Dot", ".", Missing},
		{"Word", "yes", Missing},
		{"Digit", "1", Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMarker(tt.raw); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	if Yes.String() != "1" || No.String() != "0" || Missing.String() != "" {
		t.Errorf("Unexpected renderings: %q %q %q", Yes.String(), No.String(), Missing.String())
	}
}

func TestParsePrevalence(t *testing.T) {
	tests := []struct {
		raw      string
		expected Prevalence
	}{
		{"h", PrevalenceHigh},
		{"H", PrevalenceHigh},
		{"high", PrevalenceHigh},
		{"l", PrevalenceLow},
		{"Low", PrevalenceLow},
		{"v", PrevalenceVeryLow},
		{"very-low", PrevalenceVeryLow},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrevalence("malaria", tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}

	_, err := ParsePrevalence("malaria", "medium")
	var settingErr *InvalidSettingError
	if !errors.As(err, &settingErr) {
		t.Fatalf("Expected InvalidSettingError, got %v", err)
	}
	if settingErr.Setting != "malaria" || settingErr.Value != "medium" {
		t.Errorf("Unexpected error fields: %+v", settingErr)
	}
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		raw      string
		expected OutputMode
	}{
		{"", OutputClassic},
		{"classic", OutputClassic},
		{"compact", OutputClassic},
		{"EXTENDED", OutputExtended},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseOutputMode(tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}

	if _, err := ParseOutputMode("wide"); err == nil {
		t.Error("Expected an error for an unknown mode")
	}
}

func TestResultHasID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"d1", true},
		{"", false},
		{"  ", false},
		{"NaN", false},
		{"NA", false},
	}

	for _, tt := range tests {
		r := &Result{ID: tt.id}
		if r.HasID() != tt.expected {
			t.Errorf("HasID(%q): expected %t", tt.id, tt.expected)
		}
	}
}

func TestResultProbability(t *testing.T) {
	r := &Result{Probabilities: []CauseProbability{{Cause: "Malaria", Probability: 0.25}}}

	if p, ok := r.Probability("Malaria"); !ok || p != 0.25 {
		t.Errorf("Expected 0.25, got %v (%t)", p, ok)
	}
	if _, ok := r.Probability("Tetanus"); ok {
		t.Error("Unknown cause should not be found")
	}
}
