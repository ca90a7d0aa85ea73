package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsValidMilestoneTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{MilestoneStatusPending, MilestoneStatusSubmitted, true},
		{MilestoneStatusSubmitted, MilestoneStatusPaid, true},
		{MilestoneStatusSubmitted, MilestoneStatusRejected, true},
		{MilestoneStatusRejected, MilestoneStatusSubmitted, true},

		// paid is terminal
		{MilestoneStatusPaid, MilestoneStatusSubmitted, false},
		{MilestoneStatusPaid, MilestoneStatusRejected, false},
		{MilestoneStatusPaid, MilestoneStatusPending, false},

		// Invalid jumps
		{MilestoneStatusPending, MilestoneStatusPaid, false},
		{MilestoneStatusPending, MilestoneStatusRejected, false},
		{MilestoneStatusRejected, MilestoneStatusPaid, false},
		{"nonexistent", MilestoneStatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidMilestoneTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidMilestoneTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestMilestoneAmountsMatch(t *testing.T) {
	ms := func(amounts ...string) []Milestone {
		var out []Milestone
		for _, a := range amounts {
			d, _ := decimal.NewFromString(a)
			out = append(out, Milestone{Amount: d})
		}
		return out
	}

	tests := []struct {
		name       string
		total      string
		milestones []Milestone
		expected   bool
	}{
		{"exact match", "1000.00", ms("400.00", "600.00"), true},
		{"single milestone", "250.50", ms("250.50"), true},
		{"under total", "1000.00", ms("400.00", "599.99"), false},
		{"over total", "1000.00", ms("400.00", "600.01"), false},
		{"no milestones zero total", "0", nil, true},
		{"no milestones nonzero total", "100", nil, false},
		{"scale differences still equal", "1000", ms("999.90", "0.10"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, _ := decimal.NewFromString(tt.total)
			result := MilestoneAmountsMatch(total, tt.milestones)
			if result != tt.expected {
				t.Errorf("MilestoneAmountsMatch(%s) = %v, want %v", tt.total, result, tt.expected)
			}
		})
	}
}
