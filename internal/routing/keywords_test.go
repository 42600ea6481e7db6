package routing

import (
	"testing"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

func TestClassifyTextEmpty(t *testing.T) {
	result := ClassifyText("")
	if len(result.Keywords) != 0 {
		t.Errorf("expected no keywords, got %v", result.Keywords)
	}
	if result.Department != "" {
		t.Errorf("expected empty department, got %s", result.Department)
	}
	if result.Priority != types.PriorityNormal {
		t.Errorf("expected normal priority, got %s", result.Priority)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", result.Confidence)
	}
}

func TestClassifyTextTable(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		department string
		priority   types.Priority
		confidence float64
	}{
		{
			name:       "billing whole word",
			text:       "I have a question about my billing",
			department: "billing",
			priority:   types.PriorityNormal,
			confidence: 0.8,
		},
		{
			name:       "urgent keyword scores priority bonus",
			text:       "this is urgent",
			department: "support",
			priority:   types.PriorityUrgent,
			confidence: 1.0,
		},
		{
			name:       "substring only match",
			text:       "the waterline by the street",
			department: "utilities",
			priority:   types.PriorityNormal,
			confidence: 0.5,
		},
		{
			name:       "case insensitive",
			text:       "NEED A QUOTE ASAP",
			department: "sales",
			priority:   types.PriorityNormal,
			confidence: 0.8,
		},
		{
			name:       "no match",
			text:       "hello there",
			department: "",
			priority:   types.PriorityNormal,
			confidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyText(tt.text)
			if result.Department != tt.department {
				t.Errorf("department = %s, want %s", result.Department, tt.department)
			}
			if result.Priority != tt.priority {
				t.Errorf("priority = %s, want %s", result.Priority, tt.priority)
			}
			if result.Confidence != tt.confidence {
				t.Errorf("confidence = %f, want %f", result.Confidence, tt.confidence)
			}
		})
	}
}

func TestClassifyTextGasEmergency(t *testing.T) {
	result := ClassifyText("I smell gas, this is an emergency")

	if result.Priority != types.PriorityUrgent {
		t.Fatalf("priority = %s, want urgent", result.Priority)
	}
	// Both "gas" and "emergency" match at full confidence; the
	// alphabetically earlier entry wins the tie.
	if result.Department != "emergency" {
		t.Errorf("department = %s, want emergency", result.Department)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", result.Confidence)
	}

	found := map[string]bool{}
	for _, kw := range result.Keywords {
		found[kw] = true
	}
	if !found["gas"] || !found["emergency"] {
		t.Errorf("keywords = %v, want both gas and emergency", result.Keywords)
	}
}

func TestClassifyTextDeterministic(t *testing.T) {
	text := "gas emergency at the house"
	first := ClassifyText(text)
	for i := 0; i < 20; i++ {
		again := ClassifyText(text)
		if again.Department != first.Department || again.Confidence != first.Confidence {
			t.Fatalf("classification changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestIsWholeWord(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"gas leak", "gas", true},
		{"gaslight", "gas", false},
		{"the gas.", "gas", true},
		{"degassing gas", "gas", true},
		{"degassing", "gas", false},
	}
	for _, tt := range tests {
		if got := isWholeWord(tt.text, tt.keyword); got != tt.want {
			t.Errorf("isWholeWord(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.want)
		}
	}
}
