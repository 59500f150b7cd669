package risk

import (
	"strings"
	"testing"

	"github.com/h1-hospital/telemetry-gateway/internal/fhir"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/config"
)

func defaultThresholds() config.RiskConfig {
	return config.RiskConfig{
		HeartRateEmergencyHigh:  150,
		HeartRateEmergencyLow:   40,
		HeartRatePreventiveHigh: 120,
		HeartRatePreventiveLow:  50,
		SpO2Emergency:           88,
		SpO2Preventive:          92,
	}
}

func sample(hr, spo2 float64) fhir.Vitals {
	return fhir.Vitals{HeartRate: hr, OxygenSaturation: spo2}
}

// TestClassifyBoundaries tests every documented threshold boundary
func TestClassifyBoundaries(t *testing.T) {
	c := NewThresholdClassifier(defaultThresholds())

	tests := []struct {
		name        string
		vitals      fhir.Vitals
		category    Category
		probability float64
	}{
		{"hr at emergency high bound", sample(150, 98), CategoryEmergency, 0.85},
		{"hr just below emergency high", sample(149, 98), CategoryPreventive, 0.45},
		{"hr far above emergency high", sample(180, 98), CategoryEmergency, 0.85},
		{"hr at emergency low bound", sample(40, 98), CategoryEmergency, 0.85},
		{"hr just above emergency low", sample(41, 98), CategoryPreventive, 0.45},
		{"hr at preventive high bound", sample(120, 98), CategoryPreventive, 0.45},
		{"hr just below preventive high", sample(119, 98), CategoryNormal, 0.12},
		{"hr at preventive low bound", sample(50, 98), CategoryNormal, 0.12},
		{"hr just below preventive low", sample(49, 98), CategoryPreventive, 0.45},
		{"spo2 below emergency bound", sample(75, 87), CategoryEmergency, 0.85},
		{"spo2 at emergency bound", sample(75, 88), CategoryPreventive, 0.45},
		{"spo2 below preventive bound", sample(75, 91), CategoryPreventive, 0.45},
		{"spo2 at preventive bound", sample(75, 92), CategoryNormal, 0.12},
		{"resting normal", sample(75, 98), CategoryNormal, 0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(tt.vitals)
			if v.Category != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, v.Category)
			}
			if v.Probability != tt.probability {
				t.Errorf("Expected probability %v, got %v", tt.probability, v.Probability)
			}
			if v.Rationale == "" {
				t.Error("Expected a rationale")
			}
		})
	}
}

// TestClassifyDeterministic tests that identical input yields an
// identical verdict
func TestClassifyDeterministic(t *testing.T) {
	c := NewThresholdClassifier(defaultThresholds())
	in := sample(132, 95)

	first := c.Classify(in)
	for i := 0; i < 10; i++ {
		if got := c.Classify(in); got != first {
			t.Fatalf("Expected stable verdict %+v, got %+v", first, got)
		}
	}
}

// TestClassifyRationaleNamesVital tests that the rationale names the
// triggering vital and its value
func TestClassifyRationaleNamesVital(t *testing.T) {
	c := NewThresholdClassifier(defaultThresholds())

	v := c.Classify(sample(180, 98))
	if !strings.Contains(v.Rationale, "heart rate") || !strings.Contains(v.Rationale, "180") {
		t.Errorf("Expected rationale to name heart rate and value, got %q", v.Rationale)
	}

	v = c.Classify(sample(75, 85))
	if !strings.Contains(v.Rationale, "oxygen saturation") || !strings.Contains(v.Rationale, "85") {
		t.Errorf("Expected rationale to name oxygen saturation and value, got %q", v.Rationale)
	}
}

// TestBuildAssessment tests the RiskAssessment resource shape
func TestBuildAssessment(t *testing.T) {
	c := NewThresholdClassifier(defaultThresholds())
	verdict := c.Classify(sample(180, 98))

	ra := BuildAssessment("Patient/p1", "Observation/o1", verdict)

	if ra.ResourceType != "RiskAssessment" || ra.Status != "final" {
		t.Errorf("Unexpected resource header: %s/%s", ra.ResourceType, ra.Status)
	}
	if ra.ID == "" {
		t.Error("Expected a generated id")
	}
	if ra.Subject.Reference != "Patient/p1" {
		t.Errorf("Expected subject Patient/p1, got %s", ra.Subject.Reference)
	}
	if len(ra.Basis) != 1 || ra.Basis[0].Reference != "Observation/o1" {
		t.Errorf("Expected basis Observation/o1, got %+v", ra.Basis)
	}
	if len(ra.Prediction) != 1 {
		t.Fatalf("Expected exactly one prediction, got %d", len(ra.Prediction))
	}
	p := ra.Prediction[0]
	if p.ProbabilityDecimal != 0.85 {
		t.Errorf("Expected probability 0.85, got %v", p.ProbabilityDecimal)
	}
	if p.QualitativeRisk.Coding[0].Code != "high" {
		t.Errorf("Expected high qualitative risk, got %s", p.QualitativeRisk.Coding[0].Code)
	}
	if p.Outcome.Text != verdict.Rationale {
		t.Errorf("Expected outcome text %q, got %q", verdict.Rationale, p.Outcome.Text)
	}
}

// TestQualitativeRiskMapping tests the category to coding mapping
func TestQualitativeRiskMapping(t *testing.T) {
	tests := []struct {
		category Category
		code     string
	}{
		{CategoryEmergency, "high"},
		{CategoryPreventive, "moderate"},
		{CategoryNormal, "low"},
	}
	for _, tt := range tests {
		if got := qualitativeRiskCode(tt.category).Code; got != tt.code {
			t.Errorf("Category %s: expected code %s, got %s", tt.category, tt.code, got)
		}
	}
}
