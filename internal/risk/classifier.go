package risk

import (
	"fmt"

	"github.com/h1-hospital/telemetry-gateway/internal/fhir"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/config"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/types"
)

// Category is the qualitative risk of one vitals snapshot
type Category string

const (
	CategoryNormal     Category = "normal"
	CategoryPreventive Category = "preventive"
	CategoryEmergency  Category = "emergency"
)

// Fixed per-category probabilities, placeholders for a real model
const (
	probabilityEmergency  = 0.85
	probabilityPreventive = 0.45
	probabilityNormal     = 0.12
)

// Verdict is one classification outcome
type Verdict struct {
	Category    Category `json:"category"`
	Probability float64  `json:"probability"`
	Rationale   string   `json:"rationale"`
}

// Classifier maps a vitals snapshot to a risk verdict. Implementations
// must be pure and deterministic: identical input always yields an
// identical verdict. The threshold ladder below is the injectable
// placeholder for a real model.
type Classifier interface {
	Classify(v fhir.Vitals) Verdict
}

// ThresholdClassifier applies fixed threshold rules over heart rate and
// oxygen saturation.
type ThresholdClassifier struct {
	cfg config.RiskConfig
}

// NewThresholdClassifier creates a classifier with the given thresholds
func NewThresholdClassifier(cfg config.RiskConfig) *ThresholdClassifier {
	return &ThresholdClassifier{cfg: cfg}
}

// Classify is total over all numeric inputs: exactly one category comes
// back for any sample. Emergency bounds are inclusive (hr >= 150,
// hr <= 40, spo2 < 88 by default); preventive bounds are hr >= 120,
// hr < 50, spo2 < 92.
func (c *ThresholdClassifier) Classify(v fhir.Vitals) Verdict {
	switch {
	case v.HeartRate >= c.cfg.HeartRateEmergencyHigh:
		return Verdict{
			Category:    CategoryEmergency,
			Probability: probabilityEmergency,
			Rationale:   fmt.Sprintf("heart rate critically high at %.0f bpm", v.HeartRate),
		}
	case v.HeartRate <= c.cfg.HeartRateEmergencyLow:
		return Verdict{
			Category:    CategoryEmergency,
			Probability: probabilityEmergency,
			Rationale:   fmt.Sprintf("heart rate critically low at %.0f bpm", v.HeartRate),
		}
	case v.OxygenSaturation < c.cfg.SpO2Emergency:
		return Verdict{
			Category:    CategoryEmergency,
			Probability: probabilityEmergency,
			Rationale:   fmt.Sprintf("oxygen saturation critically low at %.0f%%", v.OxygenSaturation),
		}
	case v.HeartRate >= c.cfg.HeartRatePreventiveHigh:
		return Verdict{
			Category:    CategoryPreventive,
			Probability: probabilityPreventive,
			Rationale:   fmt.Sprintf("heart rate elevated at %.0f bpm", v.HeartRate),
		}
	case v.HeartRate < c.cfg.HeartRatePreventiveLow:
		return Verdict{
			Category:    CategoryPreventive,
			Probability: probabilityPreventive,
			Rationale:   fmt.Sprintf("heart rate low at %.0f bpm", v.HeartRate),
		}
	case v.OxygenSaturation < c.cfg.SpO2Preventive:
		return Verdict{
			Category:    CategoryPreventive,
			Probability: probabilityPreventive,
			Rationale:   fmt.Sprintf("oxygen saturation low at %.0f%%", v.OxygenSaturation),
		}
	default:
		return Verdict{
			Category:    CategoryNormal,
			Probability: probabilityNormal,
			Rationale:   fmt.Sprintf("vitals within normal bands, heart rate %.0f bpm", v.HeartRate),
		}
	}
}

// qualitativeRiskCode maps a category to the FHIR risk-probability coding
func qualitativeRiskCode(cat Category) fhir.Coding {
	switch cat {
	case CategoryEmergency:
		return fhir.Coding{System: fhir.RiskSystem, Code: "high", Display: "High likelihood"}
	case CategoryPreventive:
		return fhir.Coding{System: fhir.RiskSystem, Code: "moderate", Display: "Moderate likelihood"}
	default:
		return fhir.Coding{System: fhir.RiskSystem, Code: "low", Display: "Low likelihood"}
	}
}

// BuildAssessment documents a verdict as a RiskAssessment resource. The
// basis points at the Observation that triggered the classification,
// either in the same transaction or already persisted.
func BuildAssessment(subjectRef, basisRef string, v Verdict) fhir.RiskAssessment {
	return fhir.RiskAssessment{
		ResourceType: "RiskAssessment",
		ID:           types.NewID().String(),
		Status:       "final",
		Subject:      fhir.Reference{Reference: subjectRef},
		Prediction: []fhir.RiskPrediction{{
			Outcome:            fhir.CodeableConcept{Text: v.Rationale},
			ProbabilityDecimal: v.Probability,
			QualitativeRisk:    fhir.CodeableConcept{Coding: []fhir.Coding{qualitativeRiskCode(v.Category)}},
		}},
		Basis: []fhir.Reference{{Reference: basisRef}},
	}
}
