package fhir

import (
	"fmt"
	"time"

	"github.com/h1-hospital/telemetry-gateway/internal/shared/config"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/errors"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/types"
)

// Vitals is one wearable sample: every scalar the device reports at once.
type Vitals struct {
	HeartRate            float64 `json:"heart_rate"`
	OxygenSaturation     float64 `json:"oxygen_saturation"`
	HeartRateVariability float64 `json:"heart_rate_variability"`
	Systolic             float64 `json:"systolic"`
	Diastolic            float64 `json:"diastolic"`
	RespiratoryRate      float64 `json:"respiratory_rate"`
	SleepHours           float64 `json:"sleep_hours"`
}

// Location is the optional GPS annotation attached to the BP panel.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// vitalCode maps one scalar vital to its fixed LOINC entry. The codes
// must match this table exactly for interoperability.
type vitalCode struct {
	code     string
	display  string
	unit     string
	unitCode string
}

var (
	heartRateCode   = vitalCode{"8867-4", "Heart rate", "beats/minute", "/min"}
	spo2Code        = vitalCode{"2708-6", "Oxygen saturation", "%", "%"}
	hrvCode         = vitalCode{"80404-7", "Heart rate variability (SDNN)", "ms", "ms"}
	sleepCode       = vitalCode{"9383-2", "Sleep duration", "h", "h"}
	respiratoryCode = vitalCode{"9279-1", "Respiratory rate", "breaths/minute", "/min"}
)

// Blood pressure panel codes
const (
	bpPanelCode     = "85354-9"
	bpSystolicCode  = "8480-6"
	bpDiastolicCode = "8462-4"
)

// BuildResult carries everything one build call produced. Resources are
// ordered so that upsert targets precede the resources referencing them.
type BuildResult struct {
	Resources []Resource
	// PatientID is the generated internal subject identity, used only
	// for same-submission cross references
	PatientID types.ID
	// HeartRateObservationID is the local id of the primary vital's
	// Observation, the basis of a later RiskAssessment
	HeartRateObservationID types.ID
}

// Builder produces well-formed FHIR resources with consistent cross
// references. All timestamps within one call are the same UTC instant.
type Builder struct {
	org config.OrgConfig
	now func() time.Time
}

// NewBuilder creates a resource builder for the configured organization
func NewBuilder(org config.OrgConfig) *Builder {
	return &Builder{org: org, now: time.Now}
}

// BuildVitalsResources converts one vitals sample into the full resource
// set: the Organization (replace semantics so repeated calls never
// duplicate it), the Patient, one Observation per scalar vital, and the
// blood pressure panel with its two components. The location annotation
// is attached to the panel when provided.
func (b *Builder) BuildVitalsResources(subjectExternalID, displayName string, v Vitals, loc *Location) (*BuildResult, error) {
	if subjectExternalID == "" {
		return nil, errors.Validation("subject id is required", nil)
	}
	if err := validateVitals(v); err != nil {
		return nil, err
	}

	patientID := types.NewID()
	timestamp := b.now().UTC().Format(time.RFC3339)

	org := Organization{
		ResourceType: "Organization",
		ID:           b.org.ID,
		Name:         b.org.Name,
		Type: []CodeableConcept{{
			Coding: []Coding{{System: OrgTypeSystem, Code: "prov", Display: "Healthcare Provider"}},
		}},
	}

	patient := Patient{
		ResourceType: "Patient",
		ID:           patientID.String(),
		Identifier:   []Identifier{{System: SubjectIDSystem, Value: subjectExternalID}},
		Name:         []HumanName{{Family: "User", Given: []string{displayName}}},
		Gender:       "unknown",
		ManagingOrganization: &Reference{
			Reference: "Organization/" + b.org.ID,
		},
	}

	hrObs := b.scalarObservation(patientID, heartRateCode, v.HeartRate, timestamp)

	resources := []Resource{
		org,
		patient,
		hrObs,
		b.scalarObservation(patientID, spo2Code, v.OxygenSaturation, timestamp),
		b.scalarObservation(patientID, hrvCode, v.HeartRateVariability, timestamp),
		b.scalarObservation(patientID, sleepCode, v.SleepHours, timestamp),
		b.scalarObservation(patientID, respiratoryCode, v.RespiratoryRate, timestamp),
		b.bloodPressurePanel(patientID, v, loc, timestamp),
	}

	return &BuildResult{
		Resources:              resources,
		PatientID:              patientID,
		HeartRateObservationID: hrObs.LocalID(),
	}, nil
}

// BuildCommunicationRequest builds a directed care team instruction for
// an already-persisted subject.
func (b *Builder) BuildCommunicationRequest(patientID types.ID, text, priority string) (CommunicationRequest, error) {
	if text == "" {
		return CommunicationRequest{}, errors.Validation("message text is required", nil)
	}
	if priority == "" {
		priority = "routine"
	}
	return CommunicationRequest{
		ResourceType: "CommunicationRequest",
		ID:           types.NewID().String(),
		Status:       "active",
		Priority:     priority,
		Subject:      Reference{Reference: "Patient/" + patientID.String()},
		Payload:      []CommunicationPayload{{ContentString: text}},
		AuthoredOn:   b.now().UTC().Format(time.RFC3339),
	}, nil
}

// BuildServiceRequest builds the stat resuscitation order justified by
// a RiskAssessment.
func (b *Builder) BuildServiceRequest(patientID types.ID, assessmentRef string) ServiceRequest {
	return ServiceRequest{
		ResourceType: "ServiceRequest",
		ID:           types.NewID().String(),
		Status:       "active",
		Intent:       "order",
		Priority:     "stat",
		Code: CodeableConcept{
			Coding: []Coding{{System: SNOMEDSystem, Code: "89666000", Display: "Cardiopulmonary resuscitation"}},
			Text:   "Start resuscitation",
		},
		Subject:         Reference{Reference: "Patient/" + patientID.String()},
		ReasonReference: []Reference{{Reference: assessmentRef}},
	}
}

func (b *Builder) scalarObservation(patientID types.ID, c vitalCode, value float64, timestamp string) Observation {
	return Observation{
		ResourceType: "Observation",
		ID:           types.NewID().String(),
		Status:       "final",
		Code: CodeableConcept{
			Coding: []Coding{{System: LOINCSystem, Code: c.code, Display: c.display}},
		},
		Subject:           Reference{Reference: patientID.URN()},
		Performer:         []Reference{{Reference: "Organization/" + b.org.ID}},
		EffectiveDateTime: timestamp,
		ValueQuantity: &Quantity{
			Value:  value,
			Unit:   c.unit,
			System: UCUMSystem,
			Code:   c.unitCode,
		},
	}
}

func (b *Builder) bloodPressurePanel(patientID types.ID, v Vitals, loc *Location, timestamp string) Observation {
	panel := Observation{
		ResourceType: "Observation",
		ID:           types.NewID().String(),
		Status:       "final",
		Code: CodeableConcept{
			Coding: []Coding{{System: LOINCSystem, Code: bpPanelCode, Display: "Blood pressure panel"}},
		},
		Subject:           Reference{Reference: patientID.URN()},
		Performer:         []Reference{{Reference: "Organization/" + b.org.ID}},
		EffectiveDateTime: timestamp,
		Component: []ObservationComponent{
			{
				Code:          CodeableConcept{Coding: []Coding{{System: LOINCSystem, Code: bpSystolicCode, Display: "Systolic"}}},
				ValueQuantity: &Quantity{Value: v.Systolic, Unit: "mmHg"},
			},
			{
				Code:          CodeableConcept{Coding: []Coding{{System: LOINCSystem, Code: bpDiastolicCode, Display: "Diastolic"}}},
				ValueQuantity: &Quantity{Value: v.Diastolic, Unit: "mmHg"},
			},
		},
	}
	if loc != nil {
		panel.Extension = []Extension{{
			URL:          GeolocationExtURL,
			ValueAddress: &Address{Text: fmt.Sprintf("%v,%v", loc.Latitude, loc.Longitude)},
		}}
	}
	return panel
}

// Physiological sanity bounds. Samples outside these ranges are rejected
// before any network call.
func validateVitals(v Vitals) error {
	checks := []struct {
		field string
		value float64
		min   float64
		max   float64
	}{
		{"heart_rate", v.HeartRate, 20, 300},
		{"oxygen_saturation", v.OxygenSaturation, 50, 100},
		{"heart_rate_variability", v.HeartRateVariability, 0, 300},
		{"systolic", v.Systolic, 50, 260},
		{"diastolic", v.Diastolic, 30, 160},
		{"respiratory_rate", v.RespiratoryRate, 4, 60},
		{"sleep_hours", v.SleepHours, 0, 24},
	}

	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return errors.Validation(
				fmt.Sprintf("%s out of range", c.field),
				map[string]string{
					"field": c.field,
					"value": fmt.Sprintf("%v", c.value),
					"range": fmt.Sprintf("[%v, %v]", c.min, c.max),
				},
			)
		}
	}

	if v.Diastolic >= v.Systolic {
		return errors.Validation("diastolic must be below systolic", map[string]string{
			"systolic":  fmt.Sprintf("%v", v.Systolic),
			"diastolic": fmt.Sprintf("%v", v.Diastolic),
		})
	}
	return nil
}
