package fhir

import (
	"github.com/h1-hospital/telemetry-gateway/internal/shared/types"
)

// Coding system URLs used across resources
const (
	LOINCSystem       = "http://loinc.org"
	UCUMSystem        = "http://unitsofmeasure.org"
	OrgTypeSystem     = "http://terminology.hl7.org/CodeSystem/organization-type"
	RiskSystem        = "http://terminology.hl7.org/CodeSystem/risk-probability"
	SNOMEDSystem      = "http://snomed.info/sct"
	SubjectIDSystem   = "http://hospital.org/id"
	GeolocationExtURL = "http://hl7.org/fhir/StructureDefinition/geolocation"
)

// Coding represents a FHIR Coding
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept represents a FHIR CodeableConcept
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Identifier represents a FHIR Identifier
type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

// HumanName represents a FHIR HumanName
type HumanName struct {
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Reference points at another resource, either by bundle-local URN
// (urn:uuid:<id>) before persistence or by <Type>/<id> once persisted.
type Reference struct {
	Reference string `json:"reference"`
}

// Quantity represents a FHIR Quantity
type Quantity struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// Extension represents a FHIR extension element
type Extension struct {
	URL          string   `json:"url"`
	ValueAddress *Address `json:"valueAddress,omitempty"`
}

// Address carries the free-text geolocation annotation
type Address struct {
	Text string `json:"text,omitempty"`
}

// Resource is implemented by every resource the gateway submits. Upsert
// decides the bundle request verb: replace (PUT by known id) for
// identity-bearing singletons, create (POST) for event-like resources.
type Resource interface {
	ResourceName() string
	LocalID() types.ID
	Upsert() bool
}

// Organization is the issuing care entity, upserted on every submission
type Organization struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         []CodeableConcept `json:"type,omitempty"`
}

func (o Organization) ResourceName() string { return "Organization" }
func (o Organization) LocalID() types.ID    { return types.ID(o.ID) }
func (o Organization) Upsert() bool         { return true }

// Patient is the monitored subject
type Patient struct {
	ResourceType         string       `json:"resourceType"`
	ID                   string       `json:"id"`
	Identifier           []Identifier `json:"identifier,omitempty"`
	Name                 []HumanName  `json:"name,omitempty"`
	Gender               string       `json:"gender,omitempty"`
	ManagingOrganization *Reference   `json:"managingOrganization,omitempty"`
}

func (p Patient) ResourceName() string { return "Patient" }
func (p Patient) LocalID() types.ID    { return types.ID(p.ID) }
func (p Patient) Upsert() bool         { return true }

// ObservationComponent holds one sub-measurement of a panel
type ObservationComponent struct {
	Code          CodeableConcept `json:"code"`
	ValueQuantity *Quantity       `json:"valueQuantity,omitempty"`
}

// Observation is one measured quantity at one instant
type Observation struct {
	ResourceType      string                 `json:"resourceType"`
	ID                string                 `json:"id"`
	Status            string                 `json:"status"`
	Category          []CodeableConcept      `json:"category,omitempty"`
	Code              CodeableConcept        `json:"code"`
	Subject           Reference              `json:"subject"`
	Performer         []Reference            `json:"performer,omitempty"`
	EffectiveDateTime string                 `json:"effectiveDateTime"`
	ValueQuantity     *Quantity              `json:"valueQuantity,omitempty"`
	Component         []ObservationComponent `json:"component,omitempty"`
	Extension         []Extension            `json:"extension,omitempty"`
}

func (o Observation) ResourceName() string { return "Observation" }
func (o Observation) LocalID() types.ID    { return types.ID(o.ID) }
func (o Observation) Upsert() bool         { return false }

// RiskPrediction is one predicted outcome of a RiskAssessment
type RiskPrediction struct {
	Outcome            CodeableConcept `json:"outcome"`
	ProbabilityDecimal float64         `json:"probabilityDecimal"`
	QualitativeRisk    CodeableConcept `json:"qualitativeRisk"`
}

// RiskAssessment documents one classifier verdict
type RiskAssessment struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Subject      Reference        `json:"subject"`
	Prediction   []RiskPrediction `json:"prediction"`
	Basis        []Reference      `json:"basis,omitempty"`
}

func (r RiskAssessment) ResourceName() string { return "RiskAssessment" }
func (r RiskAssessment) LocalID() types.ID    { return types.ID(r.ID) }
func (r RiskAssessment) Upsert() bool         { return false }

// ServiceRequest is an ordered clinical intervention
type ServiceRequest struct {
	ResourceType    string          `json:"resourceType"`
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Intent          string          `json:"intent"`
	Priority        string          `json:"priority"`
	Code            CodeableConcept `json:"code"`
	Subject         Reference       `json:"subject"`
	ReasonReference []Reference     `json:"reasonReference,omitempty"`
}

func (s ServiceRequest) ResourceName() string { return "ServiceRequest" }
func (s ServiceRequest) LocalID() types.ID    { return types.ID(s.ID) }
func (s ServiceRequest) Upsert() bool         { return false }

// CommunicationPayload carries the message text
type CommunicationPayload struct {
	ContentString string `json:"contentString"`
}

// CommunicationRequest is a directed free-text care team instruction
type CommunicationRequest struct {
	ResourceType string                 `json:"resourceType"`
	ID           string                 `json:"id"`
	Status       string                 `json:"status"`
	Priority     string                 `json:"priority,omitempty"`
	Subject      Reference              `json:"subject"`
	Payload      []CommunicationPayload `json:"payload"`
	AuthoredOn   string                 `json:"authoredOn,omitempty"`
}

func (c CommunicationRequest) ResourceName() string { return "CommunicationRequest" }
func (c CommunicationRequest) LocalID() types.ID    { return types.ID(c.ID) }
func (c CommunicationRequest) Upsert() bool         { return false }
