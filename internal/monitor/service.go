package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/h1-hospital/telemetry-gateway/internal/alert"
	"github.com/h1-hospital/telemetry-gateway/internal/fhir"
	"github.com/h1-hospital/telemetry-gateway/internal/gateway"
	"github.com/h1-hospital/telemetry-gateway/internal/risk"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/errors"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/metrics"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/types"
)

// Submitter is the outbound FHIR store dependency
type Submitter interface {
	Submit(ctx context.Context, bundle fhir.Bundle) (*gateway.SubmissionResult, error)
}

// session is one subject's monitoring session. The inflight mutex
// serializes the subject's outbound cycles, so a classification and a
// manual action reach the store in submission order. The state mutex
// guards only the snapshot fields and is never held across a network
// call, so display reads and acknowledgments proceed while a
// submission is in flight.
type session struct {
	inflight sync.Mutex

	mu           sync.Mutex
	patientID    types.ID
	displayName  string
	latestVitals fhir.Vitals
	sampledAt    time.Time
	hasVitals    bool
}

// Service sequences the full telemetry cycle per subject: build
// resources, submit the bundle, classify, submit the assessment, then
// apply the alert transition. A failed submission leaves all local
// state unchanged.
type Service struct {
	builder    *fhir.Builder
	classifier risk.Classifier
	store      Submitter
	dispatcher *alert.Dispatcher
	logger     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService wires the telemetry pipeline
func NewService(builder *fhir.Builder, classifier risk.Classifier, store Submitter, dispatcher *alert.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		builder:    builder,
		classifier: classifier,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "monitor").Logger(),
		sessions:   make(map[string]*session),
	}
}

func (s *Service) session(subjectID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[subjectID]
	if !ok {
		sess = &session{}
		s.sessions[subjectID] = sess
	}
	return sess
}

// existingSession looks a subject's session up without creating one
func (s *Service) existingSession(subjectID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[subjectID]
	if !ok {
		return nil, errors.NotFound("subject", subjectID)
	}
	return sess, nil
}

// patient returns the persisted subject identity, or not found before
// the first successful ingest.
func (sess *session) patient(subjectID string) (types.ID, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.hasVitals {
		return "", errors.NotFound("subject", subjectID)
	}
	return sess.patientID, nil
}

// IngestRequest is one wearable sample for one subject
type IngestRequest struct {
	DisplayName string         `json:"display_name"`
	Vitals      fhir.Vitals    `json:"vitals"`
	Location    *fhir.Location `json:"location,omitempty"`
}

// IngestResult reports one completed telemetry cycle
type IngestResult struct {
	PatientID     string       `json:"patient_id"`
	BundleEntries int          `json:"bundle_entries"`
	Verdict       risk.Verdict `json:"verdict"`
	AssessmentID  string       `json:"assessment_id"`
}

// IngestVitals runs one full cycle: vitals bundle, classification,
// assessment bundle, alert transition. The subject's inflight lock
// keeps classification-then-dispatch one logical unit, so a stale
// verdict can never clobber a newer manual action.
func (s *Service) IngestVitals(ctx context.Context, subjectID string, req IngestRequest) (*IngestResult, error) {
	sess := s.session(subjectID)
	sess.inflight.Lock()
	defer sess.inflight.Unlock()

	built, err := s.builder.BuildVitalsResources(subjectID, req.DisplayName, req.Vitals, req.Location)
	if err != nil {
		return nil, err
	}

	bundle := fhir.Assemble(built.Resources)
	result, err := s.submit(ctx, "vitals", bundle)
	if err != nil {
		return nil, err
	}

	// Prefer server-assigned ids for cross-bundle references; local ids
	// are the fallback when the store does not echo locations
	basisRef := "Observation/" + built.HeartRateObservationID.String()
	if serverID := result.ServerID("Observation"); serverID != "" {
		basisRef = "Observation/" + serverID
	}
	subjectRef := "Patient/" + built.PatientID.String()

	verdict := s.classifier.Classify(req.Vitals)
	metrics.RecordClassification(string(verdict.Category))

	assessment := risk.BuildAssessment(subjectRef, basisRef, verdict)
	assessmentResult, err := s.submit(ctx, "assessment", fhir.Assemble([]fhir.Resource{assessment}))
	if err != nil {
		return nil, err
	}
	assessmentID := assessment.ID
	if serverID := assessmentResult.ServerID("RiskAssessment"); serverID != "" {
		assessmentID = serverID
	}

	from, to := s.dispatcher.ApplyVerdict(subjectID, verdict, assessmentID)
	metrics.RecordAlertTransition(string(from), string(to))

	sess.mu.Lock()
	sess.patientID = built.PatientID
	sess.displayName = req.DisplayName
	sess.latestVitals = req.Vitals
	sess.sampledAt = time.Now()
	sess.hasVitals = true
	sess.mu.Unlock()

	s.logger.Info().
		Str("subject", subjectID).
		Str("category", string(verdict.Category)).
		Str("assessment", assessmentID).
		Msg("telemetry cycle complete")

	return &IngestResult{
		PatientID:     built.PatientID.String(),
		BundleEntries: len(bundle.Entry),
		Verdict:       verdict,
		AssessmentID:  assessmentID,
	}, nil
}

// SendMessage submits a care team instruction and makes it visible on
// the wearable. The message axis is independent of the alert category.
func (s *Service) SendMessage(ctx context.Context, subjectID, text, priority string) error {
	sess, err := s.existingSession(subjectID)
	if err != nil {
		return err
	}
	sess.inflight.Lock()
	defer sess.inflight.Unlock()
	patientID, err := sess.patient(subjectID)
	if err != nil {
		return err
	}

	cr, err := s.builder.BuildCommunicationRequest(patientID, text, priority)
	if err != nil {
		return err
	}
	if _, err := s.submit(ctx, "message", fhir.Assemble([]fhir.Resource{cr})); err != nil {
		return err
	}

	s.dispatcher.SendMessage(subjectID, text)
	metrics.RecordMessage()
	return nil
}

// EscalationResult reports a dispatched emergency order
type EscalationResult struct {
	ServiceRequestID string `json:"service_request_id"`
	AssessmentID     string `json:"assessment_id"`
}

// Escalate dispatches the stat resuscitation order. Legal only while
// the subject's category is Emergency; the dispatch flag is rolled back
// if the order cannot be submitted.
func (s *Service) Escalate(ctx context.Context, subjectID string) (*EscalationResult, error) {
	sess, err := s.existingSession(subjectID)
	if err != nil {
		return nil, err
	}
	sess.inflight.Lock()
	defer sess.inflight.Unlock()
	patientID, err := sess.patient(subjectID)
	if err != nil {
		return nil, err
	}

	assessmentID, err := s.dispatcher.Escalate(subjectID)
	if err != nil {
		return nil, err
	}

	sr := s.builder.BuildServiceRequest(patientID, "RiskAssessment/"+assessmentID)
	if _, err := s.submit(ctx, "escalation", fhir.Assemble([]fhir.Resource{sr})); err != nil {
		s.dispatcher.RevertEscalation(subjectID)
		return nil, err
	}

	metrics.RecordEscalation()
	s.logger.Warn().Str("subject", subjectID).Msg("emergency dispatched")
	return &EscalationResult{
		ServiceRequestID: sr.ID,
		AssessmentID:     assessmentID,
	}, nil
}

// Acknowledge applies a consumer acknowledgment from the wearable. It
// is purely local, so it never waits on an in-flight submission.
func (s *Service) Acknowledge(subjectID string, kind alert.AckKind) (alert.State, error) {
	sess, err := s.existingSession(subjectID)
	if err != nil {
		return alert.State{}, err
	}
	if _, err := sess.patient(subjectID); err != nil {
		return alert.State{}, err
	}

	if err := s.dispatcher.Acknowledge(subjectID, kind); err != nil {
		return alert.State{}, err
	}
	return s.dispatcher.Snapshot(subjectID), nil
}

// DisplayView is what the simulated wearable renders
type DisplayView struct {
	SubjectID    string      `json:"subject_id"`
	DisplayName  string      `json:"display_name"`
	Alert        alert.State `json:"alert"`
	LatestVitals fhir.Vitals `json:"latest_vitals"`
	SampledAt    time.Time   `json:"sampled_at"`
}

// Display returns the read-only view for the wearable display path.
// Only the short-held state lock is taken, so the poll never waits on
// an in-flight submission.
func (s *Service) Display(subjectID string) (*DisplayView, error) {
	sess, err := s.existingSession(subjectID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if !sess.hasVitals {
		sess.mu.Unlock()
		return nil, errors.NotFound("subject", subjectID)
	}
	view := &DisplayView{
		SubjectID:    subjectID,
		DisplayName:  sess.displayName,
		LatestVitals: sess.latestVitals,
		SampledAt:    sess.sampledAt,
	}
	sess.mu.Unlock()

	view.Alert = s.dispatcher.Snapshot(subjectID)
	return view, nil
}

func (s *Service) submit(ctx context.Context, kind string, bundle fhir.Bundle) (*gateway.SubmissionResult, error) {
	start := time.Now()
	result, err := s.store.Submit(ctx, bundle)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordBundleSubmission(kind, outcome, len(bundle.Entry), time.Since(start))
	return result, err
}
