package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/h1-hospital/telemetry-gateway/internal/risk"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/errors"
)

// AckKind names what a consumer acknowledges
type AckKind string

const (
	AckMessage AckKind = "message"
	AckAlert   AckKind = "alert"
)

// State is the notification state one wearable display polls. Category
// and PendingMessage are independent axes: a care team message stays
// visible whatever the category does.
type State struct {
	Category            risk.Category `json:"category"`
	PendingMessage      string        `json:"pending_message,omitempty"`
	EmergencyDispatched bool          `json:"emergency_dispatched"`
	AssessmentID        string        `json:"assessment_id,omitempty"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type subjectState struct {
	mu    sync.Mutex
	state State
}

// Dispatcher owns per-subject alert state and its legal transitions.
// Writers are the classification path and care team operators; the
// display path only reads snapshots. One mutex per subject serializes
// transitions so a classification and a manual escalation cannot race.
type Dispatcher struct {
	mu       sync.Mutex
	subjects map[string]*subjectState
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subjects: make(map[string]*subjectState)}
}

func (d *Dispatcher) subject(subjectID string) *subjectState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.subjects[subjectID]
	if !ok {
		// initial state: normal, no pending message, not dispatched
		s = &subjectState{state: State{Category: risk.CategoryNormal, UpdatedAt: time.Now()}}
		d.subjects[subjectID] = s
	}
	return s
}

// ApplyVerdict applies a classifier outcome and returns the transition.
// Preventive clears the emergency dispatch flag; a normal verdict never
// clears a care team message, message delivery is independent of
// classification.
func (d *Dispatcher) ApplyVerdict(subjectID string, verdict risk.Verdict, assessmentID string) (from, to risk.Category) {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()

	from = s.state.Category
	to = verdict.Category

	s.state.Category = verdict.Category
	s.state.AssessmentID = assessmentID
	if verdict.Category == risk.CategoryPreventive {
		s.state.EmergencyDispatched = false
	}
	s.state.UpdatedAt = time.Now()
	return from, to
}

// SendMessage sets the pending care team message regardless of the
// current category.
func (d *Dispatcher) SendMessage(subjectID, text string) {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingMessage = text
	s.state.UpdatedAt = time.Now()
}

// CanEscalate reports whether an escalation is currently legal, without
// changing state. Callers use it to reject before building the order.
func (d *Dispatcher) CanEscalate(subjectID string) error {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return canEscalateLocked(s.state)
}

// Escalate marks the emergency as dispatched and returns the assessment
// id justifying the order. Legal only while the category is Emergency
// and no order has been dispatched yet; anything else gets a state
// transition error and no change. The already-dispatched guard means
// RevertEscalation can only ever undo the flip made here, never a
// previously dispatched order.
func (d *Dispatcher) Escalate(subjectID string) (assessmentID string, err error) {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := canEscalateLocked(s.state); err != nil {
		return "", err
	}
	s.state.EmergencyDispatched = true
	s.state.UpdatedAt = time.Now()
	return s.state.AssessmentID, nil
}

// RevertEscalation rolls the dispatch flag back after a failed order
// submission, so a failed submission leaves no trace locally.
func (d *Dispatcher) RevertEscalation(subjectID string) {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EmergencyDispatched = false
	s.state.UpdatedAt = time.Now()
}

// Acknowledge handles consumer acknowledgments. AckMessage clears the
// pending message whatever the category. AckAlert resets Preventive or
// Emergency back to Normal and clears the dispatch flag; an Emergency
// may be acknowledged directly whether or not it was escalated first.
func (d *Dispatcher) Acknowledge(subjectID string, kind AckKind) error {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case AckMessage:
		s.state.PendingMessage = ""
	case AckAlert:
		s.state.Category = risk.CategoryNormal
		s.state.EmergencyDispatched = false
	default:
		return errors.StateTransition(fmt.Sprintf("unknown acknowledgment kind %q", kind))
	}
	s.state.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a copy of the current state for the display path
func (d *Dispatcher) Snapshot(subjectID string) State {
	s := d.subject(subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func canEscalateLocked(st State) error {
	if st.Category != risk.CategoryEmergency {
		return errors.StateTransition(fmt.Sprintf("cannot escalate while category is %s", st.Category))
	}
	if st.EmergencyDispatched {
		return errors.StateTransition("emergency order already dispatched")
	}
	return nil
}
