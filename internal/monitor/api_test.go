package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(t *testing.T, store Submitter) http.Handler {
	t.Helper()
	svc, _ := newTestService(store)
	return NewHandler(svc).Routes()
}

// TestIngestEndpoint tests the vitals route end to end
func TestIngestEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	body := `{
		"display_name": "Test User",
		"vitals": {
			"heart_rate": 75, "oxygen_saturation": 98, "heart_rate_variability": 60,
			"systolic": 110, "diastolic": 70, "respiratory_rate": 16, "sleep_hours": 7
		},
		"location": {"lat": 25.0330, "lon": 121.5654}
	}`
	req := httptest.NewRequest(http.MethodPost, "/subjects/A223456789/vitals", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result IngestResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Expected decodable body: %v", err)
	}
	if result.Verdict.Category != "normal" {
		t.Errorf("Expected normal verdict, got %s", result.Verdict.Category)
	}
	if result.BundleEntries != 8 {
		t.Errorf("Expected 8 entries, got %d", result.BundleEntries)
	}
}

// TestIngestEndpointValidation tests the 400 path for bad vitals
func TestIngestEndpointValidation(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	body := `{"display_name": "Test User", "vitals": {"heart_rate": 999, "oxygen_saturation": 98,
		"heart_rate_variability": 60, "systolic": 110, "diastolic": 70,
		"respiratory_rate": 16, "sleep_hours": 7}}`
	req := httptest.NewRequest(http.MethodPost, "/subjects/A223456789/vitals", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var resp map[string]any
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["code"] != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR code, got %v", resp["code"])
	}
}

// TestEscalateEndpointConflict tests the 409 path outside emergency
func TestEscalateEndpointConflict(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	body := `{"display_name": "Test User", "vitals": {"heart_rate": 75, "oxygen_saturation": 98,
		"heart_rate_variability": 60, "systolic": 110, "diastolic": 70,
		"respiratory_rate": 16, "sleep_hours": 7}}`
	req := httptest.NewRequest(http.MethodPost, "/subjects/A223456789/vitals", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 ingest, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/subjects/A223456789/escalate", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestAcknowledgeEndpoint tests the consumer acknowledgment route
func TestAcknowledgeEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	body := `{"display_name": "Test User", "vitals": {"heart_rate": 130, "oxygen_saturation": 98,
		"heart_rate_variability": 60, "systolic": 110, "diastolic": 70,
		"respiratory_rate": 16, "sleep_hours": 7}}`
	req := httptest.NewRequest(http.MethodPost, "/subjects/A223456789/vitals", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 ingest, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/subjects/A223456789/acknowledge", strings.NewReader(`{"kind":"alert"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var state map[string]any
	json.NewDecoder(rec.Body).Decode(&state)
	if state["category"] != "normal" {
		t.Errorf("Expected normal after ack, got %v", state["category"])
	}
}

// TestDisplayEndpointUnknownSubject tests the 404 path
func TestDisplayEndpointUnknownSubject(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/subjects/nobody/display", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}
