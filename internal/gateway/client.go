package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/h1-hospital/telemetry-gateway/internal/fhir"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/config"
	"github.com/h1-hospital/telemetry-gateway/internal/shared/errors"
)

const fhirContentType = "application/fhir+json"

// Client submits transaction bundles to the remote FHIR store. It makes
// exactly one attempt per call; retry policy, if any, belongs to the
// caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a FHIR store client with the configured timeout
func NewClient(cfg config.FHIRConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

// responseEntry is the store's per-entry outcome; the resource bodies
// are not needed, only the assigned locations
type responseEntry struct {
	Response *fhir.BundleResponse `json:"response,omitempty"`
}

type responseBundle struct {
	ResourceType string          `json:"resourceType"`
	Type         string          `json:"type"`
	Entry        []responseEntry `json:"entry"`
}

// SubmissionResult holds the store's transaction-response
type SubmissionResult struct {
	Status   int
	Response responseBundle
}

// ServerID recovers the server-assigned id of the first entry of the
// given resource type from the transaction-response. An empty return is
// not an error; callers fall back to the local id.
func (r *SubmissionResult) ServerID(resourceType string) string {
	prefix := resourceType + "/"
	for _, entry := range r.Response.Entry {
		if entry.Response == nil {
			continue
		}
		loc := entry.Response.Location
		if !strings.HasPrefix(loc, prefix) {
			continue
		}
		// location has the form Type/id or Type/id/_history/n
		rest := strings.TrimPrefix(loc, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	return ""
}

// Submit serializes the bundle and POSTs it to the store root. Any
// 200/201 response is success; other statuses surface the server
// diagnostic verbatim, transport failures surface their cause. Local
// state is never touched here, so a failed submission changes nothing.
func (c *Client) Submit(ctx context.Context, bundle fhir.Bundle) (*SubmissionResult, error) {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return nil, errors.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Internal(err)
	}
	req.Header.Set("Content-Type", fhirContentType)
	req.Header.Set("Accept", fhirContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("bundle submission failed in transport")
		return nil, errors.GatewayTransport(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("store rejected bundle")
		return nil, errors.GatewayRejected(resp.StatusCode, string(body))
	}

	result := &SubmissionResult{Status: resp.StatusCode}
	// The transaction-response is informative only; an unparseable body
	// still counts as an accepted submission
	if err := json.Unmarshal(body, &result.Response); err != nil {
		c.logger.Debug().Err(err).Msg("could not decode transaction-response")
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("entries", len(bundle.Entry)).
		Msg("bundle accepted")
	return result, nil
}
