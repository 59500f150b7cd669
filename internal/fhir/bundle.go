package fhir

// BundleRequest is the persistence directive for one entry
type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// BundleResponse is the store's per-entry outcome in a transaction-response
type BundleResponse struct {
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
}

// BundleEntry wraps one resource with its local reference and directive
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource Resource        `json:"resource,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
	Response *BundleResponse `json:"response,omitempty"`
}

// Bundle is one atomic transactional submission unit
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry"`
}

// Assemble packages resources into one transaction bundle. Each entry
// gets a urn:uuid local reference; identity-bearing singletons get
// replace semantics (PUT by known id), event-like resources get create
// semantics (POST, server-assigned id). Input order is preserved so the
// store can resolve local references in one pass.
func Assemble(resources []Resource) Bundle {
	entries := make([]BundleEntry, 0, len(resources))
	for _, r := range resources {
		req := &BundleRequest{Method: "POST", URL: r.ResourceName()}
		if r.Upsert() {
			req.Method = "PUT"
			req.URL = r.ResourceName() + "/" + r.LocalID().String()
		}
		entries = append(entries, BundleEntry{
			FullURL:  r.LocalID().URN(),
			Resource: r,
			Request:  req,
		})
	}
	return Bundle{
		ResourceType: "Bundle",
		Type:         "transaction",
		Entry:        entries,
	}
}
