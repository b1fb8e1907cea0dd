package requests

// IngestRequest is the optional body of the ingest endpoint.
type IngestRequest struct {
	// ReplaceMode clears all existing gallery items before ingesting.
	ReplaceMode bool `json:"replaceMode"`
	// WaitForSelection polls the provider until the operator finishes
	// selecting before ingesting, instead of returning an empty result.
	WaitForSelection bool `json:"waitForSelection"`
}
