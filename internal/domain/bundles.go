package domain

// Stage bundles are the records handed to the external conversion backend
// for one pipeline stage. Each exposes exactly the signed URLs that stage
// needs and nothing else; a bundle is immutable once returned and is
// consumed once.

// AdoptionBundle stages the first conversion of a newly uploaded document.
type AdoptionBundle struct {
	DocURL      string    `json:"doc_url"`
	TLA         string    `json:"tla,omitempty"`
	Thumbnail   SignedURL `json:"thumbnail"`
	ModelView   SignedURL `json:"model_view"`
	Parameters  SignedURL `json:"parameters"`
	OutputModel SignedURL `json:"output_model"`
}

// UpdateBundle stages a re-conversion with changed parameters. The
// InputParameters URL is read-write: the processor re-reads the document
// that was uploaded to that slot before the bundle was returned.
type UpdateBundle struct {
	DocURL          string    `json:"doc_url"`
	TLA             string    `json:"tla,omitempty"`
	OutputModel     SignedURL `json:"output_model"`
	ModelView       SignedURL `json:"model_view"`
	Parameters      SignedURL `json:"parameters"`
	InputParameters SignedURL `json:"input_parameters"`
}

// SATBundle stages intermediate-format extraction. The output is
// read-write because a later stage consumes it.
type SATBundle struct {
	DocURL    string    `json:"doc_url"`
	OutputSAT SignedURL `json:"output_sat"`
}

// RFABundle stages final-artifact extraction.
type RFABundle struct {
	DocURL    string    `json:"doc_url"`
	OutputRFA SignedURL `json:"output_rfa"`
}
