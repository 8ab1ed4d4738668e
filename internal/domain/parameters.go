package domain

// Parameter is a single user-visible Inventor model parameter as staged in
// the parameters JSON document.
type Parameter struct {
	Value    string   `json:"value"`
	Values   []string `json:"values,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	ReadOnly bool     `json:"readonly,omitempty"`
}

// InventorParameters is the full parameter document keyed by parameter name.
// Its canonical JSON serialization (Go map marshaling sorts keys) is the
// input to the run's content hash.
type InventorParameters map[string]Parameter
