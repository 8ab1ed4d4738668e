package domain

import "path"

// CanonicalNames maps each artifact kind produced by a run to its
// permanent, hash-derived object name.
type CanonicalNames struct {
	CurrentModel string
	ModelView    string
	Parameters   string
	RFA          string
	Thumbnail    string
	Metadata     string
}

// NameProvider derives the canonical name set for a run from its content
// hash. Implementations must be deterministic and collision-free across
// distinct hashes.
type NameProvider func(hash string) CanonicalNames

// ProjectNames returns the standard name provider for a project: all
// artifacts of one run live under projects/<project>/cache/<hash>/.
func ProjectNames(project string) NameProvider {
	return func(hash string) CanonicalNames {
		base := path.Join("projects", project, "cache", hash)
		return CanonicalNames{
			CurrentModel: path.Join(base, "model.zip"),
			ModelView:    path.Join(base, "model-view.svf.zip"),
			Parameters:   path.Join(base, "parameters.json"),
			RFA:          path.Join(base, "result.rfa"),
			Thumbnail:    path.Join(base, "thumbnail.png"),
			Metadata:     path.Join(base, "metadata.json"),
		}
	}
}

// Metadata is the small attribute record written once per run next to the
// published artifacts. It is never read back by this service.
type Metadata struct {
	Hash string `json:"hash"`
	TLA  string `json:"tla,omitempty"`
}
