package domain

import (
	"github.com/google/uuid"
)

// AccessMode selects the capability a signed URL grants on one object.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

func (m AccessMode) String() string {
	switch m {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

// SignedURL carries the capability URLs issued for one staged object.
// Write-only URLs populate Put, read-only populate Get, read-write both.
type SignedURL struct {
	Get string `json:"get,omitempty"`
	Put string `json:"put,omitempty"`
}

// SlotSet holds the temporary object names for one pipeline run. Names are
// assigned once at construction and never change for the life of the run;
// they carry no meaning beyond uniqueness and a file-extension hint.
type SlotSet struct {
	RunID           string `json:"run_id"`
	Parameters      string `json:"parameters"`
	Thumbnail       string `json:"thumbnail"`
	ModelView       string `json:"model_view"`
	InputParameters string `json:"input_parameters"`
	OutputModel     string `json:"output_model"`
	OutputSAT       string `json:"output_sat"`
	OutputRFA       string `json:"output_rfa"`
}

// NewSlotSet generates a fresh set of staging names. Each name embeds a
// v4 UUID, so collision across concurrently active runs is a 128-bit
// probabilistic impossibility rather than something coordinated away.
func NewSlotSet() SlotSet {
	return SlotSet{
		RunID:           uuid.NewString(),
		Parameters:      stagingName("json"),
		Thumbnail:       stagingName("png"),
		ModelView:       stagingName("svf.zip"),
		InputParameters: stagingName("json"),
		OutputModel:     stagingName("zip"),
		OutputSAT:       stagingName("sat"),
		OutputRFA:       stagingName("rfa"),
	}
}

func stagingName(ext string) string {
	return "staging/" + uuid.NewString() + "." + ext
}

// Names returns every staging name in the set, in a fixed order.
func (s SlotSet) Names() []string {
	return []string{
		s.Parameters,
		s.Thumbnail,
		s.ModelView,
		s.InputParameters,
		s.OutputModel,
		s.OutputSAT,
		s.OutputRFA,
	}
}
