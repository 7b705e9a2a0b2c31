package pipeline

import (
	"sort"

	"github.com/MeKo-Tech/labelscan/internal/parser"
)

// State names the phase a pipeline run is in or ended with.
type State string

const (
	StateIdle       State = "idle"
	StateConverting State = "converting"
	StateDetecting  State = "detecting"
	StateExtracting State = "extracting"
	StateParsing    State = "parsing"
	StateDone       State = "done"
	StateSkipped    State = "skipped"
	StateCancelled  State = "cancelled"
)

// Result is the outcome of one pipeline run: credentials unique by
// identifier, sorted by descending confidence, plus run metadata.
type Result struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	State       State               `json:"state" yaml:"state"`
	Credentials []parser.Credential `json:"credentials" yaml:"credentials"`
	Regions     int                 `json:"regions" yaml:"regions"`
	DurationNs  int64               `json:"duration_ns" yaml:"duration_ns"`
}

// Empty reports whether the run produced no credentials.
func (r Result) Empty() bool { return len(r.Credentials) == 0 }

// dedupeCredentials keeps the highest-confidence candidate per identifier
// and orders the survivors by descending confidence (identifier as a
// deterministic tie-break).
func dedupeCredentials(candidates []parser.Credential) []parser.Credential {
	if len(candidates) == 0 {
		return nil
	}
	best := make(map[string]parser.Credential, len(candidates))
	for _, c := range candidates {
		if cur, ok := best[c.Identifier]; !ok || c.Confidence > cur.Confidence {
			best[c.Identifier] = c
		}
	}
	out := make([]parser.Credential, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}
