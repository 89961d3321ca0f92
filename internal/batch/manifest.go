package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one job in the output manifest.
type ManifestEntry struct {
	ID         string     `json:"id"`
	Position   [3]float64 `json:"position"`
	Forward    [3]float64 `json:"forward"`
	Up         [3]float64 `json:"up"`
	Outputs    []string   `json:"outputs"`
	RenderID   string     `json:"render_id,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
}

// WriteManifest writes the results as JSON to path.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		vp := r.Job.ViewPoint
		entries[i] = ManifestEntry{
			ID:         r.Job.ID.String(),
			Position:   vp.Position,
			Forward:    vp.Forward(),
			Up:         vp.Up(),
			Outputs:    r.Outputs,
			DurationMS: r.Duration.Milliseconds(),
			Error:      r.Error,
		}
		if r.Success {
			entries[i].RenderID = r.Stats.ID.String()
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
