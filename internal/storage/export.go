package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gravfield/internal/sim"
)

type ExportData struct {
	Meta   RunMetadata          `json:"meta"`
	Times  []float64            `json:"times"`
	Series map[string][]float64 `json:"series"`
}

func newExport(meta RunMetadata, result *sim.Result) ExportData {
	meta.Steps = result.StepsTaken
	meta.Elapsed = result.Elapsed.Seconds()
	meta.Metrics = result.Metrics
	return ExportData{Meta: meta, Times: result.Times, Series: result.Series}
}

func ExportJSON(path string, meta RunMetadata, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, result)
}

func WriteJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExport(meta, result))
}
