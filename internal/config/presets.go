package config

import "sort"

var Presets = map[string]*Config{
	"unity": {
		Sources: 10, Population: 500000, HalfExtent: 8, SourceMass: 0.15, G: 1,
		ChunkSize: 10000, SeedMode: "worker", Falloff: "constant", Selector: "all",
		Dt: DefaultDt, Steps: 600, FPS: 60,
	},
	"small": {
		Sources: 4, Population: 20000, HalfExtent: 8, SourceMass: 0.15, G: 1,
		ChunkSize: 2000, Seed: 1, SeedMode: "run", Falloff: "constant", Selector: "all",
		Dt: DefaultDt, Steps: 300, FPS: 60,
	},
	"terminal": {
		Sources: 6, Population: 4000, HalfExtent: 8, SourceMass: 0.15, G: 1,
		ChunkSize: 500, Seed: 7, SeedMode: "run", Falloff: "constant", Selector: "all",
		Dt: 1.0 / 30.0, Steps: 0, FPS: 30,
	},
	"binary": {
		Sources: 2, Population: 50000, HalfExtent: 6, SourceMass: 0.4, G: 1,
		ChunkSize: 5000, Seed: 2, SeedMode: "run", Falloff: "inverse_square", Softening: 0.05,
		Selector: "all", Dt: 1.0 / 120.0, Steps: 1200, FPS: 60,
	},
	"empty": {
		Sources: 0, Population: 10000, HalfExtent: 8, SourceMass: 0.15, G: 1,
		ChunkSize: 1000, SeedMode: "run", Falloff: "constant", Selector: "all",
		Dt: DefaultDt, Steps: 60, FPS: 60,
	},
}

// GetPreset returns a copy of the named preset, or nil if there is none.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
