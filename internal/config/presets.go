package config

import "sort"

// Presets are named solver configurations for the experiments the repo
// ships with.
var Presets = map[string]func() *Config{
	// The paper's Figure 3: defaults as-is.
	"figure3": Default,

	// The notebook's thousand-guess grid over the published bracket.
	"fine-grid": func() *Config {
		c := Default()
		c.Solver.Grid = 1000
		c.Solver.BracketCenter = 1.0037
		c.Solver.BracketWidth = 0.0005
		return c
	},

	// Longer horizon separates the saddle path more sharply.
	"long-horizon": func() *Config {
		c := Default()
		c.Solver.Horizon = 300
		return c
	},

	// Initial landholding shock; a grid-scan scenario.
	"land-shock": func() *Config {
		c := Default()
		c.Scenario = "land-shock"
		return c
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
