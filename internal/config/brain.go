package config

// Detail is the response-length directive level.
type Detail string

const (
	DetailBrief      Detail = "brief"
	DetailStandard   Detail = "standard"
	DetailDetailed   Detail = "detailed"
	DetailExhaustive Detail = "exhaustive"
)

// BrainPreset bundles the reasoning settings selected by a single
// brain power level.
type BrainPreset struct {
	Name           string `json:"name"`
	ReasoningDepth int    `json:"reasoning_depth"`
	ContextWindow  int    `json:"context_window"`
	Autonomous     bool   `json:"autonomous"`
	ResponseDetail Detail `json:"response_detail"`
}

// brainPresets maps level 1-9 to its preset. Indexed by level-1.
var brainPresets = [9]BrainPreset{
	{Name: "Basic", ReasoningDepth: 1, ContextWindow: 4096, Autonomous: false, ResponseDetail: DetailBrief},
	{Name: "Assistant", ReasoningDepth: 1, ContextWindow: 4096, Autonomous: false, ResponseDetail: DetailBrief},
	{Name: "Capable", ReasoningDepth: 2, ContextWindow: 8192, Autonomous: false, ResponseDetail: DetailStandard},
	{Name: "Proficient", ReasoningDepth: 3, ContextWindow: 16384, Autonomous: false, ResponseDetail: DetailStandard},
	{Name: "Advanced", ReasoningDepth: 4, ContextWindow: 32768, Autonomous: true, ResponseDetail: DetailDetailed},
	{Name: "Expert", ReasoningDepth: 5, ContextWindow: 32768, Autonomous: true, ResponseDetail: DetailDetailed},
	{Name: "Master", ReasoningDepth: 6, ContextWindow: 65536, Autonomous: true, ResponseDetail: DetailDetailed},
	{Name: "Superior", ReasoningDepth: 7, ContextWindow: 65536, Autonomous: true, ResponseDetail: DetailExhaustive},
	{Name: "Maximum", ReasoningDepth: 8, ContextWindow: 128000, Autonomous: true, ResponseDetail: DetailExhaustive},
}

// Preset returns the brain power preset for a level. Out-of-range
// levels are clamped to 1-9.
func Preset(level int) BrainPreset {
	return brainPresets[clampLevel(level)-1]
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 9 {
		return 9
	}
	return level
}
