package agent

import (
	"strings"

	"github.com/hearthd/hearth/internal/config"
)

const (
	directiveStepByStep = "Think step by step before answering."
	directiveApproaches = "Consider multiple approaches and choose the best one."
	directiveAnalysis   = "Provide comprehensive analysis with pros, cons, and trade-offs."
	directiveProactive  = "You may suggest proactive actions when appropriate."
)

var detailDirectives = map[config.Detail]string{
	config.DetailBrief:      "Keep responses concise.",
	config.DetailStandard:   "Provide clear, well-structured responses.",
	config.DetailDetailed:   "Provide detailed, thorough responses with examples.",
	config.DetailExhaustive: "Provide exhaustive, comprehensive responses covering all aspects.",
}

// composePrompt appends brain-power directives to a base persona
// prompt. Directive order is fixed: reasoning depth, autonomy, then
// response detail.
func composePrompt(base string, preset config.BrainPreset) string {
	var directives []string
	if preset.ReasoningDepth >= 3 {
		directives = append(directives, directiveStepByStep)
	}
	if preset.ReasoningDepth >= 5 {
		directives = append(directives, directiveApproaches)
	}
	if preset.ReasoningDepth >= 7 {
		directives = append(directives, directiveAnalysis)
	}
	if preset.Autonomous {
		directives = append(directives, directiveProactive)
	}
	if d, ok := detailDirectives[preset.ResponseDetail]; ok {
		directives = append(directives, d)
	}

	if len(directives) == 0 {
		return base
	}
	return base + "\n\n" + strings.Join(directives, "\n")
}
