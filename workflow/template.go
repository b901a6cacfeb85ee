// Package workflow selects and executes multi-stage response pipelines.
//
// A Template names an ordered list of stages; the Executor walks them, hands
// each stage's Responder the query plus everything earlier stages produced,
// and merges the outputs into one labeled document.
//
// Key concepts:
//   - Five fixed templates, selected from the query classification
//   - Stage failures are recorded, not fatal: the pipeline always finishes
//     and reports per-stage outcomes
//   - Merging is ordered concatenation of labeled sections, never
//     deduplication
//   - Selection can only widen to quick_chat, so every query gets a workflow
package workflow

import (
	"github.com/feriadolabs/feriado/classify"
)

// Stage identifies one pipeline step.
type Stage string

// Stage constants.
const (
	StageDataAnalysis    Stage = "data_analysis"
	StageResearch        Stage = "research"
	StageBusinessAdvisor Stage = "business_advisor"
	StageValidation      Stage = "validation_crosscheck"
	StageSynthesis       Stage = "synthesis"
)

// stageLabels maps stages to the section headings used in merged output.
var stageLabels = map[Stage]string{
	StageDataAnalysis:    "Data Analysis",
	StageResearch:        "Research",
	StageBusinessAdvisor: "Business Advisor",
	StageValidation:      "Validation & Cross-Check",
	StageSynthesis:       "Synthesis",
}

// Label returns the stage's display heading.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// Template is an ordered stage pipeline with a named output shape.
type Template struct {
	Name         string  `json:"name"`
	Stages       []Stage `json:"stages"`
	OutputFormat string  `json:"output_format"`
}

// Template names.
const (
	TemplateComprehensive    = "comprehensive_analysis"
	TemplateBusinessAdvisory = "business_advisory"
	TemplateDeepResearch     = "deep_research"
	TemplateFocusedAnalysis  = "focused_analysis"
	TemplateQuickChat        = "quick_chat"
)

// templates is the fixed registry. Order inside each template is the
// execution order.
var templates = map[string]Template{
	TemplateComprehensive: {
		Name: TemplateComprehensive,
		Stages: []Stage{
			StageDataAnalysis,
			StageResearch,
			StageBusinessAdvisor,
			StageValidation,
			StageSynthesis,
		},
		OutputFormat: "strategic_report",
	},
	TemplateBusinessAdvisory: {
		Name: TemplateBusinessAdvisory,
		Stages: []Stage{
			StageDataAnalysis,
			StageBusinessAdvisor,
			StageSynthesis,
		},
		OutputFormat: "recommendation_brief",
	},
	TemplateDeepResearch: {
		Name: TemplateDeepResearch,
		Stages: []Stage{
			StageResearch,
			StageDataAnalysis,
			StageSynthesis,
		},
		OutputFormat: "research_summary",
	},
	TemplateFocusedAnalysis: {
		Name: TemplateFocusedAnalysis,
		Stages: []Stage{
			StageDataAnalysis,
			StageValidation,
			StageSynthesis,
		},
		OutputFormat: "analysis_digest",
	},
	TemplateQuickChat: {
		Name:         TemplateQuickChat,
		Stages:       []Stage{StageSynthesis},
		OutputFormat: "chat_reply",
	},
}

// Lookup returns a template by name.
func Lookup(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// Names returns the registered template names.
func Names() []string {
	return []string{
		TemplateComprehensive,
		TemplateBusinessAdvisory,
		TemplateDeepResearch,
		TemplateFocusedAnalysis,
		TemplateQuickChat,
	}
}

// SelectTemplate maps a classification onto a template. Comprehensive
// queries always get the full pipeline; business and research queries get
// their specialist pipelines; analysis queries get the focused pipeline only
// when graded medium. Everything else, including any unexpected
// type/complexity pairing, falls back to quick_chat.
func SelectTemplate(cls classify.Classification) Template {
	switch {
	case cls.Type == classify.TypeComprehensive:
		return templates[TemplateComprehensive]
	case cls.Type == classify.TypeBusiness:
		return templates[TemplateBusinessAdvisory]
	case cls.Type == classify.TypeResearch:
		return templates[TemplateDeepResearch]
	case cls.Type == classify.TypeAnalysis && cls.Complexity == classify.ComplexityMedium:
		return templates[TemplateFocusedAnalysis]
	default:
		return templates[TemplateQuickChat]
	}
}
