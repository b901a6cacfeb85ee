package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/feriadolabs/feriado/workflow"
)

// OfflineResponder serves a stage deterministically, without a model. The
// server falls back to these when no LLM provider is configured, so filter
// and metrics work stays usable end to end. Canned text is Spanish, matching
// the system's primary audience.
type OfflineResponder struct {
	stage workflow.Stage
}

// NewOffline builds an offline responder for one stage.
func NewOffline(stage workflow.Stage) *OfflineResponder {
	return &OfflineResponder{stage: stage}
}

// OfflineRegistry builds offline responders for all five stages.
func OfflineRegistry() map[workflow.Stage]workflow.Responder {
	stages := []workflow.Stage{
		workflow.StageDataAnalysis,
		workflow.StageResearch,
		workflow.StageBusinessAdvisor,
		workflow.StageValidation,
		workflow.StageSynthesis,
	}
	registry := make(map[workflow.Stage]workflow.Responder, len(stages))
	for _, stage := range stages {
		registry[stage] = NewOffline(stage)
	}
	return registry
}

// Key implements workflow.Responder.
func (o *OfflineResponder) Key() workflow.Stage {
	return o.stage
}

// Respond implements workflow.Responder.
func (o *OfflineResponder) Respond(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var text string
	switch o.stage {
	case workflow.StageDataAnalysis:
		text = offlineDataAnalysis(req)
	case workflow.StageResearch:
		text = "Investigación externa no disponible en modo sin conexión. " +
			"Configure un proveedor LLM para incorporar contexto de feriados y mercado."
	case workflow.StageBusinessAdvisor:
		text = "Sin proveedor LLM configurado no se generan recomendaciones nuevas. " +
			"Los hallazgos de datos de las secciones anteriores siguen siendo válidos."
	case workflow.StageValidation:
		text = fmt.Sprintf("Se revisaron %d secciones previas en modo sin conexión; "+
			"las cifras citadas provienen directamente de las métricas calculadas.", len(req.Prior))
	case workflow.StageSynthesis:
		text = offlineSynthesis(req)
	default:
		return nil, fmt.Errorf("no offline behavior for stage %q", o.stage)
	}

	return &workflow.Result{Text: text, Metadata: map[string]any{"offline": true}}, nil
}

func offlineDataAnalysis(req *workflow.Request) string {
	if len(req.Context) == 0 {
		return "No hay datos cargados para la selección actual."
	}
	keys := make([]string, 0, len(req.Context))
	for k := range req.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Métricas de la selección actual:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s: %v", k, req.Context[k])
	}
	return b.String()
}

func offlineSynthesis(req *workflow.Request) string {
	if len(req.Prior) == 0 {
		return fmt.Sprintf("Consulta recibida: %q. Configure un proveedor LLM "+
			"(GEMINI_API_KEY, OPENAI_API_KEY o credenciales de Bedrock) para "+
			"obtener respuestas generadas.", req.Query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Resumen para la consulta %q, integrando %d secciones:", req.Query, len(req.Prior))
	for _, section := range req.Prior {
		b.WriteString("\n\n")
		b.WriteString(section.Label)
		b.WriteString(": ")
		b.WriteString(section.Text)
	}
	return b.String()
}
