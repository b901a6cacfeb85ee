// Package classify turns free-form chat queries into routing decisions.
//
// Classification is keyword-based over a normalized query (see Normalize)
// with bilingual Spanish/English keyword tables. It never fails: a query
// matching nothing is a plain chat query, so every input routes somewhere.
//
// Key concepts:
//   - Comprehensive keywords override everything else
//   - Remaining types score by keyword hits; ties resolve in a fixed
//     priority order (business, research, analysis)
//   - Complexity derives from the type and hit count
//   - Topics annotate the result for downstream prompts; they never change
//     the routing decision
package classify

import "strings"

// QueryType is the routed category of a chat query.
type QueryType string

// Query type constants, in tie-break priority order.
const (
	TypeComprehensive QueryType = "comprehensive"
	TypeBusiness      QueryType = "business"
	TypeResearch      QueryType = "research"
	TypeAnalysis      QueryType = "analysis"
	TypeChat          QueryType = "chat"
)

// Complexity grades how much workflow a query deserves.
type Complexity string

// Complexity constants.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Topic constants annotate what the query is about.
const (
	TopicStrategic     = "strategic"
	TopicMarket        = "market"
	TopicPredictive    = "predictive"
	TopicHolidayImpact = "holiday_impact"
	TopicSeasonal      = "seasonal"
)

// Keyword tables are stored pre-normalized (lowercase, no accents) so they
// match the output of Normalize directly. Substring matching is intentional:
// "recomendacion" also hits "recomendaciones".
var typeKeywords = map[QueryType][]string{
	TypeComprehensive: {
		"completo", "integral", "detallado", "profundo", "exhaustivo", "estrategico",
		"comprehensive", "complete", "detailed", "in depth", "thorough",
	},
	TypeBusiness: {
		"negocio", "estrategia", "recomendacion", "decision", "inversion", "mercado",
		"business", "strategy", "recommendation", "investment", "market",
	},
	TypeResearch: {
		"investigar", "investigacion", "buscar", "informacion", "contexto",
		"historia", "fuentes",
		"research", "sources", "background",
	},
	TypeAnalysis: {
		"analisis", "analizar", "estadistica", "tendencia", "patron", "correlacion",
		"comparar",
		"analysis", "statistics", "trend", "pattern", "correlation", "compare",
	},
}

// scoreOrder fixes the tie-break priority for non-comprehensive types.
var scoreOrder = []QueryType{TypeBusiness, TypeResearch, TypeAnalysis}

// topicRules are checked in order; the first hit wins.
var topicRules = []struct {
	topic    string
	keywords []string
}{
	{TopicStrategic, []string{"estrategico", "estrategia", "plan", "strategic", "strategy"}},
	{TopicMarket, []string{"mercado", "competencia", "benchmark", "market", "competition"}},
	{TopicPredictive, []string{"prediccion", "pronostico", "futuro", "proyeccion", "prediction", "forecast", "future", "projection"}},
	{TopicHolidayImpact, []string{"feriado", "vacaciones", "navidad", "holiday", "vacation", "christmas"}},
	{TopicSeasonal, []string{"estacional", "temporada", "verano", "invierno", "seasonal", "season", "summer", "winter"}},
}

// Classification is the full routing decision for one query.
type Classification struct {
	Query      string `json:"query"`
	Normalized string `json:"normalized"`

	Type       QueryType  `json:"query_type"`
	Complexity Complexity `json:"complexity"`

	// Topic is a prompt annotation, empty when nothing matched.
	Topic string `json:"topic,omitempty"`

	// Matches holds the per-type keyword hit counts that produced the
	// decision, for transparency in logs and responses.
	Matches map[QueryType]int `json:"matches"`
}

// Classifier scores queries against the keyword tables. The zero value is
// not usable; construct with NewClassifier.
type Classifier struct {
	keywords map[QueryType][]string
}

// NewClassifier returns a classifier with the built-in bilingual tables.
func NewClassifier() *Classifier {
	return &Classifier{keywords: typeKeywords}
}

// Classify routes a query. It cannot fail: queries matching no keyword
// table classify as chat with low complexity.
func (c *Classifier) Classify(query string) Classification {
	normalized := Normalize(query)

	matches := make(map[QueryType]int, len(c.keywords))
	for qt, keywords := range c.keywords {
		matches[qt] = countHits(normalized, keywords)
	}

	out := Classification{
		Query:      query,
		Normalized: normalized,
		Matches:    matches,
	}

	// A comprehensive keyword forces the deep workflow no matter what else
	// matched.
	if matches[TypeComprehensive] > 0 {
		out.Type = TypeComprehensive
		out.Complexity = ComplexityHigh
		out.Topic = detectTopic(normalized, true)
		return out
	}

	best := TypeChat
	bestHits := 0
	for _, qt := range scoreOrder {
		if matches[qt] > bestHits {
			best = qt
			bestHits = matches[qt]
		}
	}

	out.Type = best
	out.Complexity = complexityFor(best, bestHits)
	out.Topic = detectTopic(normalized, false)
	return out
}

func countHits(normalized string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			hits++
		}
	}
	return hits
}

func complexityFor(qt QueryType, hits int) Complexity {
	switch qt {
	case TypeBusiness, TypeResearch:
		return ComplexityMedium
	case TypeAnalysis:
		if hits >= 2 {
			return ComplexityMedium
		}
		return ComplexityLow
	default:
		return ComplexityLow
	}
}

func detectTopic(normalized string, comprehensive bool) string {
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.topic
			}
		}
	}
	if comprehensive {
		return TopicStrategic
	}
	return ""
}
