package engine

import (
	"fmt"
	"strings"
)

// Query building for the two search-style sources. The AI-overview source
// takes full natural-language questions; the video source wants a bare
// subject string.

// overviewTemplates are the fixed question templates for the AI-overview
// source, in priority order. Depth selects a prefix of this list.
var overviewTemplates = []string{
	"What are the biggest %s trends and what's driving them?",
	"Who are the top influencers and brands in %s right now?",
	"What do experts recommend for %s in 2026?",
}

// overviewQueryCounts maps depth to how many templates to use.
var overviewQueryCounts = map[string]int{
	DepthQuick:   1,
	DepthDefault: 2,
	DepthDeep:    3,
}

// BuildOverviewQueries generates 1-3 natural language questions from a topic.
// Always the same prefix subset of the fixed templates, never randomized.
func BuildOverviewQueries(topic, depth string) []string {
	count, ok := overviewQueryCounts[depth]
	if !ok {
		count = overviewQueryCounts[DepthDefault]
	}
	queries := make([]string, 0, count)
	for _, tmpl := range overviewTemplates[:count] {
		queries = append(queries, fmt.Sprintf(tmpl, topic))
	}
	return queries
}

// subjectPrefixes are interrogative lead-ins stripped from verbose topics,
// most specific first.
var subjectPrefixes = []string{
	"what are the best", "what is the best", "what are the latest",
	"what are people saying about", "what do people think about",
	"how do i use", "how to use", "how to",
	"what are", "what is", "tips for", "best practices for",
}

// subjectNoiseWords are low-signal words removed from the subject.
// 'tips', 'tricks', 'tutorial', 'guide', 'review', 'reviews' are
// intentionally KEPT — they're video content types that improve search.
var subjectNoiseWords = map[string]bool{
	"best": true, "top": true, "good": true, "great": true, "awesome": true, "killer": true,
	"latest": true, "new": true, "news": true, "update": true, "updates": true,
	"trending": true, "hottest": true, "popular": true, "viral": true,
	"practices": true, "features": true,
	"recommendations": true, "advice": true,
	"prompt": true, "prompts": true, "prompting": true,
	"methods": true, "strategies": true, "approaches": true,
}

// ExtractCoreSubject strips meta/research words from a verbose topic, keeping
// only the core product/concept name for video platform search.
// Never returns an empty string: falls back to the trimmed original topic.
func ExtractCoreSubject(topic string) string {
	text := strings.TrimSpace(strings.ToLower(topic))

	for _, p := range subjectPrefixes {
		if strings.HasPrefix(text, p+" ") {
			text = strings.TrimSpace(text[len(p):])
		}
	}

	var filtered []string
	for _, w := range strings.Fields(text) {
		if !subjectNoiseWords[w] {
			filtered = append(filtered, w)
		}
	}

	result := text
	if len(filtered) > 0 {
		result = strings.Join(filtered, " ")
	}
	result = strings.TrimRight(result, "?!.")
	if strings.TrimSpace(result) == "" {
		return strings.TrimSpace(topic)
	}
	return result
}
