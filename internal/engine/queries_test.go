package engine

import (
	"strings"
	"testing"
)

func TestBuildOverviewQueries(t *testing.T) {
	tests := []struct {
		depth string
		want  int
	}{
		{DepthQuick, 1},
		{DepthDefault, 2},
		{DepthDeep, 3},
		{"", 2},
		{"bogus", 2},
	}
	for _, tt := range tests {
		t.Run(tt.depth, func(t *testing.T) {
			got := BuildOverviewQueries("electric bikes", tt.depth)
			if len(got) != tt.want {
				t.Fatalf("expected %d queries, got %d", tt.want, len(got))
			}
			for _, q := range got {
				if !strings.Contains(q, "electric bikes") {
					t.Errorf("query missing topic: %q", q)
				}
			}
		})
	}
}

func TestBuildOverviewQueriesPrefixStable(t *testing.T) {
	// Deeper depths always extend the shallower query list, never reorder it.
	quick := BuildOverviewQueries("ai coding", DepthQuick)
	deep := BuildOverviewQueries("ai coding", DepthDeep)
	if len(deep) != 3 {
		t.Fatalf("expected 3 deep queries, got %d", len(deep))
	}
	if quick[0] != deep[0] {
		t.Errorf("quick query %q is not a prefix of deep queries", quick[0])
	}
	mid := BuildOverviewQueries("ai coding", DepthDefault)
	if mid[0] != deep[0] || mid[1] != deep[1] {
		t.Error("default queries are not a prefix of deep queries")
	}
}

func TestExtractCoreSubject(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{"plain topic", "electric bikes", "electric bikes"},
		{"interrogative prefix", "what are the best electric bikes", "electric bikes"},
		{"how to prefix", "how to use obsidian plugins", "obsidian plugins"},
		{"noise words stripped", "latest trending AI news", "ai"},
		{"content types kept", "best golang tutorial", "golang tutorial"},
		{"review kept", "top mechanical keyboard reviews", "mechanical keyboard reviews"},
		{"trailing punctuation", "what is the best standing desk?", "standing desk"},
		{"uppercase normalized", "What Are The Latest E-Bike Updates", "e-bike"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCoreSubject(tt.topic); got != tt.want {
				t.Errorf("ExtractCoreSubject(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestExtractCoreSubjectNeverEmpty(t *testing.T) {
	// All-noise topics fall back rather than producing an empty query.
	topics := []string{"best top latest", "  Trending News  ", "news"}
	for _, topic := range topics {
		if got := ExtractCoreSubject(topic); strings.TrimSpace(got) == "" {
			t.Errorf("ExtractCoreSubject(%q) returned empty string", topic)
		}
	}
}
