package engine

// --- Depth knob ---

// Depth values control query count and result volume per source.
const (
	DepthQuick   = "quick"
	DepthDefault = "default"
	DepthDeep    = "deep"
)

// videoSearchCounts is how many videos to request per depth.
var videoSearchCounts = map[string]int{
	DepthQuick:   10,
	DepthDefault: 20,
	DepthDeep:    40,
}

// transcriptLimits is how many top videos get transcripts per depth.
var transcriptLimits = map[string]int{
	DepthQuick:   3,
	DepthDefault: 5,
	DepthDeep:    8,
}

// VideoCountForDepth returns the video search volume for a depth value.
func VideoCountForDepth(depth string) int {
	if n, ok := videoSearchCounts[depth]; ok {
		return n
	}
	return videoSearchCounts[DepthDefault]
}

// TranscriptLimitForDepth returns how many top videos to transcribe for a depth value.
func TranscriptLimitForDepth(depth string) int {
	if n, ok := transcriptLimits[depth]; ok {
		return n
	}
	return transcriptLimits[DepthDefault]
}

// --- Unified output records ---

// Date confidence levels for WebItem.
const (
	DateConfidenceHigh = "high"
	DateConfidenceLow  = "low"
)

// WebItem is the unified web result record shared across sources.
// URL is always non-empty; items with neither title nor snippet are dropped
// at the normalization boundary.
type WebItem struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	SourceDomain   string  `json:"source_domain"`
	Snippet        string  `json:"snippet"`
	Date           string  `json:"date,omitempty"` // ISO date (YYYY-MM-DD), empty if unknown
	DateConfidence string  `json:"date_confidence"`
	Relevance      float64 `json:"relevance"`
	WhyRelevant    string  `json:"why_relevant,omitempty"`
}

// Engagement holds video view/like/comment counts. Missing counts default to 0.
type Engagement struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// VideoItem is a normalized video search result.
type VideoItem struct {
	VideoID           string     `json:"video_id"`
	Title             string     `json:"title"`
	URL               string     `json:"url"`
	ChannelName       string     `json:"channel_name"`
	Date              string     `json:"date,omitempty"` // ISO date, empty if unknown
	Engagement        Engagement `json:"engagement"`
	Duration          string     `json:"duration,omitempty"` // ISO 8601 duration, empty if unknown
	Relevance         float64    `json:"relevance"`
	WhyRelevant       string     `json:"why_relevant,omitempty"`
	TranscriptSnippet string     `json:"transcript_snippet,omitempty"` // attached post-hoc
}
