package domain

// ContentSource records how a draft was produced.
type ContentSource string

// Content sources.
const (
	ContentSourceAI       ContentSource = "ai"
	ContentSourceFallback ContentSource = "fallback"
)

// ContentDraft is the synthesis output for one topic.
// Callers must check Source and Confidence before accepting it.
type ContentDraft struct {
	Topic      string
	Title      string
	Body       string
	Tags       []string
	Slug       string
	ImageURL   string
	Confidence float64
	Source     ContentSource
	// ImageReason explains the image selection outcome.
	ImageReason string
}

// PublishableDraft is a validated draft stripped of pipeline-internal fields.
type PublishableDraft struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	Slug     string   `json:"slug"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Publishable strips confidence and provenance from the draft.
func (d ContentDraft) Publishable() PublishableDraft {
	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)

	return PublishableDraft{
		Topic:    d.Topic,
		Title:    d.Title,
		Body:     d.Body,
		Tags:     tags,
		Slug:     d.Slug,
		ImageURL: d.ImageURL,
	}
}
