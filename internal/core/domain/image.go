package domain

// ImageSource identifies the provider an ImageCandidate came from.
type ImageSource string

// Image sources in cascade priority order.
const (
	ImageSourceStructuredDB  ImageSource = "structured-db"
	ImageSourceMediaCommons  ImageSource = "media-commons"
	ImageSourceEncyclopedic  ImageSource = "encyclopedic"
	ImageSourceOpenGraph     ImageSource = "open-graph"
	ImageSourceStockPhoto    ImageSource = "stock-photo"
	ImageSourceAIPlaceholder ImageSource = "ai-placeholder"
)

// ValidationStatus is the review state of an ImageCandidate.
type ValidationStatus string

// Validation statuses.
const (
	ImageValid       ValidationStatus = "valid"
	ImageNeedsReview ValidationStatus = "needs_review"
	ImageRejected    ValidationStatus = "rejected"
)

// ImageMetadata is whatever a provider can tell about an image.
// Zero width or height means unknown.
type ImageMetadata struct {
	Width       int
	Height      int
	AspectRatio float64
	HasFace     *bool
	License     string
	Author      string
	SourceURL   string
	// EmotionMatch in [0,1] says how well the image matches the requested emotion.
	EmotionMatch *float64
}

// ImageCandidate is one image returned by one provider for one selection call.
type ImageCandidate struct {
	URL              string
	Source           ImageSource
	Score            float64
	Metadata         ImageMetadata
	ValidationStatus ValidationStatus
}

// ImageContext describes what an image is needed for.
type ImageContext struct {
	Query         string
	EntityType    string
	PreferFace    bool
	Emotion       string
	ReferenceURLs []string
}

// ImageSelection is the result of one selection call. SelectedImage is nil when
// no valid candidate was found.
type ImageSelection struct {
	SelectedImage   *ImageCandidate
	Candidates      []ImageCandidate
	SelectionReason string
}
