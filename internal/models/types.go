package models

// BlockCategory tags a fragment of page text by where it was found.
type BlockCategory string

const (
	BlockTitle       BlockCategory = "title"
	BlockPrice       BlockCategory = "price"
	BlockDescription BlockCategory = "description"
	BlockReview      BlockCategory = "review"
)

// BlockCategories lists the extraction categories in rule order.
func BlockCategories() []BlockCategory {
	return []BlockCategory{BlockTitle, BlockPrice, BlockDescription, BlockReview}
}

// Blocks maps each category to its fragments in document order.
type Blocks map[BlockCategory][]string

type KeywordCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

type Report struct {
	URL               string             `json:"url"`
	Domain            string             `json:"domain"`
	Title             []string           `json:"title"`
	DetectedPrice     []string           `json:"detected_price"`
	ReviewCount       int                `json:"review_count"`
	DriverScores      map[string]int     `json:"driver_scores"`
	DriverProportions map[string]float64 `json:"driver_proportions"`
	TopReviewKeywords []KeywordCount     `json:"top_review_keywords"`
	Note              string             `json:"note"`
}

// BatchRecord is one line of batch output; exactly one of Result and Error is set.
type BatchRecord struct {
	URL    string  `json:"url"`
	Result *Report `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}
