package models

// SummaryArticle is the subset of article fields used to build prompts.
type SummaryArticle struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	Published string `json:"published"`
}

// Summary is the gateway output for one summarization call.
type Summary struct {
	Text     string
	Headline string
	Body     string
}
