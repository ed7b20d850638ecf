package models

// Article is a single stored news item of a country dataset.
// Datasets declare no NOT NULL columns, so every text column is nullable.
type Article struct {
	ID        int64   `json:"id" db:"id"`
	Source    *string `json:"source" db:"source"`
	Title     *string `json:"title" db:"title"`
	URL       *string `json:"url" db:"url"`
	Published *string `json:"published" db:"published"`
	ScrapedAt *string `json:"scraped_at" db:"scraped_at"`
	Category  *string `json:"Category" db:"AI_tag"`
}

// Preview holds metadata scraped live from an article page.
type Preview struct {
	Description string  `json:"description"`
	Favicon     *string `json:"favicon"`
	Image       *string `json:"image"`
}

// ArticlePreview is an article merged with its optional live preview.
type ArticlePreview struct {
	Article
	Preview *Preview `json:"preview,omitempty"`
}

// Page is one page of a filtered article listing.
type Page struct {
	Articles   []Article `json:"articles"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}
