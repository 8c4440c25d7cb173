package model

// NewsArticle is one normalized headline.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
}

// NoNewsPlaceholder is returned as the only article when no news could be fetched.
func NoNewsPlaceholder() NewsArticle {
	return NewsArticle{Title: NoNews}
}

// TruncateNews keeps at most limit articles in source order.
func TruncateNews(articles []NewsArticle, limit int) []NewsArticle {
	if limit < 0 || len(articles) <= limit {
		return articles
	}
	return articles[:limit]
}
