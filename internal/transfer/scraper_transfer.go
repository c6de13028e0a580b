package transfer

// ScraperErrorResponse is the error envelope the scraping platform returns
// on non-2xx responses.
type ScraperErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ScrapeInput is the actor input shared by the profile scrapers: who to
// scrape and how many recent items to bring back.
type ScrapeInput struct {
	Usernames    []string `json:"usernames"`
	ResultsLimit int      `json:"resultsLimit"`
}
