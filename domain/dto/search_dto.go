package dto

import "subtube/domain/model"

// SearchResultItem is the projection of a VideoRecord returned by the search endpoint.
type SearchResultItem struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description"`
}

// SearchResponse is the body of GET /search. A zero TotalPages signals no
// further pages. Seq echoes the caller's request sequence number so the page
// can discard responses that arrive after a newer request.
type SearchResponse struct {
	Results     []SearchResultItem `json:"results"`
	TotalPages  int                `json:"total_pages"`
	CurrentPage int                `json:"current_page"`
	Seq         string             `json:"seq,omitempty"`
}

// NewSearchResponse projects a ResultPage into the wire shape.
func NewSearchResponse(page *model.ResultPage, seq string) *SearchResponse {
	items := make([]SearchResultItem, 0, len(page.Results))
	for _, r := range page.Results {
		items = append(items, SearchResultItem{
			URL:          r.URL,
			Title:        r.Title,
			ChannelTitle: r.ChannelTitle,
			Description:  r.Description,
		})
	}
	return &SearchResponse{
		Results:     items,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Seq:         seq,
	}
}
