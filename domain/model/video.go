package model

import "time"

// VideoRecord represents one extracted video. VideoID is the unique key in
// persisted storage; a later extraction of the same id replaces the earlier one.
type VideoRecord struct {
	VideoID      string    `json:"videoId"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"publishedAt"`
	URL          string    `json:"url"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// ChannelRef identifies one subscribed channel.
type ChannelRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// VideoPage is one page of a channel's video listing as returned by the
// external API. NextPageToken is empty when the listing is exhausted.
type VideoPage struct {
	Videos        []VideoRecord `json:"videos"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

// ResultPage is a transient view over a query result. It is constructed per
// query and never persisted.
type ResultPage struct {
	Results      []VideoRecord `json:"results"`
	CurrentPage  int           `json:"currentPage"`
	TotalPages   int           `json:"totalPages"`
	TotalMatches int64         `json:"totalMatches"`
}

// TotalPages computes ceil(totalMatches / pageSize). Zero matches means zero pages.
func TotalPages(totalMatches int64, pageSize int) int {
	if totalMatches <= 0 || pageSize <= 0 {
		return 0
	}
	return int((totalMatches + int64(pageSize) - 1) / int64(pageSize))
}
