package dto

// ChannelFailure records one channel the extraction run could not complete.
type ChannelFailure struct {
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	Error        string `json:"error"`
}

// ExtractionSummary reports the outcome of one extraction run.
type ExtractionSummary struct {
	ChannelsProcessed int              `json:"channelsProcessed"`
	VideosPersisted   int              `json:"videosPersisted"`
	Failures          []ChannelFailure `json:"failures,omitempty"`
}
