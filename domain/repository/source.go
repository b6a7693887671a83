package repository

import (
	"context"

	"subtube/domain/model"
)

// ISource talks to the external video platform for the authenticated user.
// Failures are reported as *apperror.AuthError, *apperror.RateLimitError or
// *apperror.TransientNetworkError.
type ISource interface {
	// ListSubscribedChannels returns every channel the user follows, paging
	// through the platform's own cursors internally.
	ListSubscribedChannels(ctx context.Context) ([]model.ChannelRef, error)
	// ListVideos returns one page of a channel's videos. Pass an empty
	// pageToken for the first page; the returned page carries the next token,
	// empty when the listing is exhausted.
	ListVideos(ctx context.Context, channelID, pageToken string) (*model.VideoPage, error)
}
