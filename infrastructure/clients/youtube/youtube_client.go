package youtube

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"subtube/domain/apperror"
	"subtube/domain/model"
	"subtube/domain/repository"
	"subtube/infrastructure/configuration"
	"subtube/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	maxPageSize    = 50
	callTimeout    = 30 * time.Second
	watchURLFormat = "https://www.youtube.com/watch?v=%s"
)

// Client implements repository.ISource on top of the YouTube Data API. All
// outbound calls pass through a shared rate limiter so the external quota is
// respected collectively regardless of how many channels are in flight.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient builds a source client from injected credential material. With an
// OAuth token pair it can list the user's subscriptions; in API-key mode
// subscription listing fails with an auth error, which the caller surfaces.
func NewClient(ctx context.Context, cfg *configuration.YouTubeConfig, limiter *rate.Limiter) (repository.ISource, error) {
	var service *youtube.Service
	var err error
	if cfg.AccessToken == "" && cfg.APIKey != "" {
		service, err = youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		token := &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-1 * time.Minute), // force refresh on first use
		}
		authClient := oauthConfig.Client(ctx, token)
		authClient.Timeout = callTimeout
		service, err = youtube.NewService(ctx, option.WithHTTPClient(authClient))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &Client{service: service, limiter: limiter, now: time.Now}, nil
}

// ListSubscribedChannels pages through the authenticated user's subscriptions.
func (c *Client) ListSubscribedChannels(ctx context.Context) ([]model.ChannelRef, error) {
	var channels []model.ChannelRef
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := c.service.Subscriptions.List([]string{"snippet"}).
			Mine(true).
			MaxResults(maxPageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		response, err := call.Context(callCtx).Do()
		cancel()
		if err != nil {
			return nil, classifyError(err)
		}

		for _, item := range response.Items {
			channels = append(channels, model.ChannelRef{
				ID:    item.Snippet.ResourceId.ChannelId,
				Title: item.Snippet.Title,
			})
		}
		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}
	logger.GetLogger().WithField("channels", len(channels)).Info("Listed subscribed channels")
	return channels, nil
}

// ListVideos fetches one page of a channel's uploads, newest first. The
// returned page carries the platform's cursor for the next page.
func (c *Client) ListVideos(ctx context.Context, channelID, pageToken string) (*model.VideoPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.service.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(maxPageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	response, err := call.Context(callCtx).Do()
	if err != nil {
		return nil, classifyError(err)
	}

	fetchedAt := c.now().UTC()
	videos := make([]model.VideoRecord, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, model.VideoRecord{
			VideoID:      item.Id.VideoId,
			ChannelID:    item.Snippet.ChannelId,
			ChannelTitle: item.Snippet.ChannelTitle,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			PublishedAt:  publishedAt,
			URL:          fmt.Sprintf(watchURLFormat, item.Id.VideoId),
			FetchedAt:    fetchedAt,
		})
	}

	return &model.VideoPage{
		Videos:        videos,
		NextPageToken: response.NextPageToken,
	}, nil
}

// classifyError maps API failures onto the typed taxonomy: 401/403 are
// credential problems, quota reasons and 429 are rate limits, everything that
// smells like connectivity (timeouts, 5xx, dial failures) is transient.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return &apperror.AuthError{Err: err}
		case gerr.Code == http.StatusForbidden && isQuotaReason(gerr):
			return &apperror.RateLimitError{RetryAfter: time.Minute, Err: err}
		case gerr.Code == http.StatusForbidden:
			return &apperror.AuthError{Err: err}
		case gerr.Code == http.StatusTooManyRequests:
			return &apperror.RateLimitError{RetryAfter: time.Minute, Err: err}
		case gerr.Code >= http.StatusInternalServerError:
			return &apperror.TransientNetworkError{Err: err}
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &apperror.TransientNetworkError{Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return &apperror.TransientNetworkError{Err: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &apperror.TransientNetworkError{Err: err}
	}
	return &apperror.TransientNetworkError{Err: err}
}

func isQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}
