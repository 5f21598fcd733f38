package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/yt-showcase/internal/metrics"
	"github.com/yt-showcase/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube Data API caps search and videos pages at 50 items
const maxResultsPerPage = 50

var (
	channelParts = []string{"snippet", "statistics"}
	searchParts  = []string{"id", "snippet"}
	videoParts   = []string{"snippet", "statistics", "contentDetails"}
)

// YouTubeClient wraps the YouTube Data API service
type YouTubeClient struct {
	service *youtube.Service
}

// NewYouTubeClient creates a new YouTube client
func NewYouTubeClient(ctx context.Context, opts ...option.ClientOption) (*YouTubeClient, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, models.NewUpstreamError("failed to create YouTube service", err)
	}
	return &YouTubeClient{service: service}, nil
}

// GetChannel fetches snippet and statistics of the channel with the given ID.
// Anything other than exactly one matching channel is an upstream error.
func (c *YouTubeClient) GetChannel(ctx context.Context, channelID string) (*youtube.Channel, error) {
	response, err := c.service.Channels.List(channelParts).Id(channelID).Context(ctx).Do()
	metrics.ObserveCall("channels.list", err)
	if err != nil {
		return nil, callError("error fetching channel info", err)
	}

	switch len(response.Items) {
	case 0:
		return nil, models.NewUpstreamError(fmt.Sprintf("channel %s not found", channelID), nil)
	case 1:
		return response.Items[0], nil
	default:
		return nil, models.NewUpstreamError(fmt.Sprintf("channel %s matched %d channels", channelID, len(response.Items)), nil)
	}
}

// EachVideoPage walks the channel's video search results page by page and passes
// the full video resources of each page to fn, until the last page or the first
// error. A video ID reported on more than one page is only fetched once.
func (c *YouTubeClient) EachVideoPage(ctx context.Context, channelID string, fn func([]*youtube.Video) error) error {
	seen := make(map[string]struct{})

	call := c.service.Search.List(searchParts).
		ChannelId(channelID).
		Type("video").
		MaxResults(maxResultsPerPage)

	err := call.Pages(ctx, func(page *youtube.SearchListResponse) error {
		metrics.ObserveCall("search.list", nil)

		videoIDs := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			if item == nil || item.Id == nil || item.Id.VideoId == "" {
				return models.NewSerializationError("search result without a video ID")
			}
			if _, ok := seen[item.Id.VideoId]; ok {
				continue
			}
			seen[item.Id.VideoId] = struct{}{}
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
		if len(videoIDs) == 0 {
			return nil
		}

		videos, err := c.service.Videos.List(videoParts).Id(videoIDs...).Context(ctx).Do()
		metrics.ObserveCall("videos.list", err)
		if err != nil {
			return callError("error fetching video details", err)
		}
		return fn(videos.Items)
	})
	if err != nil {
		var appErr *models.Error
		if errors.As(err, &appErr) {
			return err
		}
		metrics.ObserveCall("search.list", err)
		return callError("error fetching channel videos", err)
	}
	return nil
}

// callError classifies a failed SDK call. A token refresh rejected by the
// authorization server surfaces through the transport and is an authentication failure.
func callError(msg string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return models.NewAuthenticationError("failed to refresh credential", err)
	}
	return models.NewUpstreamError(msg, err)
}
