package api

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sort"

	"github.com/yt-showcase/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ClientSource supplies an HTTP client authorized for the YouTube Data API
type ClientSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// Showcase assembles the channel summary and the sorted video list of one channel
type Showcase struct {
	channelID   string
	credentials ClientSource
	options     []option.ClientOption
	logger      *slog.Logger
}

// NewShowcase creates a builder for channelID. Extra client options are applied
// after the authorized HTTP client, e.g. to point at another endpoint.
func NewShowcase(channelID string, credentials ClientSource, logger *slog.Logger, opts ...option.ClientOption) *Showcase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Showcase{
		channelID:   channelID,
		credentials: credentials,
		options:     opts,
		logger:      logger,
	}
}

// Build fetches everything from the platform and returns the complete payload,
// or an error and nothing at all.
func (s *Showcase) Build(ctx context.Context) (*models.Showcase, error) {
	httpClient, err := s.credentials.Client(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, s.options...)
	client, err := NewYouTubeClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	channel, err := client.GetChannel(ctx, s.channelID)
	if err != nil {
		return nil, err
	}
	info, err := channelSummary(channel)
	if err != nil {
		return nil, err
	}

	videos := []models.Video{}
	var totalViews int64
	pages := 0
	err = client.EachVideoPage(ctx, s.channelID, func(page []*youtube.Video) error {
		pages++
		for _, item := range page {
			video, err := videoRecord(item)
			if err != nil {
				return err
			}
			videos = append(videos, video)
			totalViews += video.Views
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByViews(videos)

	s.logger.Debug("showcase built",
		slog.String("channel", s.channelID),
		slog.Int("pages", pages),
		slog.Int("videos", len(videos)),
		slog.Int64("totalViews", totalViews))

	return &models.Showcase{
		ChannelInfo: info,
		Videos:      videos,
		TotalViews:  totalViews,
	}, nil
}

func channelSummary(channel *youtube.Channel) (models.ChannelSummary, error) {
	if channel.Snippet == nil {
		return models.ChannelSummary{}, models.NewSerializationError("channel response has no snippet")
	}

	summary := models.ChannelSummary{Name: channel.Snippet.Title}
	if stats := channel.Statistics; stats != nil {
		summary.TotalViews = count(stats.ViewCount)
		summary.SubscriberCount = count(stats.SubscriberCount)
		summary.VideoCount = count(stats.VideoCount)
	}
	return summary, nil
}

// videoRecord flattens a video resource. Missing counters read as zero; a missing
// snippet, high thumbnail or content details block is a serialization error.
func videoRecord(item *youtube.Video) (models.Video, error) {
	if item == nil || item.Id == "" {
		return models.Video{}, models.NewSerializationError("video resource without an ID")
	}
	if item.Snippet == nil {
		return models.Video{}, models.NewSerializationError("video " + item.Id + " has no snippet")
	}
	if item.Snippet.Thumbnails == nil || item.Snippet.Thumbnails.High == nil {
		return models.Video{}, models.NewSerializationError("video " + item.Id + " has no high thumbnail")
	}
	if item.ContentDetails == nil {
		return models.Video{}, models.NewSerializationError("video " + item.Id + " has no content details")
	}

	video := models.Video{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Thumbnail:   item.Snippet.Thumbnails.High.Url,
		PublishedAt: item.Snippet.PublishedAt,
		VideoID:     item.Id,
		YouTubeURL:  models.WatchURL(item.Id),
		Duration:    item.ContentDetails.Duration,
	}
	if stats := item.Statistics; stats != nil {
		video.Views = count(stats.ViewCount)
		video.Likes = count(stats.LikeCount)
	}
	return video, nil
}

// count converts a platform counter, saturating at MaxInt64
func count(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// sortByViews orders videos by view count, most viewed first, keeping platform order for ties
func sortByViews(videos []models.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Views > videos[j].Views
	})
}
