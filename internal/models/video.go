package models

import "fmt"

const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// Video represents a single channel video as returned to the frontend
type Video struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	PublishedAt string `json:"publishedAt"`
	Views       int64  `json:"views"`
	Likes       int64  `json:"likes"`
	VideoID     string `json:"videoId"`
	YouTubeURL  string `json:"youtubeUrl"`
	Duration    string `json:"duration"`
}

// WatchURL returns the canonical watch page for a video ID
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLFormat, videoID)
}

// Showcase is the full response of the videos endpoint
type Showcase struct {
	ChannelInfo ChannelSummary `json:"channelInfo"`
	Videos      []Video        `json:"videos"`
	TotalViews  int64          `json:"totalViews"`
}
