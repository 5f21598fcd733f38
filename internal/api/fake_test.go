package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

// fakeVideo describes one video served by fakeYouTube
type fakeVideo struct {
	ID        string
	Title     string
	Views     *uint64
	Likes     *uint64
	NoThumb   bool
	Duration  string
	Published string
}

func views(n uint64) *uint64 { return &n }

func (v fakeVideo) resource() map[string]any {
	stats := map[string]any{}
	if v.Views != nil {
		stats["viewCount"] = strconv.FormatUint(*v.Views, 10)
	}
	if v.Likes != nil {
		stats["likeCount"] = strconv.FormatUint(*v.Likes, 10)
	}

	thumbs := map[string]any{
		"default": map[string]any{"url": "https://i.ytimg.com/vi/" + v.ID + "/default.jpg"},
	}
	if !v.NoThumb {
		thumbs["high"] = map[string]any{"url": "https://i.ytimg.com/vi/" + v.ID + "/hqdefault.jpg"}
	}

	duration := v.Duration
	if duration == "" {
		duration = "PT1M"
	}
	published := v.Published
	if published == "" {
		published = "2024-01-01T00:00:00Z"
	}

	return map[string]any{
		"id": v.ID,
		"snippet": map[string]any{
			"title":       v.Title,
			"description": "about " + v.Title,
			"publishedAt": published,
			"thumbnails":  thumbs,
		},
		"statistics":     stats,
		"contentDetails": map[string]any{"duration": duration},
	}
}

// fakeYouTube serves the subset of the YouTube Data API v3 the showcase uses
type fakeYouTube struct {
	t *testing.T
	*httptest.Server

	channels []map[string]any
	// search pages, each a list of video IDs
	pages  [][]string
	videos map[string]fakeVideo

	failSearch bool
	failVideos bool

	mu           sync.Mutex
	searchCalls  int
	videosCalls  int
	requestedIDs []string
	authHeaders  []string
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	t.Helper()
	f := &fakeYouTube{
		t: t,
		channels: []map[string]any{{
			"id":      "UC-test",
			"snippet": map[string]any{"title": "Test Channel"},
			"statistics": map[string]any{
				"viewCount":       "123456",
				"subscriberCount": "789",
				"videoCount":      "3",
			},
		}},
		videos: map[string]fakeVideo{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", f.handleChannels)
	mux.HandleFunc("/youtube/v3/search", f.handleSearch)
	mux.HandleFunc("/youtube/v3/videos", f.handleVideos)
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeYouTube) addVideos(page []fakeVideo) {
	ids := make([]string, 0, len(page))
	for _, v := range page {
		f.videos[v.ID] = v
		ids = append(ids, v.ID)
	}
	f.pages = append(f.pages, ids)
}

func (f *fakeYouTube) options() []option.ClientOption {
	return []option.ClientOption{option.WithEndpoint(f.URL + "/")}
}

func (f *fakeYouTube) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode fake response: %v", err)
	}
}

func (f *fakeYouTube) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, msg)
}

func (f *fakeYouTube) handleChannels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if part := joined(q, "part"); part != "snippet,statistics" {
		f.t.Errorf("channels.list part = %q", part)
	}
	if q.Get("id") == "" {
		f.t.Errorf("channels.list without id")
	}
	f.writeJSON(w, map[string]any{"items": f.channels})
}

func (f *fakeYouTube) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()

	if f.failSearch {
		f.writeError(w, http.StatusForbidden, "quotaExceeded")
		return
	}

	q := r.URL.Query()
	if q.Get("type") != "video" || q.Get("maxResults") != "50" || q.Get("channelId") == "" {
		f.t.Errorf("unexpected search query: %s", r.URL.RawQuery)
	}

	index := 0
	if token := q.Get("pageToken"); token != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(token, "page-"))
		if err != nil {
			f.writeError(w, http.StatusBadRequest, "bad page token")
			return
		}
		index = n
	}

	items := []map[string]any{}
	if index < len(f.pages) {
		for _, id := range f.pages[index] {
			items = append(items, map[string]any{
				"kind": "youtube#searchResult",
				"id":   map[string]any{"kind": "youtube#video", "videoId": id},
			})
		}
	}

	resp := map[string]any{"items": items}
	if index+1 < len(f.pages) {
		resp["nextPageToken"] = fmt.Sprintf("page-%d", index+1)
	}
	f.writeJSON(w, resp)
}

func (f *fakeYouTube) handleVideos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.videosCalls++
	f.mu.Unlock()

	if f.failVideos {
		f.writeError(w, http.StatusInternalServerError, "backendError")
		return
	}

	q := r.URL.Query()
	if part := joined(q, "part"); part != "snippet,statistics,contentDetails" {
		f.t.Errorf("videos.list part = %q", part)
	}

	ids := strings.Split(joined(q, "id"), ",")
	if len(ids) > 50 {
		f.t.Errorf("videos.list called with %d ids", len(ids))
	}

	f.mu.Lock()
	f.requestedIDs = append(f.requestedIDs, ids...)
	f.mu.Unlock()

	items := []map[string]any{}
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			items = append(items, v.resource())
		}
	}
	f.writeJSON(w, map[string]any{"items": items})
}

func (f *fakeYouTube) counts() (search, videos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.videosCalls
}

// authorizations returns the Authorization header of every request received
func (f *fakeYouTube) authorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

// joined accepts both repeated and comma separated list parameters
func joined(q url.Values, key string) string {
	return strings.Join(q[key], ",")
}

// staticClients is a ClientSource returning a fixed client or error
type staticClients struct {
	client *http.Client
	err    error
}

func (s staticClients) Client(context.Context) (*http.Client, error) {
	return s.client, s.err
}
