package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/config"
	"github.com/advista/advista-server-go/internal/model"
)

const transcriptBaseURL = "https://www.youtube.com/api/timedtext"

var (
	watchIDPattern  = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`)
	shortsIDPattern = regexp.MustCompile(`/shorts/([a-zA-Z0-9_-]{11})`)
)

// ExtractVideoID pulls the 11-character video ID out of a watch or shorts URL.
func ExtractVideoID(link string) string {
	if link == "" {
		return ""
	}
	if m := watchIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := shortsIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// YouTubeService searches YouTube via SerpAPI and fetches caption transcripts
// for the top videos and shorts.
type YouTubeService struct {
	serp   *SerpClient
	client *http.Client
}

func NewYouTubeService(serp *SerpClient, timeout time.Duration) *YouTubeService {
	return &YouTubeService{
		serp: serp,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type youtubeResponse struct {
	VideoResults []struct {
		Title         string          `json:"title"`
		Link          string          `json:"link"`
		Channel       json.RawMessage `json:"channel"`
		PublishedDate string          `json:"published_date"`
		Views         *int64          `json:"views"`
		Length        string          `json:"length"`
		Description   string          `json:"description"`
	} `json:"video_results"`
	ShortsResults []struct {
		Shorts []struct {
			Title         string `json:"title"`
			Link          string `json:"link"`
			Views         *int64 `json:"views"`
			ViewsOriginal string `json:"views_original"`
			VideoID       string `json:"video_id"`
		} `json:"shorts"`
	} `json:"shorts_results"`
}

// channel may arrive as an object or a bare string depending on result type.
func channelName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// Research searches YouTube and returns the top videos and shorts with
// transcripts attached. Transcript failures leave the field empty.
func (s *YouTubeService) Research(ctx context.Context, query string) (*model.YouTubeInsights, error) {
	body, err := s.serp.Search(ctx, query, EngineYouTube)
	if err != nil {
		return nil, err
	}

	var parsed youtubeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse youtube response: %w", err)
	}

	insights := &model.YouTubeInsights{
		Query:  query,
		Videos: []model.YouTubeVideoResult{},
		Shorts: []model.YouTubeShortResult{},
	}

	for _, item := range parsed.VideoResults {
		if len(insights.Videos) >= config.TopVideosCount {
			break
		}
		videoID := ExtractVideoID(item.Link)
		if videoID == "" {
			continue
		}
		insights.Videos = append(insights.Videos, model.YouTubeVideoResult{
			Title:         item.Title,
			Link:          item.Link,
			Channel:       channelName(item.Channel),
			PublishedDate: item.PublishedDate,
			Views:         item.Views,
			Length:        item.Length,
			Description:   item.Description,
			VideoID:       videoID,
			Transcript:    s.fetchTranscript(ctx, videoID),
		})
	}

	for _, section := range parsed.ShortsResults {
		for _, short := range section.Shorts {
			if len(insights.Shorts) >= config.TopShortsCount {
				break
			}
			videoID := short.VideoID
			if videoID == "" {
				videoID = ExtractVideoID(short.Link)
			}
			if videoID == "" {
				continue
			}
			insights.Shorts = append(insights.Shorts, model.YouTubeShortResult{
				Title:         short.Title,
				Link:          short.Link,
				Views:         short.Views,
				ViewsOriginal: short.ViewsOriginal,
				VideoID:       videoID,
				Transcript:    s.fetchTranscript(ctx, videoID),
			})
		}
	}

	log.Info().
		Int("videos", len(insights.Videos)).
		Int("shorts", len(insights.Shorts)).
		Msg("youtube research completed")

	return insights, nil
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (s *YouTubeService) fetchTranscript(ctx context.Context, videoID string) string {
	params := url.Values{}
	params.Set("lang", "en")
	params.Set("v", videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transcriptBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("videoId", videoID).Msg("transcript fetch failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("videoId", videoID).Msg("transcript unavailable")
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return ""
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		log.Warn().Err(err).Str("videoId", videoID).Msg("transcript parse failed")
		return ""
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		if v := strings.TrimSpace(html.UnescapeString(t.Value)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
