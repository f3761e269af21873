package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	youTubeAPIBaseURL  = "https://www.googleapis.com/youtube/v3"
	youTubeMaxPageSize = 100
	youTubeIDLength    = 11

	youTubeReasonCommentsDisabled = "commentsDisabled"
)

var youTubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// YouTubeSource scrapes comment threads through the YouTube Data API
type YouTubeSource struct {
	apiKey string
	client *resty.Client
}

type youTubeCommentsResponse struct {
	Items         []youTubeCommentThread `json:"items"`
	NextPageToken string                 `json:"nextPageToken"`
}

type youTubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

type youTubeCommentThread struct {
	ID      string `json:"id"`
	Snippet struct {
		TotalReplyCount int `json:"totalReplyCount"`
		TopLevelComment struct {
			ID      string `json:"id"`
			Snippet struct {
				TextDisplay       string `json:"textDisplay"`
				TextOriginal      string `json:"textOriginal"`
				AuthorDisplayName string `json:"authorDisplayName"`
				AuthorChannelURL  string `json:"authorChannelUrl"`
				PublishedAt       string `json:"publishedAt"`
				LikeCount         int    `json:"likeCount"`
			} `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

// NewYouTubeSource creates a new YouTube source
func NewYouTubeSource(apiKey string, timeout time.Duration) *YouTubeSource {
	return &YouTubeSource{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(youTubeAPIBaseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", "Aegis-Analyzer/1.0"),
	}
}

func (y *YouTubeSource) GetName() string {
	return "youtube"
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.apiKey != ""
}

// FetchComments pages through the most recent comment threads of videoID
func (y *YouTubeSource) FetchComments(ctx context.Context, videoID string, limit int) ([]models.RawComment, error) {
	if !y.IsEnabled() {
		logrus.Debug("YouTube source disabled - missing API key")
		return nil, ErrSourceDisabled
	}

	logrus.Infof("Scraping up to %d comments from video %s", limit, videoID)

	comments := make([]models.RawComment, 0, limit)
	pageToken := ""
	for len(comments) < limit {
		page, err := y.fetchPage(ctx, videoID, pageToken, min(youTubeMaxPageSize, limit-len(comments)))
		if err != nil {
			return nil, err
		}
		if page == nil {
			// Comments are disabled for this video
			logrus.Infof("Comments unavailable for video %s", videoID)
			break
		}

		for _, thread := range page.Items {
			if len(comments) >= limit {
				break
			}
			comments = append(comments, y.toRawComment(thread))
		}

		if page.NextPageToken == "" || len(page.Items) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}

	logrus.Infof("Scraped %d comments from video %s", len(comments), videoID)
	return comments, nil
}

func (y *YouTubeSource) fetchPage(ctx context.Context, videoID, pageToken string, pageSize int) (*youTubeCommentsResponse, error) {
	params := map[string]string{
		"part":       "snippet",
		"videoId":    videoID,
		"maxResults": strconv.Itoa(pageSize),
		"order":      "time",
		"textFormat": "plainText",
		"key":        y.apiKey,
	}
	if pageToken != "" {
		params["pageToken"] = pageToken
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/commentThreads")

	if err != nil {
		return nil, fmt.Errorf("youtube comments request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		// Comments disabled means nothing to scrape. Quota and permission
		// errors share the 403 status and must surface.
		if resp.StatusCode() == http.StatusForbidden && hasErrorReason(resp.Body(), youTubeReasonCommentsDisabled) {
			return nil, nil
		}
		return nil, fmt.Errorf("youtube comments API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var page youTubeCommentsResponse
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("failed to parse YouTube comments response: %w", err)
	}

	return &page, nil
}

func hasErrorReason(body []byte, reason string) bool {
	var apiErr youTubeErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return false
	}
	for _, e := range apiErr.Error.Errors {
		if e.Reason == reason {
			return true
		}
	}
	return false
}

func (y *YouTubeSource) toRawComment(thread youTubeCommentThread) models.RawComment {
	snippet := thread.Snippet.TopLevelComment.Snippet
	text := snippet.TextOriginal
	if text == "" {
		text = snippet.TextDisplay
	}

	raw := models.RawComment{
		"id":      thread.ID,
		"text":    text,
		"channel": snippet.AuthorChannelURL,
		"time":    snippet.PublishedAt,
		"likes":   snippet.LikeCount,
		"replies": thread.Snippet.TotalReplyCount,
	}
	if snippet.AuthorDisplayName != "" {
		raw["author"] = snippet.AuthorDisplayName
	}
	return raw
}

// ExtractVideoID accepts a bare 11-character id or a watch, short, embed or
// /v/ URL
func ExtractVideoID(urlOrID string) (string, error) {
	urlOrID = strings.TrimSpace(urlOrID)
	if len(urlOrID) == youTubeIDLength && !strings.Contains(urlOrID, "/") {
		return urlOrID, nil
	}

	for _, pattern := range youTubeURLPatterns {
		if match := pattern.FindStringSubmatch(urlOrID); match != nil {
			return match[1], nil
		}
	}

	return "", ErrInvalidVideoID
}

// VideoURL returns the canonical watch URL for a video id
func VideoURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}
