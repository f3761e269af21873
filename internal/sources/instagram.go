package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const apifyAPIBaseURL = "https://api.apify.com/v2"

// InstagramSource scrapes post comments through an Apify Instagram actor
type InstagramSource struct {
	token   string
	actorID string
	client  *resty.Client
}

type apifyRunInput struct {
	DirectURLs            []string `json:"directUrls"`
	ResultsType           string   `json:"resultsType"`
	ResultsLimit          int      `json:"resultsLimit"`
	Comments              bool     `json:"comments"`
	IncludeCommentReplies bool     `json:"includeCommentReplies"`
	CommentsLimit         int      `json:"commentsLimit"`
}

type apifyItem struct {
	URL            string         `json:"url"`
	LatestComments []apifyComment `json:"latestComments"`
}

type apifyComment struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	OwnerUsername string `json:"ownerUsername"`
	Timestamp     string `json:"timestamp"`
	LikesCount    int    `json:"likesCount"`
	RepliesCount  int    `json:"repliesCount"`
}

// NewInstagramSource creates a new Instagram source
func NewInstagramSource(token, actorID string, timeout time.Duration) *InstagramSource {
	return &InstagramSource{
		token:   token,
		actorID: actorID,
		client: resty.New().
			SetBaseURL(apifyAPIBaseURL).
			SetTimeout(timeout),
	}
}

func (i *InstagramSource) GetName() string {
	return "instagram"
}

func (i *InstagramSource) IsEnabled() bool {
	return i.token != "" && i.actorID != ""
}

// TargetURL resolves a post URL or a username (with or without @) into the
// URL handed to the actor. The second result reports whether it is a profile.
func TargetURL(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target, false
	}
	return fmt.Sprintf("https://www.instagram.com/%s/", strings.TrimPrefix(target, "@")), true
}

// FetchComments runs the actor synchronously and collects latestComments
// across the returned items, up to limit
func (i *InstagramSource) FetchComments(ctx context.Context, target string, limit int) ([]models.RawComment, error) {
	if !i.IsEnabled() {
		logrus.Debug("Instagram source disabled - missing Apify token or actor id")
		return nil, ErrSourceDisabled
	}

	targetURL, isProfile := TargetURL(target)
	input := apifyRunInput{
		DirectURLs:            []string{targetURL},
		ResultsType:           "posts",
		ResultsLimit:          1,
		Comments:              true,
		IncludeCommentReplies: true,
		CommentsLimit:         limit,
	}
	if isProfile {
		input.ResultsLimit = 5
	}

	logrus.Infof("Running Apify actor for %s (limit %d)", targetURL, limit)

	resp, err := i.client.R().
		SetContext(ctx).
		SetQueryParam("token", i.token).
		SetHeader("Content-Type", "application/json").
		SetBody(input).
		Post(fmt.Sprintf("/acts/%s/run-sync-get-dataset-items", url.PathEscape(i.actorID)))

	if err != nil {
		return nil, fmt.Errorf("apify request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("apify returned status %d", resp.StatusCode())
	}

	var items []apifyItem
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("failed to parse Apify response: %w", err)
	}

	comments := make([]models.RawComment, 0, limit)
	for _, item := range items {
		for _, c := range item.LatestComments {
			if len(comments) >= limit {
				return comments, nil
			}
			comments = append(comments, models.RawComment{
				"id":            c.ID,
				"text":          c.Text,
				"ownerUsername": c.OwnerUsername,
				"timestamp":     c.Timestamp,
				"likesCount":    c.LikesCount,
				"repliesCount":  c.RepliesCount,
			})
		}
	}

	logrus.Infof("Collected %d Instagram comments from %s", len(comments), targetURL)
	return comments, nil
}
