package sources

import (
	"context"
	"errors"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
)

var (
	// ErrSourceDisabled is returned when a source lacks its credentials
	ErrSourceDisabled = errors.New("source disabled: missing credentials")
	// ErrInvalidVideoID is returned when no video id can be extracted
	ErrInvalidVideoID = errors.New("invalid YouTube URL or video ID")
)

// Source interface defines the contract for all comment sources
type Source interface {
	GetName() string
	IsEnabled() bool
	// FetchComments returns at most limit raw comments for target, a video id
	// or a post/profile reference depending on the platform
	FetchComments(ctx context.Context, target string, limit int) ([]models.RawComment, error)
}
