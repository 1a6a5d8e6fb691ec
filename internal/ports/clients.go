package ports

import (
	"context"
	"time"
)

// Profile is the subset of the graph profile used at link time.
type Profile struct {
	ID                string
	Username          string
	ProfilePictureURL string
}

// Media is one post or reel returned by the graph media listing.
type Media struct {
	ID        string
	MediaType string
	MediaURL  string
	Caption   string
	Timestamp time.Time
}

// Comment is one external comment on a media object.
type Comment struct {
	ID        string
	Text      string
	FromID    string
	FromName  string
	Timestamp time.Time
}

// SocialGraphClient wraps the platform graph API. All calls are
// network-bound; SendDirectMessage performs exactly one external call per
// invocation and classifies failures as *domain.DispatchError — retry policy
// stays with the caller.
type SocialGraphClient interface {
	GetProfile(ctx context.Context, accessToken, instagramUserID string) (Profile, error)
	GetMedia(ctx context.Context, accessToken, instagramUserID string, limit int) ([]Media, error)
	GetComments(ctx context.Context, accessToken, mediaID string) ([]Comment, error)
	SendDirectMessage(ctx context.Context, accessToken, recipientID, text string) error
}
