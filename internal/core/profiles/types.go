package profiles

import "errors"

// ViewerState carries the server-reported relationship between the
// authenticated user and this actor. Following holds the viewer's own
// follow record URI, needed to unfollow.
type ViewerState struct {
	Following  *string `json:"following,omitempty"`
	FollowedBy *string `json:"followedBy,omitempty"`
}

// Profile is a detailed actor view from app.bsky.actor.getProfile
type Profile struct {
	DID            string      `json:"did"`
	Handle         string      `json:"handle"`
	DisplayName    string      `json:"displayName,omitempty"`
	Avatar         string      `json:"avatar,omitempty"`
	Description    string      `json:"description,omitempty"`
	Viewer         ViewerState `json:"viewer"`
	PostsCount     int64       `json:"postsCount"`
	FollowersCount int64       `json:"followersCount"`
	FollowsCount   int64       `json:"followsCount"`
}

// ErrProfileNotFound indicates the requested actor does not exist
var ErrProfileNotFound = errors.New("profile not found")
