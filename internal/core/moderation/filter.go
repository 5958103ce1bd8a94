// Package moderation implements the content-safety policy applied to feed,
// search and hashtag data before it reaches callers. Posts carrying any
// label in the block-set are invisible to the rest of the app.
package moderation

import (
	"regexp"
	"strings"

	"skyframe/internal/core/posts"
)

// blockedLabels is the fixed set of Bluesky moderation labels that make a
// post invisible. Matches the official adult-content label values.
var blockedLabels = map[string]struct{}{
	"porn":          {},
	"sexual":        {},
	"nudity":        {},
	"graphic-media": {},
	"!hide":         {},
}

// blockedHashtagWords is a backup blocklist for hashtag discovery, since
// hashtags carry no labels of their own.
var blockedHashtagWords = []string{
	"nsfw", "porn", "xxx", "adult", "nude", "naked", "onlyfans", "sex", "sexy",
}

// hashtagPattern matches #tags including Hangul, mirroring the tag syntax
// the app indexes from post text.
var hashtagPattern = regexp.MustCompile(`#[\w가-힣]+`)

// IsSafePost reports whether a post carries no blocked moderation label
func IsSafePost(p posts.Post) bool {
	for _, label := range p.Labels {
		if _, blocked := blockedLabels[strings.ToLower(label)]; blocked {
			return false
		}
	}
	return true
}

// IsSafeFeedItem applies IsSafePost to the wrapped post
func IsSafeFeedItem(item posts.FeedItem) bool {
	return IsSafePost(item.Post)
}

// FilterPosts returns posts with all label-blocked entries removed
func FilterPosts(in []posts.Post) []posts.Post {
	out := make([]posts.Post, 0, len(in))
	for _, p := range in {
		if IsSafePost(p) {
			out = append(out, p)
		}
	}
	return out
}

// ExtractHashtags returns the lowercased hashtags found in text, without
// the leading '#'
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(strings.TrimPrefix(m, "#")))
	}
	return tags
}

// IsSafeHashtag validates a hashtag for discovery surfaces: sane length,
// at least one letter, and not on the word blocklist
func IsSafeHashtag(tag string) bool {
	clean := strings.ToLower(strings.TrimPrefix(tag, "#"))

	if len(clean) < 2 || len(clean) > 30 {
		return false
	}

	hasLetter := false
	for _, r := range clean {
		if (r >= 'a' && r <= 'z') || (r >= '가' && r <= '힣') {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	for _, word := range blockedHashtagWords {
		if strings.Contains(clean, word) {
			return false
		}
	}
	return true
}

// FilterHashtags drops tags that fail IsSafeHashtag
func FilterHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if IsSafeHashtag(tag) {
			out = append(out, tag)
		}
	}
	return out
}
