package linkedin

import (
	"fmt"
	"strings"
)

const (
	// BaseURL is the LinkedIn API v2 base.
	BaseURL = "https://api.linkedin.com/v2"

	// UserInfoURL returns the authenticated user's OpenID profile.
	UserInfoURL = BaseURL + "/userinfo"

	// UGCPostsURL is the posts collection endpoint.
	UGCPostsURL = BaseURL + "/ugcPosts"

	// maxPageSize is the largest page the API accepts.
	maxPageSize = 50
)

// PostViewURL rebuilds the canonical viewing URL for a post URN such as
// urn:li:share:7012345678901234567 or urn:li:ugcPost:7012345678901234567.
func PostViewURL(postURN string) string {
	segments := strings.Split(postURN, ":")
	activityID := segments[len(segments)-1]
	return fmt.Sprintf("https://www.linkedin.com/feed/update/urn:li:activity:%s/", activityID)
}

// PersonURN builds a person URN from a profile's OpenID subject.
func PersonURN(sub string) string {
	return "urn:li:person:" + sub
}
