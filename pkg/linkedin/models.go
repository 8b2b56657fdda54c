package linkedin

import "encoding/json"

// UGCPostsResponse is one page of the UGC posts collection.
type UGCPostsResponse struct {
	Elements []UGCPost `json:"elements"`
	Paging   Paging    `json:"paging"`
}

// Paging carries the cursor metadata for a collection page.
type Paging struct {
	Start int          `json:"start"`
	Count int          `json:"count"`
	Total int          `json:"total"`
	Links []PagingLink `json:"links"`
}

// PagingLink is a rel/href pair advertised by the API.
type PagingLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// HasNext reports whether the API advertises a further page. Absence of a
// "next" link is a terminal condition for the collector.
func (p *Paging) HasNext() bool {
	for _, link := range p.Links {
		if link.Rel == "next" {
			return true
		}
	}
	return false
}

// UGCPost is one raw post record as returned by the API.
type UGCPost struct {
	ID              string          `json:"id"`
	Author          string          `json:"author"`
	Created         Created         `json:"created"`
	SpecificContent SpecificContent `json:"specificContent"`
	ReshareContext  *ReshareContext `json:"reshareContext,omitempty"`
}

// Created holds the creation timestamp in milliseconds since epoch.
type Created struct {
	Time int64 `json:"time"`
}

// SpecificContent wraps the share content under its namespaced key.
type SpecificContent struct {
	ShareContent ShareContent `json:"com.linkedin.ugc.ShareContent"`
}

// ShareContent is the body of a post: commentary, media category, and any
// attached media, article, or poll sections.
type ShareContent struct {
	ShareCommentary    Commentary      `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []MediaEntry    `json:"media,omitempty"`
	Article            json.RawMessage `json:"article,omitempty"`
	Poll               json.RawMessage `json:"poll,omitempty"`
}

// Commentary is the text body of a share.
type Commentary struct {
	Text string `json:"text"`
}

// MediaEntry is one attachment in the share content's media array.
type MediaEntry struct {
	Media       string      `json:"media"`
	OriginalURL string      `json:"originalUrl"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
}

// Thumbnail is a fallback URL for a media entry.
type Thumbnail struct {
	URL string `json:"url"`
}

// ReshareContext is present when the post is a reshare of another post.
type ReshareContext struct {
	Parent string `json:"parent"`
	Root   string `json:"root,omitempty"`
}

// UserProfile is the authenticated user's profile (OpenID Connect userinfo).
type UserProfile struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
