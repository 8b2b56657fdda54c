package models

import (
	"fmt"
	"time"
)

// PostKind classifies a post.
type PostKind string

const (
	PostKindOriginal PostKind = "original"
	PostKindRepost   PostKind = "repost"
	PostKindArticle  PostKind = "article"
	PostKindPoll     PostKind = "poll"
)

// MediaKind classifies a media attachment.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

// Media is a reference to an attachment of a post. LocalPath and Filename are
// unset until the file has been downloaded, after which they do not change.
type Media struct {
	Kind      MediaKind `json:"kind"`
	URL       string    `json:"url"`
	LocalPath string    `json:"local_path,omitempty"`
	Filename  string    `json:"filename,omitempty"`
}

// NewMedia constructs a validated media reference.
func NewMedia(kind MediaKind, url string) (*Media, error) {
	switch kind {
	case MediaKindImage, MediaKindVideo, MediaKindDocument:
	default:
		return nil, fmt.Errorf("media kind must be one of image, video, document; got %q", kind)
	}
	return &Media{Kind: kind, URL: url}, nil
}

// Post is the canonical post model that both the API and export normalizers
// converge to. Slug is unset until the archival writer assigns it, after
// which it does not change.
type Post struct {
	ID        string    `json:"id"`
	PostURL   string    `json:"post_url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Kind      PostKind  `json:"kind"`
	Media     []*Media  `json:"media,omitempty"`
	Hashtags  []string  `json:"hashtags,omitempty"`

	// Set only when Kind is PostKindRepost.
	OriginalPostURL  string `json:"original_post_url,omitempty"`
	RepostCommentary string `json:"repost_commentary,omitempty"`

	Slug string `json:"slug,omitempty"`
}

// NewPost constructs a validated post.
func NewPost(id, postURL, content string, createdAt time.Time, kind PostKind) (*Post, error) {
	switch kind {
	case PostKindOriginal, PostKindRepost, PostKindArticle, PostKindPoll:
	default:
		return nil, fmt.Errorf("post kind must be one of original, repost, article, poll; got %q", kind)
	}
	return &Post{
		ID:        id,
		PostURL:   postURL,
		Content:   content,
		CreatedAt: createdAt,
		Kind:      kind,
	}, nil
}

// IsRepost reports whether the post is a repost.
func (p *Post) IsRepost() bool {
	return p.Kind == PostKindRepost
}

// HasMedia reports whether the post has any media attachments.
func (p *Post) HasMedia() bool {
	return len(p.Media) > 0
}
