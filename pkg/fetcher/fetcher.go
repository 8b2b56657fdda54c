// Package fetcher turns raw LinkedIn API records into the archive's post
// model. Classification, media resolution and timestamp handling live here;
// the wire details stay in pkg/linkedin.
package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"liarchive/pkg/linkedin"
	"liarchive/pkg/logger"
	"liarchive/pkg/models"
	"liarchive/pkg/textutil"
)

// apiClient is the slice of the LinkedIn client the fetcher needs.
type apiClient interface {
	CollectPosts(authorURN string, pageSize, limit int) ([]linkedin.UGCPost, error)
}

// Fetcher retrieves an author's posts through the API and normalizes them.
type Fetcher struct {
	client   apiClient
	pageSize int
	logger   logger.Logger
}

// New creates a Fetcher over the given client.
func New(client apiClient, pageSize int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:   client,
		pageSize: pageSize,
		logger:   log,
	}
}

// FetchAll collects up to limit posts for the author (all posts when limit
// is 0) and normalizes each record. Records that cannot be normalized are
// skipped with a log entry; a page-level fetch failure still yields the
// records normalized so far, alongside the error.
func (f *Fetcher) FetchAll(authorURN string, limit int) ([]*models.Post, error) {
	raw, fetchErr := f.client.CollectPosts(authorURN, f.pageSize, limit)

	posts := make([]*models.Post, 0, len(raw))
	for i := range raw {
		post, err := f.normalize(&raw[i])
		if err != nil {
			f.logger.WarnWithFields("skipping record", map[string]interface{}{
				"id":    raw[i].ID,
				"error": err.Error(),
			})
			continue
		}
		posts = append(posts, post)
	}

	f.logger.InfoWithFields("normalized posts", map[string]interface{}{
		"fetched":    len(raw),
		"normalized": len(posts),
	})
	return posts, fetchErr
}

// normalize maps one raw record onto the post model.
func (f *Fetcher) normalize(raw *linkedin.UGCPost) (*models.Post, error) {
	if raw.ID == "" {
		// An API record always carries an ID; without one there is nothing
		// to key the archive entry on.
		return nil, fmt.Errorf("record has no ID")
	}

	share := raw.SpecificContent.ShareContent
	text := share.ShareCommentary.Text

	post, err := models.NewPost(raw.ID, linkedin.PostViewURL(raw.ID), text, f.createdAt(raw), classify(raw))
	if err != nil {
		return nil, err
	}

	post.Hashtags = textutil.ExtractHashtags(text)

	if raw.ReshareContext != nil {
		post.OriginalPostURL = linkedin.PostViewURL(raw.ReshareContext.Parent)
		post.RepostCommentary = text
	}

	for _, entry := range share.Media {
		mediaURL := resolveMediaURL(entry)
		if mediaURL == "" {
			// No usable URL on this entry, nothing to download.
			continue
		}
		media, err := models.NewMedia(mediaKind(share.ShareMediaCategory), mediaURL)
		if err != nil {
			continue
		}
		post.Media = append(post.Media, media)
	}

	return post, nil
}

// classify determines the post kind. A reshare context wins over everything;
// the ARTICLE media category and a poll section come next; anything else is
// an original post.
func classify(raw *linkedin.UGCPost) models.PostKind {
	share := raw.SpecificContent.ShareContent
	switch {
	case raw.ReshareContext != nil:
		return models.PostKindRepost
	case strings.EqualFold(share.ShareMediaCategory, "ARTICLE"):
		return models.PostKindArticle
	case hasSection(share.Poll):
		return models.PostKindPoll
	default:
		return models.PostKindOriginal
	}
}

// hasSection reports whether a raw JSON section is present and not the
// literal null the API sends for explicitly absent sections.
func hasSection(section json.RawMessage) bool {
	return len(section) > 0 && !bytes.Equal(section, []byte("null"))
}

// createdAt converts the millisecond epoch timestamp, falling back to the
// current time when the record carries none.
func (f *Fetcher) createdAt(raw *linkedin.UGCPost) time.Time {
	if raw.Created.Time <= 0 {
		f.logger.WarnWithFields("record has no timestamp, using current time", map[string]interface{}{
			"id": raw.ID,
		})
		return time.Now()
	}
	return time.UnixMilli(raw.Created.Time)
}

// resolveMediaURL picks the downloadable URL for a media entry: the original
// URL when present, otherwise the first thumbnail.
func resolveMediaURL(entry linkedin.MediaEntry) string {
	if entry.OriginalURL != "" {
		return entry.OriginalURL
	}
	if len(entry.Thumbnails) > 0 {
		return entry.Thumbnails[0].URL
	}
	return ""
}

// mediaKind maps the share media category onto a media kind. Unknown
// categories are treated as images so their bytes are still archived.
func mediaKind(category string) models.MediaKind {
	switch strings.ToUpper(category) {
	case "VIDEO":
		return models.MediaKindVideo
	case "DOCUMENT", "NATIVE_DOCUMENT":
		return models.MediaKindDocument
	default:
		return models.MediaKindImage
	}
}
