package fetcher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liarchive/pkg/linkedin"
	"liarchive/pkg/logger"
	"liarchive/pkg/models"
)

type stubClient struct {
	posts []linkedin.UGCPost
	err   error
}

func (s *stubClient) CollectPosts(authorURN string, pageSize, limit int) ([]linkedin.UGCPost, error) {
	return s.posts, s.err
}

func rawPost(id, text string, createdMs int64) linkedin.UGCPost {
	return linkedin.UGCPost{
		ID:      id,
		Author:  "urn:li:person:abc123",
		Created: linkedin.Created{Time: createdMs},
		SpecificContent: linkedin.SpecificContent{
			ShareContent: linkedin.ShareContent{
				ShareCommentary:    linkedin.Commentary{Text: text},
				ShareMediaCategory: "NONE",
			},
		},
	}
}

func TestFetchAllNormalizesOriginal(t *testing.T) {
	created := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	client := &stubClient{posts: []linkedin.UGCPost{
		rawPost("urn:li:share:100", "Hello #golang world", created.UnixMilli()),
	}}

	f := New(client, 50, logger.NewTestLogger())
	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.Equal(t, "urn:li:share:100", p.ID)
	assert.Equal(t, models.PostKindOriginal, p.Kind)
	assert.Equal(t, "Hello #golang world", p.Content)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:100/", p.PostURL)
	assert.True(t, created.Equal(p.CreatedAt))
	assert.Equal(t, []string{"golang"}, p.Hashtags)
	assert.Empty(t, p.OriginalPostURL)
}

func TestClassification(t *testing.T) {
	article := rawPost("urn:li:share:2", "read this", 1000)
	article.SpecificContent.ShareContent.ShareMediaCategory = "ARTICLE"

	poll := rawPost("urn:li:share:3", "vote now", 1000)
	poll.SpecificContent.ShareContent.Poll = json.RawMessage(`{"question":"?"}`)

	repost := rawPost("urn:li:share:4", "agreed!", 1000)
	repost.ReshareContext = &linkedin.ReshareContext{Parent: "urn:li:share:1"}

	// A reshare context outranks an article marker.
	repostArticle := rawPost("urn:li:share:5", "sharing this article", 1000)
	repostArticle.SpecificContent.ShareContent.ShareMediaCategory = "ARTICLE"
	repostArticle.ReshareContext = &linkedin.ReshareContext{Parent: "urn:li:share:1"}

	client := &stubClient{posts: []linkedin.UGCPost{
		rawPost("urn:li:share:1", "plain", 1000), article, poll, repost, repostArticle,
	}}

	f := New(client, 50, logger.NewTestLogger())
	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 5)

	assert.Equal(t, models.PostKindOriginal, posts[0].Kind)
	assert.Equal(t, models.PostKindArticle, posts[1].Kind)
	assert.Equal(t, models.PostKindPoll, posts[2].Kind)
	assert.Equal(t, models.PostKindRepost, posts[3].Kind)
	assert.Equal(t, models.PostKindRepost, posts[4].Kind)
}

func TestClassificationIgnoresNullSections(t *testing.T) {
	plain := rawPost("urn:li:share:30", "plain with nulls", 1000)
	plain.SpecificContent.ShareContent.Article = json.RawMessage(`null`)
	plain.SpecificContent.ShareContent.Poll = json.RawMessage(`null`)

	// An article section alone does not make an article post; only the
	// ARTICLE media category does.
	linkPreview := rawPost("urn:li:share:31", "link preview", 1000)
	linkPreview.SpecificContent.ShareContent.Article = json.RawMessage(`{"title":"t"}`)

	client := &stubClient{posts: []linkedin.UGCPost{plain, linkPreview}}
	f := New(client, 50, logger.NewTestLogger())

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, models.PostKindOriginal, posts[0].Kind)
	assert.Equal(t, models.PostKindOriginal, posts[1].Kind)
}

func TestSkipsRecordWithoutID(t *testing.T) {
	log := logger.NewTestLogger()
	client := &stubClient{posts: []linkedin.UGCPost{
		rawPost("", "record without an id", 1000),
		rawPost("urn:li:share:20", "record with an id", 1000),
	}}
	f := New(client, 50, log)

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "urn:li:share:20", posts[0].ID)
	assert.True(t, log.HasMessage("WARN", "skipping record"))
}

func TestRepostCarriesOriginalLink(t *testing.T) {
	repost := rawPost("urn:li:share:9", "worth a read", 1000)
	repost.ReshareContext = &linkedin.ReshareContext{Parent: "urn:li:ugcPost:777"}

	client := &stubClient{posts: []linkedin.UGCPost{repost}}
	f := New(client, 50, logger.NewTestLogger())

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.True(t, posts[0].IsRepost())
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:777/", posts[0].OriginalPostURL)
	assert.Equal(t, "worth a read", posts[0].RepostCommentary)
}

func TestMediaResolution(t *testing.T) {
	post := rawPost("urn:li:share:10", "pictures", 1000)
	post.SpecificContent.ShareContent.ShareMediaCategory = "IMAGE"
	post.SpecificContent.ShareContent.Media = []linkedin.MediaEntry{
		{Media: "urn:li:digitalmediaAsset:1", OriginalURL: "https://cdn.example.com/a.jpg"},
		{Media: "urn:li:digitalmediaAsset:2", Thumbnails: []linkedin.Thumbnail{
			{URL: "https://cdn.example.com/thumb.jpg"},
			{URL: "https://cdn.example.com/thumb-small.jpg"},
		}},
		{Media: "urn:li:digitalmediaAsset:3"}, // no URL anywhere, silently skipped
	}

	client := &stubClient{posts: []linkedin.UGCPost{post}}
	f := New(client, 50, logger.NewTestLogger())

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Media, 2)

	assert.Equal(t, "https://cdn.example.com/a.jpg", posts[0].Media[0].URL)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", posts[0].Media[1].URL)
	assert.Equal(t, models.MediaKindImage, posts[0].Media[0].Kind)
}

func TestVideoMediaKind(t *testing.T) {
	post := rawPost("urn:li:share:11", "watch", 1000)
	post.SpecificContent.ShareContent.ShareMediaCategory = "VIDEO"
	post.SpecificContent.ShareContent.Media = []linkedin.MediaEntry{
		{OriginalURL: "https://cdn.example.com/clip.mp4"},
	}

	client := &stubClient{posts: []linkedin.UGCPost{post}}
	f := New(client, 50, logger.NewTestLogger())

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Media, 1)
	assert.Equal(t, models.MediaKindVideo, posts[0].Media[0].Kind)
}

func TestMissingTimestampDefaultsToNow(t *testing.T) {
	log := logger.NewTestLogger()
	client := &stubClient{posts: []linkedin.UGCPost{rawPost("urn:li:share:12", "no date", 0)}}
	f := New(client, 50, log)

	before := time.Now()
	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.False(t, posts[0].CreatedAt.Before(before))
	assert.True(t, log.HasMessage("WARN", "no timestamp"))
}

func TestFetchAllReturnsPartialOnError(t *testing.T) {
	client := &stubClient{
		posts: []linkedin.UGCPost{rawPost("urn:li:share:13", "partial", 1000)},
		err:   errors.New("page 2 failed"),
	}
	f := New(client, 50, logger.NewTestLogger())

	posts, err := f.FetchAll("urn:li:person:abc123", 0)
	require.Error(t, err)
	assert.Len(t, posts, 1)
}
