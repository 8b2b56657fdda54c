package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMediaValidation(t *testing.T) {
	for _, kind := range []MediaKind{MediaKindImage, MediaKindVideo, MediaKindDocument} {
		m, err := NewMedia(kind, "https://cdn.example.com/file")
		require.NoError(t, err)
		assert.Equal(t, kind, m.Kind)
		assert.Empty(t, m.LocalPath)
		assert.Empty(t, m.Filename)
	}

	_, err := NewMedia("gif", "https://cdn.example.com/file")
	assert.Error(t, err)

	_, err = NewMedia("", "https://cdn.example.com/file")
	assert.Error(t, err)
}

func TestNewPostValidation(t *testing.T) {
	now := time.Now()

	for _, kind := range []PostKind{PostKindOriginal, PostKindRepost, PostKindArticle, PostKindPoll} {
		p, err := NewPost("urn:li:share:1", "https://example.com/1", "hello", now, kind)
		require.NoError(t, err)
		assert.Equal(t, kind, p.Kind)
		assert.Empty(t, p.Slug)
	}

	_, err := NewPost("id", "url", "text", now, "story")
	assert.Error(t, err)
}

func TestPostHelpers(t *testing.T) {
	now := time.Now()

	repost, err := NewPost("id1", "url1", "my take", now, PostKindRepost)
	require.NoError(t, err)
	assert.True(t, repost.IsRepost())
	assert.False(t, repost.HasMedia())

	original, err := NewPost("id2", "url2", "plain", now, PostKindOriginal)
	require.NoError(t, err)
	assert.False(t, original.IsRepost())

	img, err := NewMedia(MediaKindImage, "https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	original.Media = append(original.Media, img)
	assert.True(t, original.HasMedia())
}
