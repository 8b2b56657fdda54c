package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liarchive/pkg/archive"
	"liarchive/pkg/config"
	"liarchive/pkg/fetcher"
	"liarchive/pkg/linkedin"
	"liarchive/pkg/logger"
	"liarchive/pkg/media"
)

func fixturePosts(mediaBase string) []linkedin.UGCPost {
	return []linkedin.UGCPost{
		{
			ID:      "urn:li:share:1001",
			Author:  "urn:li:person:mock-member",
			Created: linkedin.Created{Time: time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC).UnixMilli()},
			SpecificContent: linkedin.SpecificContent{
				ShareContent: linkedin.ShareContent{
					ShareCommentary:    linkedin.Commentary{Text: "Launching the archive tool today #golang"},
					ShareMediaCategory: "IMAGE",
					Media: []linkedin.MediaEntry{
						{Media: "urn:li:digitalmediaAsset:1", OriginalURL: mediaBase + "/media/launch.png"},
					},
				},
			},
		},
		{
			ID:      "urn:li:share:1002",
			Author:  "urn:li:person:mock-member",
			Created: linkedin.Created{Time: time.Date(2023, 11, 2, 15, 30, 0, 0, time.UTC).UnixMilli()},
			SpecificContent: linkedin.SpecificContent{
				ShareContent: linkedin.ShareContent{
					ShareCommentary: linkedin.Commentary{Text: "This write-up is worth your time"},
				},
			},
			ReshareContext: &linkedin.ReshareContext{Parent: "urn:li:share:555"},
		},
		{
			ID:     "urn:li:share:1003",
			Author: "urn:li:person:mock-member",
			// No timestamp: the normalizer must fall back to the current time.
			SpecificContent: linkedin.SpecificContent{
				ShareContent: linkedin.ShareContent{
					ShareCommentary: linkedin.Commentary{Text: "Post with a broken timestamp"},
				},
			},
		},
	}
}

func testConfig(baseDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDir = baseDir
	cfg.LinkedIn.RateLimitDelay = 0.001
	cfg.LinkedIn.PageSize = 2 // force pagination across the three fixtures
	return cfg
}

func runPipeline(t *testing.T, server *MockLinkedInServer, cfg *config.Config) *archive.Stats {
	t.Helper()
	log := logger.NewTestLogger()

	client := linkedin.NewClient("mock-token", cfg, log)
	client.SetAPIBaseURL(server.URL())

	profile, err := client.UserProfile()
	require.NoError(t, err)
	require.Equal(t, "mock-member", profile.Sub)

	f := fetcher.New(client, cfg.LinkedIn.PageSize, log)
	posts, err := f.FetchAll(linkedin.PersonURN(profile.Sub), 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	downloader := media.NewDownloader(cfg, log)
	archiver := archive.New(cfg, downloader, log)
	stats := archiver.Archive(posts)
	stats.APIRequests = client.RequestCount()
	return stats
}

func TestEndToEndFetchAndArchive(t *testing.T) {
	baseDir := t.TempDir()

	server := NewMockLinkedInServer(nil)
	defer server.Close()
	server.Posts = fixturePosts(server.URL())

	cfg := testConfig(baseDir)
	before := time.Now()
	stats := runPipeline(t, server, cfg)

	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.MediaDownloaded)
	// userinfo plus two post pages.
	assert.Equal(t, int64(3), stats.APIRequests)

	// The image post landed under its date bucket with the media file.
	postDir := filepath.Join(baseDir, "2024", "04", "2024-04-10-launching-the-archive-tool-today")
	assert.FileExists(t, filepath.Join(postDir, "post.md"))
	assert.FileExists(t, filepath.Join(postDir, "media", "image-1.png"))

	content, err := os.ReadFile(filepath.Join(postDir, "post.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "![image-1.png](media/image-1.png)")
	assert.Contains(t, string(content), "tags:\n  - golang")

	// The repost links back to its original.
	repostDir := filepath.Join(baseDir, "2023", "11", "2023-11-02-this-write-up-is-worth-your-time")
	repostContent, err := os.ReadFile(filepath.Join(repostDir, "post.md"))
	require.NoError(t, err)
	assert.Contains(t, string(repostContent), "post_type: repost")
	assert.Contains(t, string(repostContent), "https://www.linkedin.com/feed/update/urn:li:activity:555/")

	// The timestampless post was archived under today's date bucket.
	todayBucket := filepath.Join(baseDir, before.Format("2006"), before.Format("01"))
	entries, err := os.ReadDir(todayBucket)
	require.NoError(t, err)
	found := false
	for _, entry := range entries {
		if strings.Contains(entry.Name(), "post-with-a-broken-timestamp") {
			found = true
		}
	}
	assert.True(t, found, "timestampless post missing from %s", todayBucket)

	// The index covers every year, newest first.
	indexData, err := os.ReadFile(filepath.Join(baseDir, "INDEX.md"))
	require.NoError(t, err)
	index := string(indexData)
	assert.Contains(t, index, "3 posts archived.")
	assert.Contains(t, index, "## 2024")
	assert.Contains(t, index, "## 2023")
	assert.Less(t, strings.Index(index, "## 2024"), strings.Index(index, "## 2023"))
}

func TestEndToEndRerunIsIdempotent(t *testing.T) {
	baseDir := t.TempDir()

	server := NewMockLinkedInServer(nil)
	defer server.Close()

	// Pin the third post's timestamp so both runs compute the same slug.
	posts := fixturePosts(server.URL())
	posts[2].Created.Time = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC).UnixMilli()
	server.Posts = posts

	cfg := testConfig(baseDir)

	first := runPipeline(t, server, cfg)
	assert.Equal(t, 3, first.Succeeded)
	assert.Equal(t, 1, first.MediaDownloaded)

	second := runPipeline(t, server, cfg)
	assert.Equal(t, 3, second.Succeeded)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, 0, second.MediaDownloaded)
}

func TestEndToEndAuthRejected(t *testing.T) {
	server := NewMockLinkedInServer(nil)
	defer server.Close()

	cfg := testConfig(t.TempDir())
	client := linkedin.NewClient("wrong-token", cfg, logger.NewTestLogger())
	client.SetAPIBaseURL(server.URL())

	_, err := client.UserProfile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth")
}
