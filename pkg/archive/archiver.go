// Package archive writes normalized posts into the on-disk archive. Each
// post gets a dated, slug-named directory holding post.md and its media; the
// rendered post.md doubles as the idempotency marker, so re-running an
// archival never rewrites a post that is already there.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"liarchive/pkg/config"
	"liarchive/pkg/logger"
	"liarchive/pkg/markdown"
	"liarchive/pkg/models"
	"liarchive/pkg/textutil"
)

// mediaDownloader is the slice of the media downloader the archiver needs.
type mediaDownloader interface {
	DownloadForPost(post *models.Post, postDir string) int
}

// Stats summarizes one archival run.
type Stats struct {
	TotalPosts      int
	Succeeded       int
	Failed          int
	MediaDownloaded int
	APIRequests     int64
}

// Archiver writes posts to the archive directory tree.
type Archiver struct {
	baseDir    string
	generator  *markdown.Generator
	downloader mediaDownloader
	logger     logger.Logger

	// slugs holds every slug assigned during this run so collisions within
	// the run get numbered suffixes.
	slugs map[string]bool
}

// New creates an archiver rooted at the configured base directory.
func New(cfg *config.Config, downloader mediaDownloader, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Archiver{
		baseDir:    cfg.Output.BaseDir,
		generator:  markdown.NewGenerator(cfg.Output.DateFormat, log),
		downloader: downloader,
		logger:     log,
		slugs:      make(map[string]bool),
	}
}

// Archive writes every post, isolating per-post failures, then regenerates
// the index. Posts whose post.md already exists count as succeeded without
// being touched.
func (a *Archiver) Archive(posts []*models.Post) *Stats {
	stats := &Stats{TotalPosts: len(posts)}

	for _, post := range posts {
		if err := a.archivePost(post, stats); err != nil {
			stats.Failed++
			a.logger.ErrorWithFields("failed to archive post", map[string]interface{}{
				"post_id": post.ID,
				"error":   err.Error(),
			})
			continue
		}
		stats.Succeeded++
	}

	if err := a.generator.GenerateIndex(a.baseDir, posts); err != nil {
		a.logger.WithError(err).Error("failed to regenerate index")
	}

	a.logger.InfoWithFields("archival run complete", map[string]interface{}{
		"total":     stats.TotalPosts,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"media":     stats.MediaDownloaded,
	})
	return stats
}

func (a *Archiver) archivePost(post *models.Post, stats *Stats) error {
	a.assignSlug(post)

	postDir := filepath.Join(a.baseDir, a.generator.PostPath(post))
	if err := os.MkdirAll(postDir, 0o755); err != nil {
		return fmt.Errorf("failed to create post directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(postDir, markdown.PostFilename)); err == nil {
		a.logger.DebugWithFields("post already archived", map[string]interface{}{
			"post_id": post.ID,
			"slug":    post.Slug,
		})
		return nil
	}

	if a.downloader != nil {
		stats.MediaDownloaded += a.downloader.DownloadForPost(post, postDir)
	}

	return a.generator.SavePost(post, postDir)
}

// assignSlug gives the post a run-unique slug derived from its date and
// content. The slug is assigned once and reused afterwards.
func (a *Archiver) assignSlug(post *models.Post) {
	if post.Slug == "" {
		base := textutil.SlugifyPost(post.Content, post.CreatedAt)
		post.Slug = textutil.UniqueSlug(base, a.slugs)
	}
	a.slugs[post.Slug] = true
}
