// Package media downloads post attachments into the archive. Files land in a
// media/ subdirectory of the post, named by kind and ordinal, and are written
// through a temp file so a crashed download never leaves a partial file
// behind.
package media

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"liarchive/pkg/config"
	"liarchive/pkg/errors"
	"liarchive/pkg/logger"
	"liarchive/pkg/models"
)

const mediaSubdir = "media"

// knownExtensions maps URL extensions the downloader trusts onto themselves;
// anything else gets the kind's default extension.
var knownExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".avi": true,
	".pdf": true, ".doc": true, ".docx": true,
}

var defaultExtensions = map[models.MediaKind]string{
	models.MediaKindImage:    ".jpg",
	models.MediaKindVideo:    ".mp4",
	models.MediaKindDocument: ".pdf",
}

// Downloader fetches media files for archived posts.
type Downloader struct {
	httpClient *http.Client
	cfg        config.MediaConfig
	logger     logger.Logger
}

// NewDownloader creates a media downloader.
func NewDownloader(cfg *config.Config, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		cfg:        cfg.Media,
		logger:     log,
	}
}

// DownloadForPost fetches every attachment of the post into postDir/media and
// returns the number of files newly downloaded. Files that already exist are
// skipped but still bound to their media entry, so a re-run completes a
// partially archived post. A failed attachment never fails the post.
func (d *Downloader) DownloadForPost(post *models.Post, postDir string) int {
	if !post.HasMedia() {
		return 0
	}

	mediaDir := filepath.Join(postDir, mediaSubdir)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		d.logger.ErrorWithFields("failed to create media directory", map[string]interface{}{
			"dir":   mediaDir,
			"error": err.Error(),
		})
		return 0
	}

	downloaded := 0
	ordinals := map[models.MediaKind]int{}

	for _, m := range post.Media {
		ordinals[m.Kind]++

		if !d.kindEnabled(m.Kind) {
			continue
		}

		filename := fmt.Sprintf("%s-%d%s", m.Kind, ordinals[m.Kind], extensionFor(m))
		target := filepath.Join(mediaDir, filename)

		if _, err := os.Stat(target); err == nil {
			m.Filename = filename
			m.LocalPath = target
			continue
		}

		if err := d.download(m, target); err != nil {
			d.logger.WarnWithFields("media download failed", map[string]interface{}{
				"post_id": post.ID,
				"url":     m.URL,
				"error":   err.Error(),
			})
			continue
		}

		m.Filename = filename
		m.LocalPath = target
		downloaded++
	}

	return downloaded
}

func (d *Downloader) kindEnabled(kind models.MediaKind) bool {
	switch kind {
	case models.MediaKindImage:
		return d.cfg.DownloadImages
	case models.MediaKindVideo:
		return d.cfg.DownloadVideos
	case models.MediaKindDocument:
		return d.cfg.DownloadDocuments
	default:
		return false
	}
}

// download fetches one file. Videos are size-checked before the transfer;
// images are validated after it.
func (d *Downloader) download(m *models.Media, target string) error {
	if m.Kind == models.MediaKindVideo {
		if skip, err := d.videoTooLarge(m.URL); err == nil && skip {
			return errors.New(errors.ErrorTypeMediaUnavailable,
				fmt.Sprintf("video exceeds size limit of %d MB", d.cfg.MaxVideoSizeMB), 0)
		}
	}

	resp, err := d.httpClient.Get(m.URL)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeMediaUnavailable, err, "media request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrorTypeMediaUnavailable,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if m.Kind == models.MediaKindImage {
		if err := validateImage(tmpName, target); err != nil {
			os.Remove(tmpName)
			return errors.Wrap(errors.ErrorTypeMediaUnavailable, err, "invalid image payload")
		}
	}

	return os.Rename(tmpName, target)
}

// videoTooLarge checks the advertised Content-Length against the configured
// ceiling. An inconclusive HEAD (error or no length) lets the download
// proceed.
func (d *Downloader) videoTooLarge(url string) (bool, error) {
	resp, err := d.httpClient.Head(url)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	if resp.ContentLength <= 0 {
		return false, nil
	}
	return resp.ContentLength > int64(d.cfg.MaxVideoSizeMB)*1024*1024, nil
}

// validateImage decodes the downloaded file's header to catch truncated or
// non-image payloads before they enter the archive. webp has no stdlib
// decoder and is left unvalidated.
func validateImage(path, target string) error {
	if strings.EqualFold(filepath.Ext(target), ".webp") {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("invalid image data: %w", err)
	}
	return nil
}

// extensionFor picks the file extension: the URL's own when recognized,
// otherwise the kind's default.
func extensionFor(m *models.Media) string {
	clean := strings.SplitN(m.URL, "?", 2)[0]
	ext := strings.ToLower(filepath.Ext(clean))
	if knownExtensions[ext] {
		return ext
	}
	return defaultExtensions[m.Kind]
}
