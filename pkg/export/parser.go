// Package export parses LinkedIn data-export archives (ZIP files or already
// extracted directories) into the same post model the API fetcher produces.
// Export files vary across vintages, so field lookup runs through ordered
// fallback chains and synthesizes stable IDs where the source has none.
package export

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"liarchive/pkg/errors"
	"liarchive/pkg/logger"
	"liarchive/pkg/models"
	"liarchive/pkg/textutil"
)

// candidateFiles are the post source files an export may contain, in lookup
// order.
var candidateFiles = []string{
	"Posts.json",
	"posts.json",
	"Share.json",
	"share.json",
	"Posts.csv",
	"Shares.csv",
}

// Parser reads a LinkedIn data export and normalizes its post records.
type Parser struct {
	logger logger.Logger
}

// NewParser creates an export parser.
func NewParser(log logger.Logger) *Parser {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Parser{logger: log}
}

// Parse reads the export at path, which may be a ZIP archive or a directory,
// and returns the normalized posts. Malformed records are skipped with a log
// entry; only a missing or unreadable source file is an error.
func (p *Parser) Parse(path string) ([]*models.Post, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNotFound, err, "export path not accessible")
	}

	dir := path
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".zip") {
			return nil, errors.New(errors.ErrorTypeArchival,
				fmt.Sprintf("export path must be a directory or a .zip file: %s", path), 0)
		}
		extracted, cleanup, err := p.extractZip(path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		dir = extracted
	}

	sources, err := p.findSourceFiles(dir)
	if err != nil {
		return nil, err
	}

	// An export can carry posts across several files, e.g. Posts.json for
	// original posts and Shares.csv for reshares. Parse every one present.
	var posts []*models.Post
	for _, source := range sources {
		p.logger.InfoWithFields("parsing export file", map[string]interface{}{
			"source": filepath.Base(source),
		})

		var parsed []*models.Post
		if strings.EqualFold(filepath.Ext(source), ".csv") {
			parsed, err = p.parseCSV(source)
		} else {
			parsed, err = p.parseJSON(source)
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, parsed...)
	}
	return posts, nil
}

// extractZip unpacks the archive into a temp directory and returns it with a
// cleanup func.
func (p *Parser) extractZip(path string) (string, func(), error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrorTypeArchival, err, "failed to open export archive")
	}
	defer reader.Close()

	tmpDir, err := os.MkdirTemp("", "liarchive-export-")
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrorTypeArchival, err, "failed to create temp directory")
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		// Flatten: exports nest post files one level deep at most, and only
		// the base name matters for source lookup.
		target := filepath.Join(tmpDir, filepath.Base(file.Name))
		if err := extractFile(file, target); err != nil {
			cleanup()
			return "", nil, errors.Wrap(errors.ErrorTypeArchival, err, "failed to extract export file")
		}
	}

	return tmpDir, cleanup, nil
}

func extractFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// findSourceFiles locates every candidate post file present in dir, in
// lookup order.
func (p *Parser) findSourceFiles(dir string) ([]string, error) {
	var sources []string
	for _, name := range candidateFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			sources = append(sources, candidate)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrorTypeNotFound,
			fmt.Sprintf("no post source file found in %s (looked for %s)", dir, strings.Join(candidateFiles, ", ")), 0)
	}
	return sources, nil
}

// parseJSON handles both a bare array of records and an object wrapping them
// under "elements".
func (p *Parser) parseJSON(path string) ([]*models.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeArchival, err, "failed to read export file")
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		var wrapper struct {
			Elements []map[string]interface{} `json:"elements"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeMalformedRecord, err, "export file is not valid JSON")
		}
		records = wrapper.Elements
	}

	posts := make([]*models.Post, 0, len(records))
	for i, record := range records {
		post, err := p.normalizeJSONRecord(record)
		if err != nil {
			p.logger.WarnWithFields("skipping malformed export record", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		posts = append(posts, post)
	}

	p.logger.InfoWithFields("parsed export records", map[string]interface{}{
		"total":      len(records),
		"normalized": len(posts),
	})
	return posts, nil
}

func (p *Parser) normalizeJSONRecord(record map[string]interface{}) (*models.Post, error) {
	content := stringField(record, "text", "commentary", "Text")
	id := stringField(record, "id", "ID")
	synthesized := id == ""
	if synthesized {
		if content == "" {
			return nil, fmt.Errorf("record has neither an ID nor content")
		}
		id = "export-" + contentHash(content)
	}

	createdAt := p.recordDate(record, id)
	postURL := stringField(record, "url", "URL", "link")
	if postURL == "" && !synthesized {
		// Exports often omit the URL even though the post ID is a valid URN;
		// the feed update URL can be derived from it. Synthesized IDs are
		// local-only and yield no usable URL.
		postURL = "https://www.linkedin.com/feed/update/" + id + "/"
	}

	kind := models.PostKindOriginal
	originalURL := stringField(record, "resharedPost")
	if originalURL != "" || boolField(record, "isReshare") {
		kind = models.PostKindRepost
	}

	post, err := models.NewPost(id, postURL, content, createdAt, kind)
	if err != nil {
		return nil, err
	}

	post.Hashtags = textutil.ExtractHashtags(content)
	if kind == models.PostKindRepost {
		post.OriginalPostURL = originalURL
		post.RepostCommentary = content
	}
	post.Media = extractMedia(record)

	return post, nil
}

// recordDate resolves the record's timestamp: a string runs through the date
// layout chain, a number is taken as a millisecond epoch, anything else means
// now.
func (p *Parser) recordDate(record map[string]interface{}, id string) time.Time {
	for _, key := range []string{"date", "Date", "createdAt"} {
		switch v := record[key].(type) {
		case string:
			if v == "" {
				continue
			}
			t, ok := parseDate(v)
			if !ok {
				p.logger.WarnWithFields("unparseable date, using current time", map[string]interface{}{
					"id":    id,
					"value": v,
				})
			}
			return t
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v))
			}
		}
	}
	p.logger.WarnWithFields("record has no date, using current time", map[string]interface{}{
		"id": id,
	})
	return time.Now()
}

// parseCSV reads a header-driven CSV export. Column lookup uses the same kind
// of ordered fallback as JSON keys.
func (p *Parser) parseCSV(path string) ([]*models.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeArchival, err, "failed to open export file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeMalformedRecord, err, "export CSV has no header row")
	}

	contentCol := findColumn(header, "ShareCommentary", "Text", "Content")
	dateCol := findColumn(header, "Date", "CreatedAt")
	linkCol := findColumn(header, "ShareLink", "Link")
	if contentCol < 0 {
		return nil, errors.New(errors.ErrorTypeMalformedRecord, "export CSV has no content column", 0)
	}

	var posts []*models.Post
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.WarnWithFields("skipping malformed CSV row", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
			continue
		}

		content := cell(row, contentCol)
		if content == "" {
			continue
		}

		dateValue := cell(row, dateCol)
		createdAt := time.Now()
		if dateValue != "" {
			t, ok := parseDate(dateValue)
			if !ok {
				p.logger.WarnWithFields("unparseable date, using current time", map[string]interface{}{
					"line":  line,
					"value": dateValue,
				})
			}
			createdAt = t
		}

		link := cell(row, linkCol)
		if link == "" {
			// CSV rows carry no URN to derive a post URL from.
			link = "https://www.linkedin.com/feed/"
		}

		post, err := models.NewPost(
			"csv-"+contentHash(content+dateValue),
			link,
			content,
			createdAt,
			models.PostKindOriginal,
		)
		if err != nil {
			continue
		}
		post.Hashtags = textutil.ExtractHashtags(content)
		posts = append(posts, post)
	}

	p.logger.InfoWithFields("parsed export records", map[string]interface{}{
		"normalized": len(posts),
	})
	return posts, nil
}

// stringField returns the first non-empty string value among keys.
func stringField(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func boolField(record map[string]interface{}, key string) bool {
	b, _ := record[key].(bool)
	return b
}

// findColumn returns the index of the first header matching any candidate,
// case-insensitively, or -1.
func findColumn(header []string, candidates ...string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// contentHash gives a stable ID suffix for records without one. FNV keeps the
// synthesized IDs deterministic across runs, which the idempotency check
// depends on.
func contentHash(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum64())
}

// extractMedia pulls attachments out of every media field the export vintage
// uses; a record may spread them across several fields.
func extractMedia(record map[string]interface{}) []*models.Media {
	var media []*models.Media
	for _, key := range []string{"media", "images", "attachments", "content"} {
		entries, ok := record[key].([]interface{})
		if !ok {
			continue
		}
		for _, entry := range entries {
			url, kind := mediaEntry(entry)
			if url == "" {
				continue
			}
			m, err := models.NewMedia(kind, url)
			if err != nil {
				continue
			}
			media = append(media, m)
		}
	}
	return media
}

// mediaEntry accepts either a bare URL string or an object with url and type
// fields. A declared type wins; without one the kind is guessed from the
// URL's extension.
func mediaEntry(entry interface{}) (string, models.MediaKind) {
	switch v := entry.(type) {
	case string:
		return v, kindFromURL(v)
	case map[string]interface{}:
		url := stringField(v, "url", "originalUrl", "URL")
		if url == "" {
			return "", models.MediaKindImage
		}
		if declared := stringField(v, "type"); declared != "" {
			return url, kindFromType(declared, url)
		}
		return url, kindFromURL(url)
	}
	return "", models.MediaKindImage
}

func kindFromType(declared, url string) models.MediaKind {
	switch strings.ToLower(declared) {
	case "video":
		return models.MediaKindVideo
	case "document":
		return models.MediaKindDocument
	case "image":
		return models.MediaKindImage
	default:
		return kindFromURL(url)
	}
}

// kindFromURL guesses the media kind from the URL's extension.
func kindFromURL(url string) models.MediaKind {
	ext := strings.ToLower(filepath.Ext(strings.Split(url, "?")[0]))
	switch ext {
	case ".mp4", ".mov", ".avi":
		return models.MediaKindVideo
	case ".pdf", ".doc", ".docx":
		return models.MediaKindDocument
	default:
		return models.MediaKindImage
	}
}
