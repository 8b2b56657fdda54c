package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liarchive/pkg/logger"
	"liarchive/pkg/models"
)

func writeExportFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseJSONArray(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"id": "urn:li:share:1", "text": "First post #intro", "date": "2023-06-01 10:30:00", "url": "https://example.com/p/1"},
		{"ID": "urn:li:share:2", "commentary": "Second post", "Date": "2023-06-02", "link": "https://example.com/p/2"}
	]`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "urn:li:share:1", posts[0].ID)
	assert.Equal(t, "First post #intro", posts[0].Content)
	assert.Equal(t, "https://example.com/p/1", posts[0].PostURL)
	assert.Equal(t, time.Date(2023, 6, 1, 10, 30, 0, 0, time.UTC), posts[0].CreatedAt)
	assert.Equal(t, []string{"intro"}, posts[0].Hashtags)

	// Uppercase fallback keys resolve too.
	assert.Equal(t, "urn:li:share:2", posts[1].ID)
	assert.Equal(t, "Second post", posts[1].Content)
	assert.Equal(t, time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), posts[1].CreatedAt)
}

func TestParseJSONElementsWrapper(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Share.json", `{"elements": [
		{"id": "urn:li:share:9", "Text": "wrapped", "createdAt": "2022-01-15T08:00:00Z"}
	]}`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "wrapped", posts[0].Content)
	assert.Equal(t, time.Date(2022, 1, 15, 8, 0, 0, 0, time.UTC), posts[0].CreatedAt)
}

func TestParseJSONSynthesizesStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "posts.json", `[{"text": "no id here", "date": "2023-01-01"}]`)

	p := NewParser(logger.NewTestLogger())
	first, err := p.Parse(dir)
	require.NoError(t, err)
	second, err := p.Parse(dir)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.True(t, len(first[0].ID) > len("export-"))
	assert.Contains(t, first[0].ID, "export-")
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestParseCombinesSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[{"id": "urn:li:share:1", "text": "from json", "date": "2023-01-01"}]`)
	writeExportFile(t, dir, "Shares.csv", "Date,ShareCommentary\n2023-02-02,from csv\n")

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "from json", posts[0].Content)
	assert.Equal(t, "from csv", posts[1].Content)
}

func TestParseJSONDerivesURLWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"id": "urn:li:share:7", "text": "no url field", "date": "2023-01-01"},
		{"text": "no id either", "date": "2023-01-02"}
	]`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:share:7/", posts[0].PostURL)
	// A synthesized ID is local-only and yields no URL.
	assert.Empty(t, posts[1].PostURL)
}

func TestParseJSONRepost(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"id": "a", "text": "sharing", "date": "2023-01-01", "resharedPost": "https://example.com/orig"},
		{"id": "b", "text": "also sharing", "date": "2023-01-02", "isReshare": true}
	]`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, models.PostKindRepost, posts[0].Kind)
	assert.Equal(t, "https://example.com/orig", posts[0].OriginalPostURL)
	assert.Equal(t, "sharing", posts[0].RepostCommentary)

	assert.Equal(t, models.PostKindRepost, posts[1].Kind)
	assert.Empty(t, posts[1].OriginalPostURL)
}

func TestParseJSONMedia(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"id": "a", "text": "pics", "date": "2023-01-01", "images": ["https://cdn.example.com/a.png", "https://cdn.example.com/b.mp4"]},
		{"id": "b", "text": "objs", "date": "2023-01-02", "media": [{"url": "https://cdn.example.com/doc.pdf"}]}
	]`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Len(t, posts[0].Media, 2)
	assert.Equal(t, models.MediaKindImage, posts[0].Media[0].Kind)
	assert.Equal(t, models.MediaKindVideo, posts[0].Media[1].Kind)

	require.Len(t, posts[1].Media, 1)
	assert.Equal(t, models.MediaKindDocument, posts[1].Media[0].Kind)
}

func TestParseJSONMediaDeclaredType(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"id": "a", "text": "mixed", "date": "2023-01-01",
		 "media": [{"url": "https://cdn.example.com/clip", "type": "video"}],
		 "images": ["https://cdn.example.com/pic.png"]}
	]`)

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// The declared type wins over the extension guess, and every media field
	// contributes.
	require.Len(t, posts[0].Media, 2)
	assert.Equal(t, models.MediaKindVideo, posts[0].Media[0].Kind)
	assert.Equal(t, models.MediaKindImage, posts[0].Media[1].Kind)
}

func TestParseJSONSkipsMalformedRecords(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[
		{"date": "2023-01-01"},
		{"id": "ok", "text": "fine", "date": "2023-01-02"}
	]`)

	log := logger.NewTestLogger()
	p := NewParser(log)
	posts, err := p.Parse(dir)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "ok", posts[0].ID)
	assert.True(t, log.HasMessage("WARN", "skipping malformed export record"))
}

func TestParseJSONUnparseableDateFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Posts.json", `[{"id": "a", "text": "bad date", "date": "someday soon"}]`)

	log := logger.NewTestLogger()
	p := NewParser(log)

	before := time.Now()
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.False(t, posts[0].CreatedAt.Before(before))
	assert.True(t, log.HasMessage("WARN", "unparseable date"))
}

func TestParseCSV(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Shares.csv",
		"Date,ShareLink,ShareCommentary\n"+
			"2023-05-10 09:00:00,https://example.com/p/1,Launching today #launch\n"+
			"06/15/2023,https://example.com/p/2,Second share\n"+
			",,\n")

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "Launching today #launch", posts[0].Content)
	assert.Equal(t, "https://example.com/p/1", posts[0].PostURL)
	assert.Equal(t, time.Date(2023, 5, 10, 9, 0, 0, 0, time.UTC), posts[0].CreatedAt)
	assert.Equal(t, []string{"launch"}, posts[0].Hashtags)
	assert.Contains(t, posts[0].ID, "csv-")

	// US month-first layout wins for slash dates.
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), posts[1].CreatedAt)
}

func TestParseCSVRowWithoutLink(t *testing.T) {
	dir := t.TempDir()
	writeExportFile(t, dir, "Shares.csv", "Date,ShareCommentary\n2023-05-10,no link column\n")

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "https://www.linkedin.com/feed/", posts[0].PostURL)
}

func TestParseCSVStableIDs(t *testing.T) {
	dir := t.TempDir()
	csv := "Date,ShareCommentary\n2023-05-10 09:00:00,same content\n"
	writeExportFile(t, dir, "Posts.csv", csv)

	p := NewParser(logger.NewTestLogger())
	first, err := p.Parse(dir)
	require.NoError(t, err)
	second, err := p.Parse(dir)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestParseZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "export.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("Complete_LinkedInDataExport/Posts.json")
	require.NoError(t, err)
	_, err = entry.Write([]byte(`[{"id": "z1", "text": "from zip", "date": "2023-03-03"}]`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	p := NewParser(logger.NewTestLogger())
	posts, err := p.Parse(zipPath)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "z1", posts[0].ID)
	assert.Equal(t, "from zip", posts[0].Content)
}

func TestParseMissingSourceFile(t *testing.T) {
	p := NewParser(logger.NewTestLogger())
	_, err := p.Parse(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no post source file")
}

func TestParseDateChain(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
		ok    bool
	}{
		{"2023-06-01 10:30:00", time.Date(2023, 6, 1, 10, 30, 0, 0, time.UTC), true},
		{"2023-06-01T10:30:00Z", time.Date(2023, 6, 1, 10, 30, 0, 0, time.UTC), true},
		{"2023-06-01T10:30:00.123456Z", time.Date(2023, 6, 1, 10, 30, 0, 123456000, time.UTC), true},
		{"2023-06-01", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"06/01/2023", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"25/12/2023", time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{"1685615400000", time.UnixMilli(1685615400000), true},
		{"not a date", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := parseDate(tt.value)
		assert.Equal(t, tt.ok, ok, tt.value)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), tt.value)
		}
	}
}
