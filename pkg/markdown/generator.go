// Package markdown renders archived posts and the archive index. Each post
// becomes a post.md with YAML frontmatter; the index is regenerated wholesale
// from all known posts so it never drifts from the archive's contents.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"liarchive/pkg/logger"
	"liarchive/pkg/models"
)

// PostFilename is the name of the rendered post inside its directory. Its
// presence marks a post as already archived.
const PostFilename = "post.md"

// IndexFilename is the archive-wide index at the base directory root.
const IndexFilename = "INDEX.md"

const previewLength = 100

// Generator renders posts and the index to the archive directory tree.
type Generator struct {
	dateFormat string
	logger     logger.Logger
}

// NewGenerator creates a generator. dateFormat is the directory layout for
// post paths relative to the archive base, e.g. "2006/01".
func NewGenerator(dateFormat string, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Generator{dateFormat: dateFormat, logger: log}
}

// PostPath returns a post's directory path relative to the archive base.
func (g *Generator) PostPath(post *models.Post) string {
	return filepath.Join(post.CreatedAt.Format(g.dateFormat), post.Slug)
}

// SavePost renders the post into postDir/post.md.
func (g *Generator) SavePost(post *models.Post, postDir string) error {
	var b strings.Builder

	g.writeFrontmatter(&b, post)

	fmt.Fprintf(&b, "# Post from %s\n\n", post.CreatedAt.Format("2006-01-02"))

	if post.IsRepost() {
		g.writeRepostSection(&b, post)
	} else if post.Content != "" {
		b.WriteString(post.Content)
		b.WriteString("\n\n")
	}

	if len(post.Hashtags) > 0 {
		tags := make([]string, len(post.Hashtags))
		for i, tag := range post.Hashtags {
			tags[i] = "#" + tag
		}
		fmt.Fprintf(&b, "%s\n\n", strings.Join(tags, " "))
	}

	if post.HasMedia() {
		g.writeMediaSection(&b, post)
	}

	b.WriteString("---\n\n")
	if post.PostURL != "" {
		fmt.Fprintf(&b, "[View on LinkedIn](%s)\n", post.PostURL)
	} else {
		b.WriteString("Archived from a LinkedIn data export.\n")
	}

	path := filepath.Join(postDir, PostFilename)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (g *Generator) writeFrontmatter(b *strings.Builder, post *models.Post) {
	b.WriteString("---\n")
	fmt.Fprintf(b, "date: %s\n", post.CreatedAt.Format("2006-01-02 15:04:05"))
	if post.PostURL != "" {
		fmt.Fprintf(b, "post_url: %s\n", post.PostURL)
	}
	fmt.Fprintf(b, "post_type: %s\n", post.Kind)
	fmt.Fprintf(b, "archived_at: %s\n", time.Now().Format(time.RFC3339))
	if len(post.Hashtags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range post.Hashtags {
			fmt.Fprintf(b, "  - %s\n", tag)
		}
	}
	b.WriteString("---\n\n")
}

func (g *Generator) writeRepostSection(b *strings.Builder, post *models.Post) {
	if post.RepostCommentary != "" {
		b.WriteString(post.RepostCommentary)
		b.WriteString("\n\n")
	}
	if post.OriginalPostURL != "" {
		fmt.Fprintf(b, "> Reposted from [the original post](%s)\n\n", post.OriginalPostURL)
	} else {
		b.WriteString("> Reposted (original post link unavailable)\n\n")
	}
}

// writeMediaSection lists each attachment: downloaded images are embedded,
// other downloaded files are linked, and anything that could not be fetched
// keeps its source URL with an unavailable marker.
func (g *Generator) writeMediaSection(b *strings.Builder, post *models.Post) {
	b.WriteString("## Media\n\n")
	for _, m := range post.Media {
		switch {
		case m.Filename == "":
			fmt.Fprintf(b, "- %s unavailable: %s\n", m.Kind, m.URL)
		case m.Kind == models.MediaKindImage:
			fmt.Fprintf(b, "![%s](media/%s)\n", m.Filename, m.Filename)
		default:
			fmt.Fprintf(b, "- [%s](media/%s)\n", m.Filename, m.Filename)
		}
	}
	b.WriteString("\n")
}

// GenerateIndex rewrites INDEX.md at the archive base from the full post set,
// grouped by year in descending order.
func (g *Generator) GenerateIndex(baseDir string, posts []*models.Post) error {
	byYear := make(map[int][]*models.Post)
	for _, post := range posts {
		year := post.CreatedAt.Year()
		byYear[year] = append(byYear[year], post)
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	var b strings.Builder
	b.WriteString("# Post Archive\n\n")
	fmt.Fprintf(&b, "%d posts archived.\n", len(posts))

	for _, year := range years {
		fmt.Fprintf(&b, "\n## %d\n\n", year)

		yearPosts := byYear[year]
		sort.SliceStable(yearPosts, func(i, j int) bool {
			return yearPosts[i].CreatedAt.After(yearPosts[j].CreatedAt)
		})

		for _, post := range yearPosts {
			relPath := filepath.ToSlash(filepath.Join(g.PostPath(post), PostFilename))
			fmt.Fprintf(&b, "- [%s](%s)", post.CreatedAt.Format("2006-01-02"), relPath)
			if preview := previewOf(post); preview != "" {
				fmt.Fprintf(&b, " %s", preview)
			}
			if post.IsRepost() {
				b.WriteString(" *(repost)*")
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(baseDir, IndexFilename)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	g.logger.InfoWithFields("regenerated index", map[string]interface{}{
		"posts": len(posts),
		"years": len(years),
	})
	return nil
}

// previewOf condenses the post content into a single short line.
func previewOf(post *models.Post) string {
	text := strings.Join(strings.Fields(post.Content), " ")
	if len(text) > previewLength {
		text = strings.TrimSpace(text[:previewLength]) + "..."
	}
	return text
}
