// Package textutil holds the text helpers shared by the normalizers and the
// archival writer: slug generation, hashtag extraction, and filename
// sanitizing.
package textutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const slugMaxLength = 60

var (
	urlPattern        = regexp.MustCompile(`http\S+`)
	hashtagPattern    = regexp.MustCompile(`#(\w+)`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafePattern     = regexp.MustCompile(`[<>:"/\\|?*]`)
	hyphenRunPattern  = regexp.MustCompile(`-+`)
)

// SlugifyPost generates a filesystem-safe slug from post content and date,
// shaped as YYYY-MM-DD-first-words-of-post. URLs, hashtags and mentions are
// stripped before the content summary is taken.
func SlugifyPost(content string, date time.Time) string {
	datePrefix := date.Format("2006-01-02")

	clean := urlPattern.ReplaceAllString(content, "")
	clean = hashtagPattern.ReplaceAllString(clean, "")
	clean = mentionPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(whitespacePattern.ReplaceAllString(clean, " "))

	words := strings.Fields(clean)
	if len(words) > 8 {
		words = words[:8]
	}

	s := slug.Make(strings.Join(words, " "))
	s = truncateSlug(s, slugMaxLength-len(datePrefix)-1)

	if s == "" {
		return datePrefix
	}
	return datePrefix + "-" + s
}

// truncateSlug shortens s to at most max characters, cutting at a hyphen
// boundary when possible.
func truncateSlug(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	s = s[:max]
	if i := strings.LastIndex(s, "-"); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// UniqueSlug returns base if unused, otherwise base-2, base-3, ... until a
// slug not present in existing is found. Uniqueness is scoped to the current
// run's accumulated slug set.
func UniqueSlug(base string, existing map[string]bool) string {
	if !existing[base] {
		return base
	}

	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if !existing[candidate] {
			return candidate
		}
	}
}

// ExtractHashtags returns the deduplicated hashtags found in text, without
// the leading '#'. Tags are case-sensitive; order is not significant but is
// made deterministic for stable output.
func ExtractHashtags(text string) []string {
	if text == "" {
		return nil
	}

	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			tags = append(tags, m[1])
		}
	}
	sort.Strings(tags)
	return tags
}

// SanitizeFilename removes characters that are unsafe in filenames and
// collapses whitespace to hyphens.
func SanitizeFilename(filename string) string {
	filename = unsafePattern.ReplaceAllString(filename, "")
	filename = strings.ReplaceAll(filename, " ", "-")
	filename = hyphenRunPattern.ReplaceAllString(filename, "-")
	if len(filename) > 255 {
		filename = filename[:255]
	}
	return strings.Trim(filename, "-")
}
