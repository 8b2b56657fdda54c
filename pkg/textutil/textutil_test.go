package textutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestSlugifyPost(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain content",
			content: "Excited to announce our new product launch today",
			want:    "2024-03-15-excited-to-announce-our-new-product-launch-today",
		},
		{
			name:    "strips urls hashtags mentions",
			content: "Check this out https://example.com/x #golang @someone great stuff",
			want:    "2024-03-15-check-this-out-great-stuff",
		},
		{
			name:    "empty content",
			content: "",
			want:    "2024-03-15",
		},
		{
			name:    "only noise",
			content: "https://a.example #tag @user",
			want:    "2024-03-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SlugifyPost(tt.content, date("2024-03-15"))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlugifyPostLength(t *testing.T) {
	long := strings.Repeat("verylongword ", 20)
	got := SlugifyPost(long, date("2024-03-15"))
	assert.LessOrEqual(t, len(got), 60)
	assert.True(t, strings.HasPrefix(got, "2024-03-15-"))
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestUniqueSlug(t *testing.T) {
	existing := map[string]bool{}
	assert.Equal(t, "2024-01-01-hello", UniqueSlug("2024-01-01-hello", existing))

	existing["2024-01-01-hello"] = true
	assert.Equal(t, "2024-01-01-hello-2", UniqueSlug("2024-01-01-hello", existing))

	existing["2024-01-01-hello-2"] = true
	assert.Equal(t, "2024-01-01-hello-3", UniqueSlug("2024-01-01-hello", existing))
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("Shipping #golang and #cloud today. #golang again!")
	assert.Equal(t, []string{"cloud", "golang"}, tags)

	// Case-sensitive: Golang and golang are distinct tags.
	tags = ExtractHashtags("#Golang #golang")
	assert.Equal(t, []string{"Golang", "golang"}, tags)

	assert.Nil(t, ExtractHashtags(""))
	assert.Nil(t, ExtractHashtags("no tags here"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "image-1.jpg", SanitizeFilename("image-1.jpg"))
	assert.Equal(t, "a-b.pdf", SanitizeFilename(`a<>:"/\|?* b.pdf`))
	assert.Equal(t, "one-two", SanitizeFilename("one   two"))
	assert.Equal(t, "x", SanitizeFilename("--x--"))
}
