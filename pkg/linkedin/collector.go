package linkedin

import (
	"net/url"
	"strconv"

	"liarchive/pkg/errors"
)

// CollectPosts walks the UGC posts collection for the given author and
// returns the raw records in the order the API yields them, at most limit
// records when limit > 0.
//
// Pagination stops on the first of: an empty page, the requested limit being
// reached, the API not advertising a next page, or a page fetch failing. On a
// failed fetch the records gathered so far are returned alongside the error
// so the caller can archive what it has.
func (c *Client) CollectPosts(authorURN string, pageSize, limit int) ([]UGCPost, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	c.logger.InfoWithFields("collecting posts", map[string]interface{}{
		"author":    authorURN,
		"page_size": pageSize,
		"limit":     limit,
	})

	var posts []UGCPost
	start := 0

	for {
		params := url.Values{}
		params.Set("q", "authors")
		params.Set("authors", "List("+authorURN+")")
		params.Set("start", strconv.Itoa(start))
		params.Set("count", strconv.Itoa(pageSize))

		var page UGCPostsResponse
		if err := c.GetJSON(c.postsURL, params, &page); err != nil {
			if errors.IsExhausted(err) {
				c.logger.WarnWithFields("page fetch gave up, returning partial results", map[string]interface{}{
					"start":     start,
					"collected": len(posts),
				})
			}
			return posts, err
		}

		if len(page.Elements) == 0 {
			break
		}

		posts = append(posts, page.Elements...)

		if limit > 0 && len(posts) >= limit {
			posts = posts[:limit]
			break
		}

		if !page.Paging.HasNext() {
			break
		}

		start += pageSize
	}

	c.logger.InfoWithFields("collected posts", map[string]interface{}{
		"author": authorURN,
		"count":  len(posts),
	})
	return posts, nil
}
